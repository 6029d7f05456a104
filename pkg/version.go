package shoebox

// Version is the shoebox release.
const Version = "0.3.0"
