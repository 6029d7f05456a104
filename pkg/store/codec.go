package store

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/unowned-ai/shoebox/pkg/gallery"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const documentVersion = 1

// document is the single blob written by the badger and file backends.
type document struct {
	Version int                  `json:"version"`
	Users   []gallery.UserRecord `json:"users"`
}

func encodeDocument(users []gallery.UserRecord) ([]byte, error) {
	if users == nil {
		users = []gallery.UserRecord{}
	}
	return json.MarshalIndent(document{Version: documentVersion, Users: users}, "", "  ")
}

func decodeDocument(data []byte) ([]gallery.UserRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode library document: %w", err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("library document version %d is newer than supported version %d", doc.Version, documentVersion)
	}
	return doc.Users, nil
}
