package gallery

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package, pkg/store and pkg/service
// matches exactly one of these with errors.Is.
var (
	ErrDuplicateName       = errors.New("name already exists")
	ErrDuplicateTag        = errors.New("tag already exists on photo")
	ErrTagCapacityExceeded = errors.New("tag type does not accept another value on this photo")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrPersistence         = errors.New("persistence failure")
)

var (
	ErrDuplicatePhoto = fmt.Errorf("photo %w in album", ErrDuplicateName)
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrAlbumNotFound  = fmt.Errorf("album %w", ErrNotFound)
	ErrPhotoNotFound  = fmt.Errorf("photo %w", ErrNotFound)
	ErrTagNotFound    = fmt.Errorf("tag %w", ErrNotFound)
	ErrNoMatches      = fmt.Errorf("matching photos %w", ErrNotFound)
	ErrUnknownTagType = fmt.Errorf("%w: unknown tag type", ErrInvalidInput)
	ErrBlankName      = fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	ErrProtectedUser  = fmt.Errorf("%w: the admin account cannot be deleted", ErrInvalidInput)
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}
