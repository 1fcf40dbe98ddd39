package loader

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a page load failure.
type ErrorKind string

const (
	NotFound         ErrorKind = "not_found"
	EncodingError    ErrorKind = "encoding_error"
	FrontMatterError ErrorKind = "front_matter_error"
	TooLarge         ErrorKind = "too_large"
	ReadError        ErrorKind = "read_error"
)

// Sentinels matched by LoadError.Is.
var (
	ErrNotFound    = errors.New("page not found")
	ErrEncoding    = errors.New("page is not valid UTF-8")
	ErrFrontMatter = errors.New("invalid front matter")
	ErrTooLarge    = errors.New("page exceeds size limit")
)

// LoadError reports why a page could not be loaded.
type LoadError struct {
	Kind   ErrorKind
	Path   string
	Offset int // First invalid byte for EncodingError
	Cause  error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case NotFound:
		return fmt.Sprintf("load %s: page not found", e.Path)
	case EncodingError:
		return fmt.Sprintf("load %s: invalid UTF-8 at byte %d", e.Path, e.Offset)
	}
	if e.Cause != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Kind, e.Cause)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Kind)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrEncoding:
		return e.Kind == EncodingError
	case ErrFrontMatter:
		return e.Kind == FrontMatterError
	case ErrTooLarge:
		return e.Kind == TooLarge
	}
	return false
}
