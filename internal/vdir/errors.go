package vdir

import (
	"errors"
	"fmt"
)

// Error kinds. Every workflow failure is an *Error whose Kind is one of
// these, so callers can branch with errors.Is.
var (
	ErrListCollections        = errors.New("list vdir collections")
	ErrReadCollectionMetadata = errors.New("read vdir collections metadata")

	ErrCollectionExists         = errors.New("vdir collection already exists")
	ErrCreateCollection         = errors.New("create vdir collection")
	ErrCreateCollectionMetadata = errors.New("create vdir collection metadata")

	ErrDeleteCollection = errors.New("delete vdir collection")

	ErrCreateCollectionMetadataTemp = errors.New("create new vdir collection metadata")
	ErrSaveCollectionMetadata       = errors.New("save vdir collection metadata")

	ErrCreateItem     = errors.New("create vdir item")
	ErrDeleteItem     = errors.New("delete vdir item")
	ErrCreateItemTemp = errors.New("create temporary vdir item file")
	ErrSaveItem       = errors.New("save vdir item file")

	ErrListItems = errors.New("list vdir items")
	ErrReadItems = errors.New("read vdir items")

	ErrReadItem         = errors.New("read vdir item file")
	ErrMissingExtension = errors.New("missing vdir item file extension")
	ErrInvalidExtension = errors.New("invalid vdir item file extension")
	ErrInvalidContents  = errors.New("invalid vdir item file contents")
	ErrInvalidVcard     = errors.New("invalid vCard contents")
	ErrInvalidIcal      = errors.New("invalid iCalendar contents")
)

// Error is a terminal workflow failure: which workflow (Op), which step
// (Kind), which path, and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Path string
	Err  error
}

func newError(op string, kind error, path string, err error) *Error {
	return &Error{Op: op, Kind: kind, Path: path, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
