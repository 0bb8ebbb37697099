package toc

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentNotFound is returned when a docname is not in the site map.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrRootDeletion is returned when deleting the root document.
	ErrRootDeletion = errors.New("cannot delete root document")
	// ErrCyclicReference is returned when serialization meets a docname twice.
	ErrCyclicReference = errors.New("cyclic reference")
	// ErrDocnameMismatch is returned by Set when the key and docname differ.
	ErrDocnameMismatch = errors.New("docname does not match key")
	// ErrUnknownFormat is returned for a file format with no profile.
	ErrUnknownFormat = errors.New("unknown file format")
)

// MalformedError is returned for every structural problem found while
// parsing a ToC. Path locates the offending node, e.g. "/subtrees/0/items/1/".
type MalformedError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s @ '%s'", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *MalformedError) Unwrap() error { return e.Err }

func malformed(path, format string, args ...any) *MalformedError {
	return &MalformedError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports an invalid field value on an entry, tree or
// document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("'%s' %s", e.Field, e.Reason)
}
