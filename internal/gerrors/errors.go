// Package gerrors defines the error kinds shared by every layer of the graph
// runtime. Each layer wraps one of these sentinels with fmt.Errorf and %w, so
// callers distinguish failures with errors.Is.
package gerrors

import "errors"

var (
	// ErrNotFound reports a failed lookup where creation was disallowed.
	ErrNotFound = errors.New("not found")
	// ErrInvalidKind reports an unknown graph kind or entity kind.
	ErrInvalidKind = errors.New("invalid kind")
	// ErrInvalidFormat reports an unknown layout engine, render or file format.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrCrossGraph reports operands that belong to different root graphs.
	ErrCrossGraph = errors.New("objects belong to different root graphs")
	// ErrDeclaration reports an attribute declaration rejected by the store.
	ErrDeclaration = errors.New("declaration failed")
	// ErrInvalidKey reports an empty, reserved or non-string attribute key.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidValue reports a value that cannot be coerced to a string.
	ErrInvalidValue = errors.New("invalid value")
	// ErrLayoutExists reports a second layout request before the first was freed.
	ErrLayoutExists = errors.New("layout already exists")
	// ErrLayoutMissing reports a render request without an active layout.
	ErrLayoutMissing = errors.New("layout missing")
	// ErrStaleReference reports an access through a dead proxy or handle.
	ErrStaleReference = errors.New("stale reference")
	// ErrIO reports a failed delegated read, write or render.
	ErrIO = errors.New("i/o failure")
	// ErrNameInUse reports a rename or create that collides with an existing name.
	ErrNameInUse = errors.New("name already in use")
	// ErrAlreadyRegistered reports an attempt to overwrite a live registry entry.
	ErrAlreadyRegistered = errors.New("already registered")
)
