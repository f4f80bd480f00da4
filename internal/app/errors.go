package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrEditorBusy    = errors.New("editor already open")
	ErrEditorClosed  = errors.New("editor is closed")
)
