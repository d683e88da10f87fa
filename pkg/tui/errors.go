package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C). Fill returns
	// the values collected so far alongside it.
	ErrAborted = errors.New("tui: aborted")
	// ErrNilTree is returned when Fill receives no schema.
	ErrNilTree = errors.New("tui: schema tree is nil")
)
