package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyNoteText is returned when a note text is empty.
	ErrEmptyNoteText = errors.New("note text cannot be empty")
)
