package sequence

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by ParseError.
var (
	ErrMissingDuration    = errors.New("motion letter has no duration")
	ErrOrphanDuration     = errors.New("duration before any motion letter")
	ErrUnexpectedDuration = errors.New("duration after a turn")
	ErrTooManyCommands    = errors.New("too many commands")
	ErrDurationTooLong    = errors.New("duration has too many digits")
	ErrTooLong            = errors.New("sequence too long")
)

// ParseError describes why a sequence was rejected.
type ParseError struct {
	// Pos is the byte offset of the offending character.
	Pos int
	// Char is the offending character, 0 at end of input.
	Char rune
	// Index is the command index the error applies to, -1 if none.
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	at := "end of input"
	if e.Char != 0 {
		at = fmt.Sprintf("%q at offset %d", e.Char, e.Pos)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("parse sequence: command %d (%s): %v", e.Index, at, e.Err)
	}
	return fmt.Sprintf("parse sequence: %s: %v", at, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
