package sequence

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxLength is the longest sequence accepted from the ingestion boundary.
const MaxLength = 100

// maxSeconds is the longest hold a time.Duration can represent.
const maxSeconds = math.MaxInt64 / int64(time.Second)

// Limits bounds the scanner's buffers.
type Limits struct {
	MaxCommands int
	MaxDigits   int
	MaxLength   int
}

// DefaultLimits matches the robot client's fixed buffers.
var DefaultLimits = Limits{
	MaxCommands: 10,
	MaxDigits:   4,
	MaxLength:   MaxLength,
}

// Parser parses sequences within a set of limits.
type Parser struct {
	Limits Limits
}

// Parse parses s with DefaultLimits.
func Parse(s string) ([]Command, error) {
	return Parser{Limits: DefaultLimits}.Parse(s)
}

// Tokens is the output of the first parsing phase.
type Tokens struct {
	// Letters holds the motion letters in input order, as written.
	Letters string
	// Positions holds the byte offset of each letter.
	Positions []int
	// Durations holds one entry per digit run, in input order.
	Durations []Duration
}

// Duration is a digit run and the letter it follows.
type Duration struct {
	After   int
	Seconds int
}

// Tokenize runs the scanner over s. Scanning stops silently at the first
// character that is neither a motion letter nor a digit.
func (p Parser) Tokenize(s string) (Tokens, error) {
	var (
		tok   Tokens
		state = ScanningLetters
		run   strings.Builder
		runAt int
		step  Step
	)
	letters := make([]byte, 0, len(s))

	flush := func() error {
		if run.Len() == 0 {
			return nil
		}
		n, err := strconv.ParseInt(run.String(), 10, 64)
		if err != nil || n > maxSeconds {
			return &ParseError{Pos: runAt, Char: rune(s[runAt]), Index: len(letters) - 1, Err: ErrDurationTooLong}
		}
		tok.Durations = append(tok.Durations, Duration{After: len(letters) - 1, Seconds: int(n)})
		run.Reset()
		return nil
	}

	addLetter := func(pos int, c rune) error {
		if p.Limits.MaxCommands > 0 && len(letters) >= p.Limits.MaxCommands {
			return &ParseError{Pos: pos, Char: c, Index: len(letters), Err: ErrTooManyCommands}
		}
		letters = append(letters, byte(c))
		tok.Positions = append(tok.Positions, pos)
		return nil
	}

scan:
	for pos, c := range s {
		state, step = Transition(state, c)
		switch step {
		case StepFlushAndLetter:
			if err := flush(); err != nil {
				return tok, err
			}
			fallthrough
		case StepLetter:
			if err := addLetter(pos, c); err != nil {
				return tok, err
			}
		case StepDigit:
			if len(letters) == 0 {
				return tok, &ParseError{Pos: pos, Char: c, Index: -1, Err: ErrOrphanDuration}
			}
			last := len(letters) - 1
			if a, _ := actionFor(rune(letters[last])); !a.Timed() {
				return tok, &ParseError{Pos: pos, Char: c, Index: last, Err: ErrUnexpectedDuration}
			}
			if run.Len() == 0 {
				runAt = pos
			}
			if p.Limits.MaxDigits > 0 && run.Len() >= p.Limits.MaxDigits {
				return tok, &ParseError{Pos: runAt, Char: rune(s[runAt]), Index: last, Err: ErrDurationTooLong}
			}
			run.WriteRune(c)
		case StepHalt:
			break scan
		}
	}
	if err := flush(); err != nil {
		return tok, err
	}

	tok.Letters = string(letters)
	return tok, nil
}

// Parse tokenizes s and pairs every timed letter with its duration.
func (p Parser) Parse(s string) ([]Command, error) {
	if p.Limits.MaxLength > 0 && len(s) > p.Limits.MaxLength {
		return nil, &ParseError{Pos: p.Limits.MaxLength, Char: rune(s[p.Limits.MaxLength]), Index: -1, Err: ErrTooLong}
	}

	tok, err := p.Tokenize(s)
	if err != nil {
		return nil, err
	}
	return pair(tok)
}

func pair(tok Tokens) ([]Command, error) {
	cmds := make([]Command, 0, len(tok.Letters))
	next := 0
	for i := 0; i < len(tok.Letters); i++ {
		a, _ := actionFor(rune(tok.Letters[i]))
		cmd := Command{Action: a, Pos: tok.Positions[i]}
		if a.Timed() {
			if next >= len(tok.Durations) || tok.Durations[next].After != i {
				return nil, &ParseError{Pos: cmd.Pos, Char: rune(tok.Letters[i]), Index: i, Err: ErrMissingDuration}
			}
			cmd.Duration = time.Duration(tok.Durations[next].Seconds) * time.Second
			cmd.HasDuration = true
			next++
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Normalize strips the line terminators and NUL padding a sequence may
// arrive with.
func Normalize(raw string) string {
	return strings.TrimRight(raw, "\r\n\x00")
}
