package sequence

// State is the scanner state.
type State int

const (
	ScanningLetters State = iota
	ScanningDigits
)

func (s State) String() string {
	if s == ScanningDigits {
		return "scanning_digits"
	}
	return "scanning_letters"
}

// Step tells the scanner what to do with the character it just classified.
type Step int

const (
	// StepLetter appends a motion letter.
	StepLetter Step = iota
	// StepDigit appends a digit to the pending run.
	StepDigit
	// StepFlushAndLetter closes the pending digit run, then appends a letter.
	StepFlushAndLetter
	// StepHalt stops scanning; the pending run (if any) is still flushed.
	StepHalt
)

func (s Step) String() string {
	switch s {
	case StepLetter:
		return "letter"
	case StepDigit:
		return "digit"
	case StepFlushAndLetter:
		return "flush_and_letter"
	}
	return "halt"
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

// Transition is the scanner's transition function.
func Transition(s State, c rune) (State, Step) {
	_, letter := actionFor(c)
	switch {
	case letter && s == ScanningDigits:
		return ScanningLetters, StepFlushAndLetter
	case letter:
		return ScanningLetters, StepLetter
	case isDigit(c):
		return ScanningDigits, StepDigit
	}
	return s, StepHalt
}
