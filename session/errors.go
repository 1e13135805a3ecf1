package session

import "fmt"

// Kind classifies the outcome of a command or a parsing step. Most kinds
// are fatal to the session; Retry and Quit are control signals the
// interactive layer acts on rather than errors to report.
type Kind int

const (
	// KindOutOfMemory means an allocation failed.
	KindOutOfMemory Kind = iota
	// KindMalformed means the server violated the wire grammar or a
	// command contract; the stream position is no longer trustworthy.
	KindMalformed
	// KindDisconnected means the stream ended unexpectedly.
	KindDisconnected
	// KindCommandRejected means the server answered BAD to a tagged
	// command, or sent an untagged BAD mid-command.
	KindCommandRejected
	// KindSystemCall means a host syscall (dial, read, write) failed.
	KindSystemCall
	// KindRetry is a non-error control signal: LOGIN or SELECT got NO,
	// and the interactive layer should re-prompt.
	KindRetry
	// KindQuit is a non-error control signal: the user asked to log out.
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindOutOfMemory:
		return "out of memory"
	case KindMalformed:
		return "malformed"
	case KindDisconnected:
		return "disconnected"
	case KindCommandRejected:
		return "command rejected"
	case KindSystemCall:
		return "system call failed"
	case KindRetry:
		return "retry"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// ProtocolError is the single error type every session-level failure and
// control signal is reported as. Tag is the outstanding command tag for
// failures detected while writing the command or reading response tags
// and the tagged completion line; it is empty for disconnections, for
// failures inside an untagged response, and for the greeting. Text is server-supplied diagnostic
// text, echoed verbatim; Err, when present, is the underlying cause (a
// *wire.MalformedError or wire.ErrDisconnected, typically).
type ProtocolError struct {
	Kind Kind
	Tag  string
	Text string
	Err  error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Text != "" && e.Tag != "":
		return fmt.Sprintf("%s (tag %s): %s", e.Kind, e.Tag, e.Text)
	case e.Text != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Text)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Is reports Kind equality, so callers can write errors.Is(err,
// session.ErrRetry) instead of type-asserting and comparing fields.
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && e.Kind == t.Kind
}

// Sentinel control signals for errors.Is comparisons. A real failure
// carries its own Tag/Text/Err and is never identical to these, but Is
// still reports a Kind match.
var (
	ErrRetry = &ProtocolError{Kind: KindRetry}
	ErrQuit  = &ProtocolError{Kind: KindQuit}
)

func malformed(tag, format string, args ...interface{}) error {
	return &ProtocolError{Kind: KindMalformed, Tag: tag, Text: fmt.Sprintf(format, args...)}
}

func rejected(tag, text string) error {
	return &ProtocolError{Kind: KindCommandRejected, Tag: tag, Text: text}
}

func disconnected(err error) error {
	return &ProtocolError{Kind: KindDisconnected, Err: err}
}
