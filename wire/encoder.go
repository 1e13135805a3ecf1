package wire

import (
	"bufio"
	"io"
	"strconv"
)

// Encoder writes command lines to the stream. Unlike the parser it is not
// driven by the grammar at all — a command line is just a tag, a verb,
// and a handful of already-quoted arguments joined by single spaces.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder wraps w in an Encoder.
func NewEncoder(w io.Writer) *Encoder {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Encoder{w: bw}
}

// Quote renders s as an IMAP quoted string. This client never needs to
// send a literal (mailbox names and credentials are short, CR/LF-free
// strings in practice), so Quote is the only string-sending primitive.
func Quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	out = append(out, s...)
	out = append(out, '"')
	return string(out)
}

// Command writes "<tag> <verb> <args...>\r\n" and flushes it.
func (e *Encoder) Command(tag, verb string, args ...string) error {
	if _, err := e.w.WriteString(tag); err != nil {
		return err
	}
	if _, err := e.w.WriteString(" "); err != nil {
		return err
	}
	if _, err := e.w.WriteString(verb); err != nil {
		return err
	}
	for _, a := range args {
		if _, err := e.w.WriteString(" "); err != nil {
			return err
		}
		if _, err := e.w.WriteString(a); err != nil {
			return err
		}
	}
	if _, err := e.w.WriteString("\r\n"); err != nil {
		return err
	}
	return e.w.Flush()
}

// Seq renders a 1-based message sequence number as a decimal arg.
func Seq(n int) string { return strconv.Itoa(n) }

// SeqRange renders "a:b".
func SeqRange(a, b int) string { return strconv.Itoa(a) + ":" + strconv.Itoa(b) }
