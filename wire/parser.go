package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrDisconnected signals an unexpected end of stream, distinct from a
// grammar violation. It is fatal to the session.
var ErrDisconnected = errors.New("imap: disconnected")

// MalformedError reports a wire grammar violation. The stream position is
// no longer trustworthy once one of these is returned.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return "imap: malformed response: " + e.Reason }

func malformed(format string, args ...interface{}) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// DefaultLiteralCap bounds the octet count a {n} literal header may
// declare. The original C client trusted the server's declared size
// outright, so a malicious server could request an arbitrarily large
// allocation; this client refuses anything larger and reports Malformed
// instead.
const DefaultLiteralCap = 16 * 1024 * 1024

// isForbidden reports forbidden bytes inside an atom or a quoted string.
// They are accepted verbatim inside a literal, which is the only
// production that may contain them.
func isForbidden(b byte) bool {
	switch b {
	case '{', '"', '\r', '\n', '%':
		return true
	default:
		return false
	}
}

// Parser reads Wire Objects from a byte stream. It holds no state beyond
// the stream position and the literal size cap; all grammar state lives
// on the Go call stack, bounded by the server-legal list nesting depth
// (typically ≤ 4).
type Parser struct {
	r          *bufio.Reader
	LiteralCap int64
}

// NewParser wraps r in a Parser ready to read from the start of any
// grammar production.
func NewParser(r io.Reader) *Parser {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Parser{r: br, LiteralCap: DefaultLiteralCap}
}

// wrap translates an io.EOF (or io.ErrUnexpectedEOF) encountered anywhere
// during parsing into ErrDisconnected, uniformly, regardless of how deep
// in the grammar it happened.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrDisconnected
	}
	return err
}

func (p *Parser) peekByte() (byte, error) {
	b, err := p.r.Peek(1)
	if err != nil {
		return 0, wrap(err)
	}
	return b[0], nil
}

func (p *Parser) readByte() (byte, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return 0, wrap(err)
	}
	return b, nil
}

func (p *Parser) expectByte(want byte) error {
	b, err := p.readByte()
	if err != nil {
		return err
	}
	if b != want {
		return malformed("expected %q, got %q", want, b)
	}
	return nil
}

// Parse reads one Wire Object, dispatching on a one-byte lookahead. It is
// the only entry point that may yield Sp or Crlf — those are top-level
// delimiters the dispatcher walks explicitly; inside a list they are
// consumed implicitly by parseList's own element-separator logic.
func (p *Parser) Parse() (*Object, error) {
	b, err := p.peekByte()
	if err != nil {
		return nil, err
	}
	switch b {
	case ' ':
		_, _ = p.readByte()
		return SP(), nil
	case '\r':
		_, _ = p.readByte()
		if err := p.expectByte('\n'); err != nil {
			return nil, err
		}
		return CRLF(), nil
	default:
		return p.parseValue(false)
	}
}

// parseValue dispatches the productions that can appear as a list element
// (list, literal, quoted string, atom). insideList tells parseAtom
// whether ')' should terminate the atom.
func (p *Parser) parseValue(insideList bool) (*Object, error) {
	b, err := p.peekByte()
	if err != nil {
		return nil, err
	}
	switch b {
	case '(':
		return p.parseList()
	case '{':
		return p.parseLiteral()
	case '"':
		_, _ = p.readByte()
		return p.parseQuoted()
	case ' ', '\r':
		return nil, malformed("unexpected %q where a value was expected", b)
	default:
		return p.parseAtom(insideList)
	}
}

// parseAtom accumulates bytes until SP, CR, or (inside a list) a close
// paren; the terminator is not consumed. NIL (case-insensitively matched,
// per the client uppercasing before compare) becomes Nil; anything else
// becomes Str.
func (p *Parser) parseAtom(insideList bool) (*Object, error) {
	var buf []byte
	for {
		b, err := p.peekByte()
		if err != nil {
			return nil, err
		}
		if b == ' ' || b == '\r' {
			break
		}
		if insideList && b == ')' {
			break
		}
		if isForbidden(b) {
			return nil, malformed("forbidden character %q in atom", b)
		}
		_, _ = p.readByte()
		buf = append(buf, b)
	}
	if len(buf) == 0 {
		return nil, malformed("expected atom")
	}
	s := string(buf)
	if upperEqual(s, "NIL") {
		return Nil(), nil
	}
	return Str(s), nil
}

func upperEqual(s, upper string) bool {
	if len(s) != len(upper) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != upper[i] {
			return false
		}
	}
	return true
}

// parseQuoted reads bytes until the closing quote; the opening quote has
// already been consumed. An empty quoted string becomes Nil, not
// Str("") — the equivalence between an empty and an absent value is
// deliberate.
func (p *Parser) parseQuoted() (*Object, error) {
	var buf []byte
	for {
		b, err := p.readByte()
		if err != nil {
			return nil, err
		}
		if b == '"' {
			break
		}
		if isForbidden(b) {
			return nil, malformed("forbidden character %q in quoted string", b)
		}
		buf = append(buf, b)
	}
	if len(buf) == 0 {
		return Nil(), nil
	}
	return Str(string(buf)), nil
}

// parseLiteral reads {n}\r\n followed by exactly n raw bytes, which may
// contain any byte including CR, LF, or NUL. {0}\r\n becomes Nil.
func (p *Parser) parseLiteral() (*Object, error) {
	if err := p.expectByte('{'); err != nil {
		return nil, err
	}
	var digits []byte
	for {
		b, err := p.readByte()
		if err != nil {
			return nil, err
		}
		if b == '}' {
			break
		}
		if b < '0' || b > '9' {
			return nil, malformed("non-digit %q in literal size", b)
		}
		digits = append(digits, b)
	}
	if len(digits) == 0 {
		return nil, malformed("empty literal size")
	}
	var size int64
	for _, d := range digits {
		size = size*10 + int64(d-'0')
		if size > p.LiteralCap {
			return nil, malformed("literal size exceeds cap of %d bytes", p.LiteralCap)
		}
	}
	if err := p.expectByte('\r'); err != nil {
		return nil, err
	}
	if err := p.expectByte('\n'); err != nil {
		return nil, err
	}
	if size == 0 {
		return Nil(), nil
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(p.r, data); err != nil {
		return nil, wrap(err)
	}
	return Str(string(data)), nil
}

// parseList reads a parenthesized sequence, consuming a single SP between
// elements. An empty list becomes Nil.
func (p *Parser) parseList() (*Object, error) {
	if err := p.expectByte('('); err != nil {
		return nil, err
	}
	var items []*Object
	first := true
	for {
		b, err := p.peekByte()
		if err != nil {
			return nil, err
		}
		if b == ')' {
			_, _ = p.readByte()
			return List(items), nil
		}
		if !first {
			if err := p.expectByte(' '); err != nil {
				return nil, err
			}
		}
		item, err := p.parseValue(true)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		first = false
	}
}

// ExpectString parses one object and fails with Malformed unless it is a
// Str.
func (p *Parser) ExpectString() (string, error) {
	o, err := p.Parse()
	if err != nil {
		return "", err
	}
	s, ok := o.AsStr()
	if !ok {
		return "", malformed("expected string, got %s", o)
	}
	return s, nil
}

// ExpectList parses one object and accepts List or Nil, returning nil for
// Nil (an absent list, not an error).
func (p *Parser) ExpectList() ([]*Object, error) {
	o, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if o.IsNil() {
		return nil, nil
	}
	items, ok := o.AsList()
	if !ok {
		return nil, malformed("expected list, got %s", o)
	}
	return items, nil
}

// ExpectSpace parses one object and fails with Malformed unless it is Sp.
func (p *Parser) ExpectSpace() error {
	o, err := p.Parse()
	if err != nil {
		return err
	}
	if o == nil || o.Kind != KindSP {
		return malformed("expected SP, got %s", o)
	}
	return nil
}

// SkipLine parses and discards objects until a Crlf is seen.
func (p *Parser) SkipLine() error {
	for {
		o, err := p.Parse()
		if err != nil {
			return err
		}
		if o.Kind == KindCRLF {
			return nil
		}
	}
}

// SkipOne parses and discards exactly one object, regardless of its tag.
func (p *Parser) SkipOne() error {
	_, err := p.Parse()
	return err
}

// EchoLine behaves like SkipLine but renders every non-space object to w,
// separated by single spaces — used to surface server error text
// verbatim to the operator.
func (p *Parser) EchoLine(w io.Writer) error {
	first := true
	for {
		o, err := p.Parse()
		if err != nil {
			return err
		}
		if o.Kind == KindCRLF {
			return nil
		}
		if o.Kind == KindSP {
			continue
		}
		if !first {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		first = false
		text := o.String()
		if s, ok := o.AsStr(); ok {
			text = s
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	}
}
