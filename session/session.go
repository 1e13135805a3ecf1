// Package session implements the command dispatcher: tag generation,
// writing commands, driving the wire parser through a response until
// the matching tag is seen, and routing every non-matching response
// through the untagged interpreter. It is the only component that
// drives the parser and the only writer of the message cache, besides
// the untagged interpreter it owns internally.
package session

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/google/uuid"

	imap "github.com/netmute/imapterm"
	"github.com/netmute/imapterm/cache"
	"github.com/netmute/imapterm/mimeword"
	"github.com/netmute/imapterm/wire"
)

// Context is the caller-supplied hint the untagged interpreter uses to
// pick between otherwise-identical shapes.
type Context int

const (
	// ContextNone is the default: no command-specific untagged handling.
	ContextNone Context = iota
	// ContextSelect makes an EXISTS response reset the cache first.
	ContextSelect
	// ContextList makes a LIST response render its mailbox name.
	ContextList
)

// Option configures a Session at construction time.
type Option func(*Options)

// Options holds every piece of Session configuration a caller may
// override.
type Options struct {
	// Logger is the structured logger used for wire-level tracing.
	Logger *slog.Logger
	// ErrWriter receives echoed NO/BAD diagnostic text.
	ErrWriter io.Writer
	// ListWriter receives mailbox names from LIST responses.
	ListWriter io.Writer
	// DecodeWord MIME-decodes header-derived text. Defaults to
	// mimeword.Decode; tests substitute the identity function.
	DecodeWord func(string) string
}

// DefaultOptions returns the Options a plain New/Dial call uses.
func DefaultOptions() *Options {
	return &Options{
		Logger:     slog.Default(),
		ErrWriter:  os.Stderr,
		ListWriter: os.Stdout,
		DecodeWord: mimeword.Decode,
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithErrWriter sets the writer that receives echoed server diagnostics.
func WithErrWriter(w io.Writer) Option {
	return func(o *Options) { o.ErrWriter = w }
}

// WithListWriter sets the writer LIST responses render mailbox names to.
func WithListWriter(w io.Writer) Option {
	return func(o *Options) { o.ListWriter = w }
}

// WithWordDecoder overrides the MIME decoder applied to header text.
func WithWordDecoder(f func(string) string) Option {
	return func(o *Options) { o.DecodeWord = f }
}

// Session is the single-threaded owner of the stream and the message
// cache. There is never more than one command outstanding; every
// exported method blocks until that command's tagged completion (or a
// fatal error) is observed.
type Session struct {
	conn    io.ReadWriteCloser
	parser  *wire.Parser
	encoder *wire.Encoder
	tags    *tagGenerator

	cache *cache.Cache
	state imap.ConnState

	logger     *slog.Logger
	errOut     io.Writer
	listOut    io.Writer
	decodeWord func(string) string
}

// Dial opens a TCP connection to addr and performs New on it, including
// reading the server greeting.
func Dial(addr string, opts ...Option) (*Session, error) {
	conn, err := dial(addr)
	if err != nil {
		return nil, err
	}
	s, err := New(conn, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already-connected stream in a Session and reads the
// server's greeting line: one untagged "*" token, a space, an atom;
// "OK" skips the rest of the line, anything else is echoed and reported
// as CommandRejected.
func New(conn io.ReadWriteCloser, opts ...Option) (*Session, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	// The UUID is a log-correlation label only — never sent on the
	// wire. Session identity on the wire is the tag counter; this just
	// lets two concurrent manual sessions against the same mailbox be
	// told apart in logs.
	logger := o.Logger.With("session", uuid.NewString())

	s := &Session{
		conn:       conn,
		parser:     wire.NewParser(conn),
		encoder:    wire.NewEncoder(conn),
		tags:       newTagGenerator(),
		cache:      cache.New(),
		state:      imap.ConnStateNotAuthenticated,
		logger:     logger,
		errOut:     o.ErrWriter,
		listOut:    o.ListWriter,
		decodeWord: o.DecodeWord,
	}

	if err := s.readGreeting(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) readGreeting() error {
	tok, err := s.parser.ExpectString()
	if err != nil {
		return wrapWireErr("", err)
	}
	if tok != "*" {
		return malformed("", "greeting did not start with '*', got %q", tok)
	}
	if err := s.parser.ExpectSpace(); err != nil {
		return wrapWireErr("", err)
	}
	word, err := s.parser.ExpectString()
	if err != nil {
		return wrapWireErr("", err)
	}
	if !strings.EqualFold(word, "OK") {
		var sb strings.Builder
		_ = s.parser.EchoLine(&sb)
		return rejected("", sb.String())
	}
	s.logger.Debug("greeting ok")
	return wrapWireErr("", s.parser.SkipLine())
}

// State returns the current connection state.
func (s *Session) State() imap.ConnState { return s.state }

// Cache returns the session's message cache for the display layer to
// read. Only the session ever writes to it: the untagged interpreter,
// plus the prevSize syncs in Select and CloseGap.
func (s *Session) Cache() *cache.Cache { return s.cache }

// Close releases the underlying stream. Safe to call after Logout.
func (s *Session) Close() error {
	return s.conn.Close()
}

// wrapWireErr translates a wire-package error (ErrDisconnected or
// *wire.MalformedError) into the session's own ProtocolError kinds, so
// every error this package returns is a *ProtocolError.
func wrapWireErr(tag string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, wire.ErrDisconnected) {
		return disconnected(err)
	}
	var me *wire.MalformedError
	if errors.As(err, &me) {
		return malformed(tag, "%s", me.Reason)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return &ProtocolError{Kind: KindSystemCall, Tag: tag, Err: err}
	}
	return err
}
