package session

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn joins a canned server script (Reader) with a capture buffer
// (Writer) so tests can assert on both sides of the wire without a real
// socket.
type fakeConn struct {
	io.Reader
	io.Writer
}

func (fakeConn) Close() error { return nil }

func newTestSession(t *testing.T, script string) (*Session, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	s, err := New(fakeConn{Reader: strings.NewReader(script), Writer: &out}, WithErrWriter(&errOut), WithListWriter(io.Discard))
	require.NoError(t, err)
	return s, &out, &errOut
}

func TestGreetingOK(t *testing.T) {
	s, _, _ := newTestSession(t, "* OK IMAP server ready\r\n")
	assert.NotNil(t, s)
}

func TestGreetingBye(t *testing.T) {
	_, err := New(fakeConn{Reader: strings.NewReader("* BYE shutting down\r\n"), Writer: &bytes.Buffer{}})
	require.Error(t, err)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindCommandRejected, pe.Kind)
}

func TestGreetingDisconnectsOnEmptyStream(t *testing.T) {
	_, err := New(fakeConn{Reader: strings.NewReader(""), Writer: &bytes.Buffer{}})
	assert.ErrorIs(t, err, disconnected(nil))
}

func TestLoginFailureReturnsRetry(t *testing.T) {
	s, out, errOut := newTestSession(t, "* OK ready\r\nA000 NO bad credentials\r\n")
	err := s.Login("u", "p")
	assert.ErrorIs(t, err, ErrRetry)
	assert.Contains(t, out.String(), `A000 LOGIN "u" "p"`)
	assert.Contains(t, errOut.String(), "bad credentials")
}

func TestLoginSuccess(t *testing.T) {
	s, _, _ := newTestSession(t, "* OK ready\r\nA000 OK LOGIN completed\r\n")
	require.NoError(t, s.Login("u", "p"))
}

func TestSelectWithInterleavedExistsRecentAndBulkFetch(t *testing.T) {
	script := "* OK ready\r\n" +
		"* 3 EXISTS\r\n* 1 RECENT\r\nA000 OK completed\r\n" +
		"* 1 FETCH (FLAGS (\\Seen))\r\n" +
		"* 2 FETCH (FLAGS ())\r\n" +
		"* 3 FETCH (FLAGS (\\Recent))\r\n" +
		"A001 OK FETCH completed\r\n"
	s, out, _ := newTestSession(t, script)
	require.NoError(t, s.Select("INBOX"))
	assert.Equal(t, 3, s.Cache().Size())
	assert.Equal(t, 3, s.Cache().PrevSize())
	assert.Equal(t, 1, s.Cache().Recent())
	assert.Contains(t, out.String(), "A001 FETCH 1:3 ALL")
}

func TestExpungeShiftsIndices(t *testing.T) {
	script := "* OK ready\r\n" +
		"* 3 EXISTS\r\nA000 OK completed\r\n" +
		"* 1 FETCH (RFC822.SIZE 10)\r\n" +
		"* 2 FETCH (RFC822.SIZE 20)\r\n" +
		"* 3 FETCH (RFC822.SIZE 30)\r\n" +
		"A001 OK FETCH completed\r\n" +
		"* 2 EXPUNGE\r\nA002 OK NOOP completed\r\n"
	s, _, _ := newTestSession(t, script)
	require.NoError(t, s.Select("INBOX"))
	require.NoError(t, s.Noop())
	assert.Equal(t, 2, s.Cache().Size())
	assert.Equal(t, 2, s.Cache().PrevSize())
	got := s.Cache().Get(2)
	require.NotNil(t, got)
	assert.EqualValues(t, 30, got.SizeOctets)
}

func TestLogoutEchoesBye(t *testing.T) {
	s, _, errOut := newTestSession(t, "* OK ready\r\n* BYE logging out\r\nA000 OK LOGOUT completed\r\n")
	err := s.Logout()
	assert.ErrorIs(t, err, ErrQuit)
	assert.Contains(t, errOut.String(), "logging out")
}

func TestListRendersNamesOnlyInListContext(t *testing.T) {
	var names bytes.Buffer
	script := `* OK ready` + "\r\n" +
		`* LIST () "/" INBOX` + "\r\n" +
		`A000 OK LIST completed` + "\r\n"
	s, err := New(fakeConn{Reader: strings.NewReader(script), Writer: &bytes.Buffer{}}, WithListWriter(&names))
	require.NoError(t, err)
	require.NoError(t, s.List())
	assert.Equal(t, "INBOX", strings.TrimSpace(names.String()))
}

func TestMalformedTaggedStatusIsCommandRejected(t *testing.T) {
	s, _, _ := newTestSession(t, "* OK ready\r\nA000 BAD unknown command\r\n")
	_, err := s.execute(ContextNone, "NOOP")
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindCommandRejected, pe.Kind)
}

func TestDisconnectDuringCommandIsFatal(t *testing.T) {
	s, _, _ := newTestSession(t, "* OK ready\r\n* 1 EXISTS\r\n")
	_, err := s.execute(ContextNone, "NOOP")
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindDisconnected, pe.Kind)
}
