package session

import (
	"net"
	"time"
)

// dial opens a plain TCP connection to addr. TLS is out of scope, so
// this is the only transport the session ever constructs itself; New
// also accepts any net.Conn directly, for tests and for a future TLS
// dialer to plug in without touching the session package.
//
// The original client's "char read returns EOF" ambiguity — it
// conflated byte 0xFF with end-of-stream because it stored a peeked
// character in a signed byte — does not apply here: wire.Parser reads
// through a *bufio.Reader, whose Peek/ReadByte report end-of-stream as a
// distinct error value, never as a byte value, so no sentinel byte is
// needed.
func dial(addr string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return nil, &ProtocolError{Kind: KindSystemCall, Err: err}
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(15 * time.Second)
	}
	return conn, nil
}
