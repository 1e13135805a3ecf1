package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/netmute/imapterm/session"
)

// helpText lists every recognized "!command".
const helpText = `commands:
  !select NAME    select a mailbox
  !list           list top-level mailboxes
  !page N         show page N of the selected mailbox
  !read N         show the body of message N
  !delete N       flag message N \Deleted
  !undelete N     clear \Deleted on message N
  !expunge        permanently remove \Deleted messages
  !stats          show mailbox summary
  !clear          clear the screen
  !help           show this text
  !logout         log out and exit`

// REPL drives the interactive "!command" loop over an already
// authenticated *session.Session. It owns no protocol state of its own;
// the session's cache is the single source of truth.
type REPL struct {
	sess *session.Session
	out  io.Writer
	page int
}

// New returns a REPL ready to Run.
func New(sess *session.Session, out io.Writer) *REPL {
	return &REPL{sess: sess, out: out, page: 1}
}

// Run reads "!command" lines from in until the user logs out or the
// input stream ends, interleaving a NOOP whenever Interval elapses with
// no input. It returns nil on a clean !logout or when in ends without a
// read error, and the underlying error otherwise.
func (r *REPL) Run(in io.Reader) error {
	lines := make(chan string)
	scanErrs := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
		scanErrs <- sc.Err()
		close(lines)
	}()

	ticker := NewTicker()
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return <-scanErrs
			}
			ticker.Reset()
			quit, err := r.dispatch(line)
			if quit {
				return nil
			}
			if err != nil {
				return err
			}
			if err := r.sess.CloseGap(); err != nil {
				return err
			}
		case <-ticker.C():
			if err := r.sess.Noop(); err != nil {
				return err
			}
			if err := r.sess.CloseGap(); err != nil {
				return err
			}
			ticker.Reset()
		}
	}
}

// dispatch handles one input line. quit is true only after a successful
// !logout.
func (r *REPL) dispatch(line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "!") {
		fmt.Fprintln(r.out, "commands start with '!' — try !help")
		return false, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		fmt.Fprintln(r.out, "commands start with '!' — try !help")
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "select":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "usage: !select NAME")
			return false, nil
		}
		if err := r.sess.Select(args[0]); err != nil {
			if errors.Is(err, session.ErrRetry) {
				fmt.Fprintln(r.out, "select failed")
				return false, nil
			}
			return false, err
		}
		r.page = 1
		fmt.Fprintln(r.out, Stats(r.sess.Cache()))

	case "list":
		if err := r.sess.List(); err != nil {
			return false, err
		}

	case "page":
		n := r.page
		if len(args) == 1 {
			v, convErr := strconv.Atoi(args[0])
			if convErr != nil || v < 1 {
				fmt.Fprintln(r.out, "usage: !page N")
				return false, nil
			}
			n = v
		}
		r.page = n
		for _, l := range Page(r.sess.Cache(), n) {
			fmt.Fprintln(r.out, l)
		}

	case "read":
		n, convErr := requireIndex(args)
		if convErr != nil {
			fmt.Fprintln(r.out, "usage: !read N")
			return false, nil
		}
		if msg := r.sess.Cache().Get(n); msg == nil || !msg.HasBody {
			if _, err := r.sess.FetchText(n); err != nil {
				return false, err
			}
		}
		fmt.Fprintln(r.out, RenderBody(r.sess.Cache().Get(n)))

	case "delete":
		n, convErr := requireIndex(args)
		if convErr != nil {
			fmt.Fprintln(r.out, "usage: !delete N")
			return false, nil
		}
		if err := r.sess.StoreAddDeleted(n); err != nil {
			return false, err
		}

	case "undelete":
		n, convErr := requireIndex(args)
		if convErr != nil {
			fmt.Fprintln(r.out, "usage: !undelete N")
			return false, nil
		}
		if err := r.sess.StoreRemoveDeleted(n); err != nil {
			return false, err
		}

	case "expunge":
		if err := r.sess.Expunge(); err != nil {
			return false, err
		}

	case "stats":
		fmt.Fprintln(r.out, Stats(r.sess.Cache()))

	case "clear":
		fmt.Fprint(r.out, "\033[H\033[2J")

	case "help":
		fmt.Fprintln(r.out, helpText)

	case "logout":
		if err := r.sess.Logout(); err != nil && !errors.Is(err, session.ErrQuit) {
			return false, err
		}
		return true, nil

	default:
		fmt.Fprintf(r.out, "unknown command %q — try !help\n", cmd)
	}

	return false, nil
}

func requireIndex(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one message number")
	}
	return strconv.Atoi(args[0])
}
