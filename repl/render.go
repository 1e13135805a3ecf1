// Package repl implements the interactive command loop as an external
// collaborator: a "!command" lexer, page/message rendering, and a
// keepalive driver that fires NOOP on input quiescence. None of it
// touches the wire directly — everything goes through a
// *session.Session.
package repl

import (
	"fmt"
	"strings"

	imap "github.com/netmute/imapterm"
	"github.com/netmute/imapterm/cache"
)

// Page renders the fixed 20-message window
// containing 1-based message numbers [(n-1)*imap.Page+1 ..
// n*imap.Page], clamped to the cache's current size. n must be ≥ 1.
func Page(c *cache.Cache, n int) []string {
	start := (n-1)*imap.Page + 1
	end := start + imap.Page - 1
	if end > c.Size() {
		end = c.Size()
	}
	if start > end {
		return nil
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		lines = append(lines, formatSummary(i, c.Get(i)))
	}
	return lines
}

// formatSummary renders one message's one-line summary the way the
// interactive session prints a page: index, deletion/seen markers,
// sender, subject. A nil record (not yet fetched) renders a placeholder.
func formatSummary(n int, msg *cache.Message) string {
	if msg == nil {
		return fmt.Sprintf("%4d  (not fetched)", n)
	}

	mark := " "
	if msg.Flags.Has(imap.FlagDeleted) {
		mark = "D"
	} else if !msg.Flags.Has(imap.FlagSeen) {
		mark = "N"
	}

	from := "(unknown sender)"
	if len(msg.From) > 0 {
		from = msg.From[0].String()
	}

	subject := "(no subject)"
	if msg.HasSubject && msg.Subject != "" {
		subject = msg.Subject
	}

	return fmt.Sprintf("%4d [%s] %-30s %s", n, mark, truncate(from, 30), subject)
}

// RenderBody renders a message's body text for the !read command. An
// absent body (not yet fetched) is reported rather than shown blank.
func RenderBody(msg *cache.Message) string {
	if msg == nil {
		return "(no such message)"
	}
	if !msg.HasBody {
		return "(body not fetched)"
	}
	return msg.BodyText
}

// Stats renders the one-line mailbox summary for !stats.
func Stats(c *cache.Cache) string {
	return fmt.Sprintf("%d messages, %d recent, %d unfetched", c.Size(), c.Recent(), c.Size()-c.PrevSize())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}
