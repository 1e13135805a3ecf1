package session

import (
	"fmt"
	"strings"

	imap "github.com/netmute/imapterm"
	"github.com/netmute/imapterm/wire"
)

// execute implements the general send pattern: generate a tag, write
// the command, then loop reading response-tag tokens until the tag is
// seen, routing every other token through the untagged interpreter.
// no reports whether the tagged completion was NO (the caller decides
// whether that means Retry or an ordinary non-fatal failure); err is
// non-nil only for a fatal condition (Malformed, Disconnected,
// CommandRejected, SystemCall).
func (s *Session) execute(ctx Context, verb string, args ...string) (no bool, err error) {
	tag := s.tags.Next()
	s.logger.Debug("send", "tag", tag, "verb", verb, "args", args)

	if err := s.encoder.Command(tag, verb, args...); err != nil {
		return false, &ProtocolError{Kind: KindSystemCall, Tag: tag, Err: err}
	}

	for {
		tok, err := s.parser.ExpectString()
		if err != nil {
			return false, wrapWireErr(tag, err)
		}

		if tok == tag {
			if err := s.parser.ExpectSpace(); err != nil {
				return false, wrapWireErr(tag, err)
			}
			status, err := s.parser.ExpectString()
			if err != nil {
				return false, wrapWireErr(tag, err)
			}
			switch strings.ToUpper(status) {
			case "OK":
				return false, wrapWireErr(tag, s.parser.SkipLine())
			case "NO":
				var sb strings.Builder
				if err := s.parser.EchoLine(&sb); err != nil {
					return false, wrapWireErr(tag, err)
				}
				fmt.Fprintln(s.errOut, sb.String())
				return true, nil
			default:
				var sb strings.Builder
				_ = s.parser.EchoLine(&sb)
				return false, rejected(tag, sb.String())
			}
		}

		if err := s.applyUntagged(ctx, tok); err != nil {
			return false, err
		}
	}
}

// Login authenticates with a plaintext LOGIN. A server NO becomes
// ErrRetry so the interactive layer can re-prompt for credentials.
func (s *Session) Login(user, pass string) error {
	no, err := s.execute(ContextNone, imap.CommandLogin, wire.Quote(user), wire.Quote(pass))
	if err != nil {
		return err
	}
	if no {
		return ErrRetry
	}
	s.state = imap.ConnStateAuthenticated
	return nil
}

// Select opens mailbox. On success it issues the post-SELECT bulk
// prefetch: FETCH 1:size ALL when the mailbox is non-empty, then syncs
// prevSize so no gap remains. A server NO becomes ErrRetry.
func (s *Session) Select(mailbox string) error {
	no, err := s.execute(ContextSelect, imap.CommandSelect, mailbox)
	if err != nil {
		return err
	}
	if no {
		return ErrRetry
	}
	s.state = imap.ConnStateSelected

	if size := s.cache.Size(); size > 0 {
		if err := s.fetchAll(1, size); err != nil {
			return err
		}
	}
	s.cache.SyncPrevSize()
	return nil
}

// FetchOne fetches envelope/flags/date/size for message n.
func (s *Session) FetchOne(n int) error {
	_, err := s.execute(ContextNone, imap.CommandFetch, wire.Seq(n), "ALL")
	return err
}

// FetchRange fetches envelope/flags/date/size for messages a..b
// inclusive.
func (s *Session) FetchRange(a, b int) error {
	_, err := s.execute(ContextNone, imap.CommandFetch, wire.SeqRange(a, b), "ALL")
	return err
}

func (s *Session) fetchAll(a, b int) error {
	if a == b {
		return s.FetchOne(a)
	}
	return s.FetchRange(a, b)
}

// FetchText fetches the RFC822.TEXT body of message n and returns it.
// The untagged FETCH handler populates the cache slot as a side effect;
// this method just reads it back afterward.
func (s *Session) FetchText(n int) (string, error) {
	if _, err := s.execute(ContextNone, imap.CommandFetch, wire.Seq(n), "RFC822.TEXT"); err != nil {
		return "", err
	}
	msg := s.cache.Get(n)
	if msg == nil || !msg.HasBody {
		return "", nil
	}
	return msg.BodyText, nil
}

// List requests the top-level mailbox listing; names stream to the
// configured ListWriter as LIST responses arrive.
func (s *Session) List() error {
	_, err := s.execute(ContextList, imap.CommandList, wire.Quote(""), "%")
	return err
}

// StoreAddDeleted flags message n \Deleted.
func (s *Session) StoreAddDeleted(n int) error {
	_, err := s.execute(ContextNone, imap.CommandStore, wire.Seq(n), "+FLAGS", "(\\DELETED)")
	return err
}

// StoreRemoveDeleted clears the \Deleted flag on message n.
func (s *Session) StoreRemoveDeleted(n int) error {
	_, err := s.execute(ContextNone, imap.CommandStore, wire.Seq(n), "-FLAGS", "(\\DELETED)")
	return err
}

// Expunge permanently removes every \Deleted message in the selected
// mailbox. The untagged EXPUNGE responses shift the cache as they
// arrive.
func (s *Session) Expunge() error {
	_, err := s.execute(ContextNone, imap.CommandExpunge)
	return err
}

// Noop issues a no-op, used by the keepalive collaborator to keep the
// connection alive and to drain any pending untagged responses.
func (s *Session) Noop() error {
	_, err := s.execute(ContextNone, imap.CommandNoop)
	return err
}

// Logout asks the server to close the session. Unlike every other
// command it does not run through the untagged interpreter: a dedicated
// loop prints any untagged BYE line and ignores everything else. It
// always returns ErrQuit on a clean completion so the caller's control
// flow can treat logout uniformly with other paths out of the
// interaction loop.
func (s *Session) Logout() error {
	tag := s.tags.Next()
	if err := s.encoder.Command(tag, imap.CommandLogout); err != nil {
		return &ProtocolError{Kind: KindSystemCall, Tag: tag, Err: err}
	}

	for {
		tok, err := s.parser.ExpectString()
		if err != nil {
			return wrapWireErr(tag, err)
		}

		if tok == tag {
			if err := s.parser.ExpectSpace(); err != nil {
				return wrapWireErr(tag, err)
			}
			if _, err := s.parser.ExpectString(); err != nil {
				return wrapWireErr(tag, err)
			}
			if err := s.parser.SkipLine(); err != nil {
				return wrapWireErr(tag, err)
			}
			s.state = imap.ConnStateLogout
			return ErrQuit
		}

		if tok != "*" {
			return malformed(tag, "unexpected response tag %q during logout", tok)
		}
		if err := s.parser.ExpectSpace(); err != nil {
			return wrapWireErr(tag, err)
		}
		word, err := s.parser.ExpectString()
		if err != nil {
			return wrapWireErr(tag, err)
		}
		if strings.EqualFold(word, "BYE") {
			var sb strings.Builder
			if err := s.parser.EchoLine(&sb); err != nil {
				return wrapWireErr(tag, err)
			}
			fmt.Fprintln(s.errOut, "BYE", sb.String())
			continue
		}
		if err := s.parser.SkipLine(); err != nil {
			return wrapWireErr(tag, err)
		}
	}
}

// CloseGap issues the FETCH that resolves a pending cache gap: if
// cache.Size() > cache.PrevSize(), fetch the newly grown range and sync
// prevSize. Called by the interactive loop after every command, so a
// mid-command EXISTS growth is always resolved before the next user
// interaction.
func (s *Session) CloseGap() error {
	if !s.cache.HasGap() {
		return nil
	}
	a, b := s.cache.PrevSize()+1, s.cache.Size()
	if err := s.fetchAll(a, b); err != nil {
		return err
	}
	s.cache.SyncPrevSize()
	return nil
}
