package session

import (
	"fmt"
	"strings"

	imap "github.com/netmute/imapterm"
	"github.com/netmute/imapterm/address"
	"github.com/netmute/imapterm/cache"
	"github.com/netmute/imapterm/wire"
)

// applyUntagged classifies one "* ..." response (the leading "*" has
// already been read as tok) and applies its effect, per the untagged
// dispatch table, including the cache reset an EXISTS triggers in SELECT
// context. Apart from the prevSize syncs in Select and CloseGap, it is
// the only place that writes to the cache.
func (s *Session) applyUntagged(ctx Context, tok string) error {
	if tok != "*" {
		return malformed("", "expected untagged response marker '*', got %q", tok)
	}
	if err := s.parser.ExpectSpace(); err != nil {
		return wrapWireErr("", err)
	}
	first, err := s.parser.ExpectString()
	if err != nil {
		return wrapWireErr("", err)
	}

	if n, ok := parseDecimal(first); ok {
		return s.applyNumbered(ctx, n)
	}

	switch strings.ToUpper(first) {
	case "LIST":
		return s.applyList(ctx)
	case "NO":
		var sb strings.Builder
		if err := s.parser.EchoLine(&sb); err != nil {
			return wrapWireErr("", err)
		}
		fmt.Fprintln(s.errOut, sb.String())
		return nil
	case "BAD":
		var sb strings.Builder
		_ = s.parser.EchoLine(&sb)
		return rejected("", sb.String())
	default:
		return wrapWireErr("", s.parser.SkipLine())
	}
}

// applyNumbered handles the "<n> SP word ..." shapes: EXISTS, RECENT,
// EXPUNGE, FETCH, STORE.
func (s *Session) applyNumbered(ctx Context, n int) error {
	if err := s.parser.ExpectSpace(); err != nil {
		return wrapWireErr("", err)
	}
	word, err := s.parser.ExpectString()
	if err != nil {
		return wrapWireErr("", err)
	}

	switch strings.ToUpper(word) {
	case "EXISTS":
		if ctx == ContextSelect {
			s.cache.Reset()
		}
		s.cache.Resize(n)
		return wrapWireErr("", s.parser.SkipLine())
	case "RECENT":
		s.cache.SetRecent(n)
		return wrapWireErr("", s.parser.SkipLine())
	case "EXPUNGE":
		s.cache.Remove(n)
		return wrapWireErr("", s.parser.SkipLine())
	case "FETCH":
		if err := s.parser.ExpectSpace(); err != nil {
			return wrapWireErr("", err)
		}
		items, err := s.parser.ExpectList()
		if err != nil {
			return wrapWireErr("", err)
		}
		if err := s.mergeFetch(n, items); err != nil {
			return err
		}
		return wrapWireErr("", s.parser.SkipLine())
	case "STORE":
		if err := s.parser.ExpectSpace(); err != nil {
			return wrapWireErr("", err)
		}
		items, err := s.parser.ExpectList()
		if err != nil {
			return wrapWireErr("", err)
		}
		if err := s.mergeStore(n, items); err != nil {
			return err
		}
		return wrapWireErr("", s.parser.SkipLine())
	default:
		return wrapWireErr("", s.parser.SkipLine())
	}
}

// applyList handles `"LIST" SP <attrs> SP <delim> SP <name> CRLF`,
// rendering <name> only when the caller is in LIST context.
func (s *Session) applyList(ctx Context) error {
	if err := s.parser.ExpectSpace(); err != nil {
		return wrapWireErr("", err)
	}
	if _, err := s.parser.ExpectList(); err != nil { // attrs
		return wrapWireErr("", err)
	}
	if err := s.parser.ExpectSpace(); err != nil {
		return wrapWireErr("", err)
	}
	if _, err := s.parser.Parse(); err != nil { // delimiter, Str or Nil
		return wrapWireErr("", err)
	}
	if err := s.parser.ExpectSpace(); err != nil {
		return wrapWireErr("", err)
	}
	name, err := s.parser.ExpectString()
	if err != nil {
		return wrapWireErr("", err)
	}
	if ctx == ContextList {
		fmt.Fprintln(s.listOut, name)
	}
	return wrapWireErr("", s.parser.SkipLine())
}

// mergeFetch applies a FETCH field list to slot n (1-based), creating
// the record if absent and updating it in place via GetOrCreate. Fields
// the response carries overwrite the cached ones (FLAGS replaces the
// whole bitset); fields it omits are kept. An out-of-range n or a field whose
// value has the wrong tag surfaces Malformed rather than being silently
// ignored.
func (s *Session) mergeFetch(n int, items []*wire.Object) error {
	msg := s.cache.GetOrCreate(n)
	if msg == nil {
		return malformed("", "FETCH response for out-of-range message %d", n)
	}
	return applyFetchFields(s, msg, items)
}

// mergeStore applies a STORE field list (the server's authoritative
// confirmation of the flags it just changed) to slot n. The field merge
// is the same as FETCH's, but instead of mutating the cached record in
// place, the fields are merged into a private copy of whatever was
// cached before, and the slot is then replaced by that copy with Insert. This is the
// commit step Insert exists for — the untagged FETCH/STORE table entry
// covers both, but STORE's "this is now the record" semantics fit
// overwrite rather than in-place mutation.
func (s *Session) mergeStore(n int, items []*wire.Object) error {
	if n < 1 || n > s.cache.Size() {
		return malformed("", "STORE response for out-of-range message %d", n)
	}
	var msg cache.Message
	if existing := s.cache.Get(n); existing != nil {
		msg = *existing
	}
	if err := applyFetchFields(s, &msg, items); err != nil {
		return err
	}
	s.cache.Insert(n, &msg)
	return nil
}

// applyFetchFields merges a FETCH/STORE key/value list into msg. Keys
// are uppercased before compare.
func applyFetchFields(s *Session, msg *cache.Message, items []*wire.Object) error {
	if len(items)%2 != 0 {
		return malformed("", "FETCH/STORE field list has odd length %d", len(items))
	}

	for i := 0; i+1 < len(items); i += 2 {
		key, ok := items[i].AsStr()
		if !ok {
			return malformed("", "FETCH/STORE key must be an atom, got %s", items[i])
		}
		val := items[i+1]

		switch strings.ToUpper(key) {
		case "RFC822.TEXT":
			text, ok := val.AsStr()
			if !ok {
				return malformed("", "RFC822.TEXT value must be text, got %s", val)
			}
			msg.BodyText = s.decodeWord(text)
			msg.HasBody = true

		case "FLAGS":
			if err := mergeFlags(msg, val); err != nil {
				return err
			}

		case "INTERNALDATE":
			date, ok := val.AsStr()
			if !ok {
				return malformed("", "INTERNALDATE value must be text, got %s", val)
			}
			msg.InternalDate = date
			msg.HasDate = true

		case "RFC822.SIZE":
			sizeStr, ok := val.AsStr()
			if !ok {
				return malformed("", "RFC822.SIZE value must be text, got %s", val)
			}
			size, ok := parseDecimal(sizeStr)
			if !ok {
				return malformed("", "RFC822.SIZE value %q is not decimal", sizeStr)
			}
			msg.SizeOctets = uint32(size)
			msg.HasSize = true

		case "ENVELOPE":
			if err := s.mergeEnvelope(msg, val); err != nil {
				return err
			}

		default:
			// Fields this client doesn't consume (UID, BODYSTRUCTURE, …)
			// are ignored rather than rejected.
		}
	}
	return nil
}

// mergeFlags parses a FLAGS value into msg.Flags. The bitset is cleared
// first, then every recognized backslash-prefixed atom in the list is
// OR'd in, so the value replaces the previous flags; Nil leaves it zero.
func mergeFlags(msg *cache.Message, val *wire.Object) error {
	msg.Flags = 0
	if val.IsNil() {
		return nil
	}
	flags, ok := val.AsList()
	if !ok {
		return malformed("", "FLAGS value must be a list or NIL, got %s", val)
	}
	for _, f := range flags {
		atom, ok := f.AsStr()
		if !ok {
			return malformed("", "flag must be an atom, got %s", f)
		}
		if bit, known := imap.ParseFlag(strings.ToUpper(atom)); known {
			msg.Flags |= bit
		}
	}
	return nil
}

// mergeEnvelope parses the envelope 10-tuple, consuming only the fields
// this client uses: subject (index 1), from (2), to (5), cc (6).
func (s *Session) mergeEnvelope(msg *cache.Message, val *wire.Object) error {
	items, ok := val.AsList()
	if !ok {
		return malformed("", "ENVELOPE value must be a list, got %s", val)
	}
	if len(items) != 10 {
		return malformed("", "ENVELOPE must have 10 fields, got %d", len(items))
	}

	if !items[1].IsNil() {
		subj, ok := items[1].AsStr()
		if !ok {
			return malformed("", "ENVELOPE subject must be text, got %s", items[1])
		}
		msg.Subject = s.decodeWord(subj)
		msg.HasSubject = true
	}

	from, err := address.Decode(items[2], s.decodeWord)
	if err != nil {
		return malformed("", "ENVELOPE from: %v", err)
	}
	msg.From = from

	to, err := address.Decode(items[5], s.decodeWord)
	if err != nil {
		return malformed("", "ENVELOPE to: %v", err)
	}
	msg.To = to

	cc, err := address.Decode(items[6], s.decodeWord)
	if err != nil {
		return malformed("", "ENVELOPE cc: %v", err)
	}
	msg.Cc = cc

	return nil
}

// parseDecimal parses an unsigned decimal atom. An empty string or any
// non-digit byte fails, rather than silently truncating.
func parseDecimal(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
