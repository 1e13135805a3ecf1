// Package address implements the address decoder: turning a
// parenthesized address tuple list into an ordered sequence of
// imap.Address records.
package address

import (
	"fmt"

	imap "github.com/netmute/imapterm"
	"github.com/netmute/imapterm/wire"
)

// Decode converts a List object whose elements are 4-tuples
// (personal-name, source-route, mailbox-name, host-name) into an ordered
// sequence of addresses. A Nil input yields an empty (not an error)
// sequence. decodeWord MIME-decodes a single field; pass
// mimeword.Decode, or any compatible function, including nil to skip
// decoding in tests.
//
// The original C client built this list by prepending, so printing
// walked the reverse of wire order; this implementation keeps a plain
// growable sequence in wire order instead, since nothing observable
// depends on the reversed order (see DESIGN.md).
func Decode(list *wire.Object, decodeWord func(string) string) ([]imap.Address, error) {
	if decodeWord == nil {
		decodeWord = func(s string) string { return s }
	}
	if list.IsNil() {
		return nil, nil
	}
	tuples, ok := list.AsList()
	if !ok {
		return nil, fmt.Errorf("imap: address list must be a List or Nil, got %s", list)
	}

	addrs := make([]imap.Address, 0, len(tuples))
	for _, tuple := range tuples {
		addr, err := decodeOne(tuple, decodeWord)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func decodeOne(tuple *wire.Object, decodeWord func(string) string) (imap.Address, error) {
	fields, ok := tuple.AsList()
	if !ok {
		return imap.Address{}, fmt.Errorf("imap: address tuple must be a list, got %s", tuple)
	}
	if len(fields) != 4 {
		return imap.Address{}, fmt.Errorf("imap: address tuple needs 4 fields, got %d", len(fields))
	}

	personal, _ := fields[0].AsStr()
	// fields[1] is the source route; it is parsed but discarded.
	mailbox, mailboxOK := fields[2].AsStr()
	host, hostOK := fields[3].AsStr()
	if !mailboxOK || !hostOK {
		return imap.Address{}, fmt.Errorf("imap: address tuple missing mailbox or host name")
	}

	return imap.Address{
		PersonalName: decodeWord(personal),
		MailboxName:  mailbox,
		HostName:     host,
	}, nil
}
