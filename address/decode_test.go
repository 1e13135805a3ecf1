package address

import (
	"strings"
	"testing"

	"github.com/netmute/imapterm/wire"
)

func tuple(personal, route, mailbox, host *wire.Object) *wire.Object {
	return wire.List([]*wire.Object{personal, route, mailbox, host})
}

func TestDecodeNilYieldsEmpty(t *testing.T) {
	addrs, err := Decode(wire.Nil(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) != 0 {
		t.Fatalf("got %v, want empty", addrs)
	}
}

func TestDecodeOrdinaryAddress(t *testing.T) {
	list := wire.List([]*wire.Object{
		tuple(wire.Str("Alice"), wire.Nil(), wire.Str("alice"), wire.Str("example.com")),
	})
	addrs, err := Decode(list, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) != 1 {
		t.Fatalf("got %d addresses, want 1", len(addrs))
	}
	a := addrs[0]
	if a.PersonalName != "Alice" || a.MailboxName != "alice" || a.HostName != "example.com" {
		t.Fatalf("got %+v", a)
	}
}

func TestDecodePreservesWireOrder(t *testing.T) {
	list := wire.List([]*wire.Object{
		tuple(wire.Nil(), wire.Nil(), wire.Str("first"), wire.Str("example.com")),
		tuple(wire.Nil(), wire.Nil(), wire.Str("second"), wire.Str("example.com")),
	})
	addrs, err := Decode(list, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) != 2 || addrs[0].MailboxName != "first" || addrs[1].MailboxName != "second" {
		t.Fatalf("got %+v", addrs)
	}
}

func TestDecodeAppliesMimeDecoder(t *testing.T) {
	list := wire.List([]*wire.Object{
		tuple(wire.Str("=?utf-8?B?"), wire.Nil(), wire.Str("bob"), wire.Str("example.com")),
	})
	addrs, err := Decode(list, strings.ToUpper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addrs[0].PersonalName != "=?UTF-8?B?" {
		t.Fatalf("got %q", addrs[0].PersonalName)
	}
}

func TestDecodeRejectsWrongArity(t *testing.T) {
	list := wire.List([]*wire.Object{
		wire.List([]*wire.Object{wire.Nil(), wire.Nil(), wire.Str("x")}),
	})
	if _, err := Decode(list, nil); err == nil {
		t.Fatal("expected an error for a 3-element tuple")
	}
}

func TestDecodeRequiresMailboxAndHost(t *testing.T) {
	list := wire.List([]*wire.Object{
		tuple(wire.Nil(), wire.Nil(), wire.Nil(), wire.Str("example.com")),
	})
	if _, err := Decode(list, nil); err == nil {
		t.Fatal("expected an error for a missing mailbox name")
	}
}
