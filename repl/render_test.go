package repl

import (
	"strings"
	"testing"

	imap "github.com/netmute/imapterm"
	"github.com/netmute/imapterm/cache"
)

func TestPageClampsToCacheSize(t *testing.T) {
	c := cache.New()
	c.Resize(5)
	lines := Page(c, 1)
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
}

func TestPageBeyondSizeIsEmpty(t *testing.T) {
	c := cache.New()
	c.Resize(5)
	if lines := Page(c, 2); lines != nil {
		t.Fatalf("got %v, want nil", lines)
	}
}

func TestPageShowsUnfetchedPlaceholder(t *testing.T) {
	c := cache.New()
	c.Resize(1)
	lines := Page(c, 1)
	if !strings.Contains(lines[0], "not fetched") {
		t.Fatalf("got %q", lines[0])
	}
}

func TestPageMarksDeletedAndUnseen(t *testing.T) {
	c := cache.New()
	c.Resize(2)
	c.GetOrCreate(1).Flags = imap.FlagDeleted
	c.GetOrCreate(2).Flags = imap.FlagSeen
	lines := Page(c, 1)
	if !strings.Contains(lines[0], "[D]") {
		t.Fatalf("got %q, want deleted marker", lines[0])
	}
	if strings.Contains(lines[1], "[N]") {
		t.Fatalf("got %q, seen message should not be marked new", lines[1])
	}
}

func TestRenderBodyStates(t *testing.T) {
	if got := RenderBody(nil); got != "(no such message)" {
		t.Fatalf("got %q", got)
	}
	if got := RenderBody(&cache.Message{}); got != "(body not fetched)" {
		t.Fatalf("got %q", got)
	}
	msg := &cache.Message{HasBody: true, BodyText: "hi"}
	if got := RenderBody(msg); got != "hi" {
		t.Fatalf("got %q", got)
	}
}

func TestStatsReportsGapAsUnfetched(t *testing.T) {
	c := cache.New()
	c.Resize(3)
	c.SyncPrevSize()
	c.Resize(5)
	if got := Stats(c); got != "5 messages, 0 recent, 2 unfetched" {
		t.Fatalf("got %q", got)
	}
}
