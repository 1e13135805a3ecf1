package session

import "testing"

func TestTagGeneratorStartsAtA000(t *testing.T) {
	g := newTagGenerator()
	if got := g.Next(); got != "A000" {
		t.Fatalf("got %q, want A000", got)
	}
	if got := g.Next(); got != "A001" {
		t.Fatalf("got %q, want A001", got)
	}
}

func TestTagGeneratorRollsLetterAt999(t *testing.T) {
	g := &tagGenerator{letter: 'A', num: 999}
	if got := g.Next(); got != "A999" {
		t.Fatalf("got %q, want A999", got)
	}
	if got := g.Next(); got != "B000" {
		t.Fatalf("got %q, want B000", got)
	}
}

func TestTagGeneratorWrapsAfterZ999(t *testing.T) {
	g := &tagGenerator{letter: 'Z', num: 999}
	if got := g.Next(); got != "Z999" {
		t.Fatalf("got %q, want Z999", got)
	}
	if got := g.Next(); got != "A000" {
		t.Fatalf("got %q, want A000 after wraparound", got)
	}
}

func TestTagGeneratorUniqueAcrossFullSession(t *testing.T) {
	g := newTagGenerator()
	seen := make(map[string]bool, 26000)
	for i := 0; i < 26000; i++ {
		tag := g.Next()
		if seen[tag] {
			t.Fatalf("tag %q repeated at iteration %d", tag, i)
		}
		seen[tag] = true
	}
}
