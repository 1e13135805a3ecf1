package session

// tagGenerator produces the 4-character command tags: one uppercase
// letter followed by three zero-padded decimal digits, incrementing
// A000, A001, …, Z999, then wrapping back to A000. The original's
// global generator state is a protocol artifact, not a reason to use a
// package-level variable; it lives on the Session instead.
type tagGenerator struct {
	letter byte
	num    int
}

func newTagGenerator() *tagGenerator {
	return &tagGenerator{letter: 'A'}
}

// Next returns the next tag and advances the counter.
func (g *tagGenerator) Next() string {
	tag := []byte{g.letter, '0' + byte(g.num/100), '0' + byte((g.num/10)%10), '0' + byte(g.num%10)}
	g.num++
	if g.num > 999 {
		g.num = 0
		if g.letter == 'Z' {
			g.letter = 'A'
		} else {
			g.letter++
		}
	}
	return string(tag)
}
