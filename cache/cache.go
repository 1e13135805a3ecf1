// Package cache implements the sparse, index-addressed message cache.
// It is the single mutable piece of session state the untagged
// interpreter writes to; apart from the dispatcher's SyncPrevSize calls,
// everything else in this module only reads it.
package cache

import imap "github.com/netmute/imapterm"

// Message is a message record. A record may exist with only some fields
// populated — a FETCH may deliver envelope-only data, leaving BodyText
// unset until the display layer asks for it.
type Message struct {
	InternalDate string
	HasDate      bool

	SizeOctets uint32
	HasSize    bool

	Flags imap.Flag

	Subject string
	HasSubject bool

	From []imap.Address
	To   []imap.Address
	Cc   []imap.Address

	BodyText string
	HasBody  bool
}

// Cache is the sparse, 1-indexed-externally message vector. The zero
// value is ready to use.
type Cache struct {
	slots []*Message

	// size is the current length; prevSize is the length as of the last
	// sync point (SELECT's bulk FETCH, or the previous command's
	// gap-closing FETCH). size > prevSize signals unfetched slots.
	size     int
	prevSize int

	recent int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// Size returns the current number of slots.
func (c *Cache) Size() int { return c.size }

// PrevSize returns the size as of the last sync point.
func (c *Cache) PrevSize() int { return c.prevSize }

// HasGap reports whether slots beyond PrevSize still need fetching.
func (c *Cache) HasGap() bool { return c.size > c.prevSize }

// SyncPrevSize sets prevSize to size, closing any pending gap. Callers use
// this after issuing the FETCH that fills the gap.
func (c *Cache) SyncPrevSize() { c.prevSize = c.size }

// Recent returns the RECENT count last reported by the server.
func (c *Cache) Recent() int { return c.recent }

// SetRecent implements the "* <n> RECENT" untagged effect.
func (c *Cache) SetRecent(n int) { c.recent = n }

// Resize implements the resize contract:
//
//   - newSize == size: no-op.
//   - newSize == 0: drop everything, zero size and prevSize.
//   - newSize > size: extend with absent slots; prevSize is left alone so
//     the gap is visible.
//   - newSize < size: truncate from the high end (reset paths only; not
//     normally driven by EXISTS).
func (c *Cache) Resize(newSize int) {
	switch {
	case newSize == c.size:
		return
	case newSize == 0:
		c.slots = nil
		c.size = 0
		c.prevSize = 0
	case newSize > c.size:
		grown := make([]*Message, newSize)
		copy(grown, c.slots)
		c.slots = grown
		c.size = newSize
	default:
		c.slots = c.slots[:newSize]
		c.size = newSize
		if c.prevSize > newSize {
			c.prevSize = newSize
		}
	}
}

// Insert overwrites slot pos (1-based). Out-of-range or an uninitialized
// cache is a silent no-op: idempotent on the degenerate case, unlike the
// original C which masked the same situation by reporting success; here
// there is simply nothing to report, because nothing happened.
func (c *Cache) Insert(pos int, rec *Message) {
	if pos < 1 || pos > c.size {
		return
	}
	c.slots[pos-1] = rec
}

// Get returns the record at pos (1-based), or nil if the slot is absent
// or out of range.
func (c *Cache) Get(pos int) *Message {
	if pos < 1 || pos > c.size {
		return nil
	}
	return c.slots[pos-1]
}

// GetOrCreate returns the record at pos, creating an empty one if absent.
// Out-of-range positions return nil — callers (the untagged interpreter)
// treat that as a malformed-response condition: the failure is surfaced
// instead of masked.
func (c *Cache) GetOrCreate(pos int) *Message {
	if pos < 1 || pos > c.size {
		return nil
	}
	if c.slots[pos-1] == nil {
		c.slots[pos-1] = &Message{}
	}
	return c.slots[pos-1]
}

// Remove implements the EXPUNGE contract: free pos, shift every higher
// slot down by one, decrement size, and set prevSize := size since a
// shrink is not "new data to fetch".
func (c *Cache) Remove(pos int) {
	if pos < 1 || pos > c.size {
		return
	}
	idx := pos - 1
	c.slots = append(c.slots[:idx], c.slots[idx+1:]...)
	c.size--
	c.prevSize = c.size
}

// Reset drops all slots and zeroes size, prevSize, and recent. Called
// from SELECT.
func (c *Cache) Reset() {
	c.slots = nil
	c.size = 0
	c.prevSize = 0
	c.recent = 0
}
