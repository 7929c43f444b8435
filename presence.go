package eachrow

import "math/bits"

// PresenceFlag describes how a column of a decoded row got its value.
type PresenceFlag uint8

const (
	PresenceSeen           PresenceFlag = 1 << iota // Field appeared in the input.
	PresenceDefaultApplied                          // Default value was applied.
)

// Presence records, per schema column, whether a decoded row set the column.
type Presence struct {
	words []uint64
	n     int
}

func (p *Presence) reset(n int) {
	w := (n + 63) / 64
	if cap(p.words) < w {
		p.words = make([]uint64, w)
	} else {
		p.words = p.words[:w]
		clear(p.words)
	}
	p.n = n
}

func (p *Presence) set(i int) { p.words[i>>6] |= 1 << (uint(i) & 63) }

// Len returns the number of columns tracked.
func (p Presence) Len() int { return p.n }

// Seen reports whether column i appeared in the input.
func (p Presence) Seen(i int) bool {
	if i < 0 || i >= p.n {
		return false
	}
	return p.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// Flags returns the PresenceFlag of column i.
func (p Presence) Flags(i int) PresenceFlag {
	switch {
	case i < 0 || i >= p.n:
		return 0
	case p.Seen(i):
		return PresenceSeen
	default:
		return PresenceDefaultApplied
	}
}

// Count returns the number of columns that appeared in the input.
func (p Presence) Count() int {
	n := 0
	for _, w := range p.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clone returns a copy that does not share storage with p.
func (p Presence) Clone() Presence {
	return Presence{words: append([]uint64(nil), p.words...), n: p.n}
}
