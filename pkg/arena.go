package teeny

import "unsafe"

// Arena is a monotonic bump allocator used to own the text backing a
// [TokenStream]'s tokens and the name table's interned literal keys.
//
// It pre-allocates a slab and hands out byte slices from it, so a full lex
// pass of a Tiny BASIC source file produces a small, bounded number of heap
// allocations instead of one per identifier or string literal.
//
// When the current slab is exhausted, a new (larger) slab is allocated. All
// slabs are released together when the arena is dropped; individual strings
// are never freed.
type Arena struct {
	slabs [][]byte
	cur   []byte
	off   int
}

const (
	arenaInitialSlabSize = 4 * 1024
	arenaGrowFactor      = 2
)

// NewArena creates an empty arena with its first slab allocated lazily.
func NewArena() *Arena {
	return &Arena{}
}

// alloc returns n fresh bytes from the arena, growing it if necessary.
func (a *Arena) alloc(n int) []byte {
	if a.cur == nil {
		size := arenaInitialSlabSize
		if n > size {
			size = n
		}
		a.cur = make([]byte, size)
		a.slabs = append(a.slabs, a.cur)
		a.off = 0
	}

	if a.off+n > len(a.cur) {
		size := len(a.cur) * arenaGrowFactor
		if size < n {
			size = n + arenaInitialSlabSize
		}
		a.cur = make([]byte, size)
		a.slabs = append(a.slabs, a.cur)
		a.off = 0
	}

	out := a.cur[a.off : a.off+n]
	a.off += n
	return out
}

// Intern copies s into the arena and returns a string backed by that copy.
// Payload strings for tokens are owned by the arena for its lifetime, per
// the token stream's ownership contract.
func (a *Arena) Intern(s string) string {
	if s == "" {
		return ""
	}

	buf := a.alloc(len(s))
	copy(buf, s)
	// Arena bytes are never written again once handed out, so the string
	// can alias them instead of being copied a second time.
	return unsafe.String(&buf[0], len(buf))
}
