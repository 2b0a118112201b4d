package pvm

// Arena sizing defaults.
const (
	// DefaultArenaSize is the capacity of an arena created without options.
	DefaultArenaSize = 32 * 1024

	// MaxValueSize is the largest storage value a single read can return.
	MaxValueSize = 16 * 1024

	// MaxOutputSize is the largest cross-contract call output accepted.
	MaxOutputSize = 16 * 1024
)

// Arena is a bump allocator owned by exactly one invocation.
// Allocations are never freed individually; Reset reclaims everything.
// An Arena is not safe for concurrent use.
type Arena struct {
	buf    []byte
	offset int
	last   int // start of the most recent allocation
}

// NewArena creates an arena with the given capacity in bytes.
func NewArena(size int) *Arena {
	if size < 0 {
		size = 0
	}
	return &Arena{buf: make([]byte, size)}
}

// Alloc returns a zeroed slice of size bytes, or nil when the arena is
// exhausted.
func (a *Arena) Alloc(size int) []byte {
	return a.AllocAligned(size, 1)
}

// AllocAligned returns a zeroed slice of size bytes whose offset in the
// arena is a multiple of align (a power of two). It returns nil when the
// arena is exhausted or the request is invalid.
func (a *Arena) AllocAligned(size, align int) []byte {
	if size < 0 || align <= 0 || align&(align-1) != 0 {
		return nil
	}

	aligned := (a.offset + align - 1) &^ (align - 1)
	end := aligned + size
	if end > len(a.buf) || end < aligned {
		return nil
	}

	a.offset = end
	a.last = aligned
	out := a.buf[aligned:end:end]
	clear(out)
	return out
}

// Shrink returns the tail of b beyond keep bytes to the arena when b is the
// most recent allocation, and returns b[:keep]. Older allocations are only
// truncated.
func (a *Arena) Shrink(b []byte, keep int) []byte {
	if keep < 0 || keep > len(b) {
		return b
	}
	if len(b) > 0 && a.last+len(b) == a.offset && &a.buf[a.last] == &b[0] {
		a.offset = a.last + keep
	}
	return b[:keep:keep]
}

// Reset reclaims every allocation. Slices handed out earlier must not be
// used afterwards.
func (a *Arena) Reset() {
	a.offset = 0
	a.last = 0
}

// Used returns the number of bytes currently allocated, including padding.
func (a *Arena) Used() int {
	return a.offset
}

// Cap returns the arena capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.buf)
}
