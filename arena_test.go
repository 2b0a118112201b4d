package pvm

import (
	"testing"
)

func TestArenaAlloc(t *testing.T) {
	t.Run("allocates until exhausted", func(t *testing.T) {
		a := NewArena(64)

		first := a.Alloc(40)
		if len(first) != 40 {
			t.Fatalf("Expected 40 bytes, got %d", len(first))
		}
		if a.Used() != 40 {
			t.Errorf("Expected 40 bytes used, got %d", a.Used())
		}
		if a.Alloc(30) != nil {
			t.Error("Expected nil when the arena is exhausted")
		}
		if got := a.Alloc(24); len(got) != 24 {
			t.Errorf("Expected exact fit to succeed, got %d bytes", len(got))
		}
	})

	t.Run("allocations are zeroed after reset", func(t *testing.T) {
		a := NewArena(16)
		b := a.Alloc(16)
		for i := range b {
			b[i] = 0xff
		}

		a.Reset()
		if a.Used() != 0 {
			t.Errorf("Expected 0 bytes used after reset, got %d", a.Used())
		}
		for i, v := range a.Alloc(16) {
			if v != 0 {
				t.Fatalf("Expected zero byte at %d, got %#x", i, v)
			}
		}
	})

	t.Run("allocations do not overlap", func(t *testing.T) {
		a := NewArena(8)
		x := a.Alloc(4)
		y := a.Alloc(4)
		x = append(x, 0xaa)
		if y[0] == 0xaa {
			t.Error("Appending to one allocation must not spill into the next")
		}
	})

	t.Run("negative size", func(t *testing.T) {
		if NewArena(8).Alloc(-1) != nil {
			t.Error("Expected nil for a negative size")
		}
	})

	t.Run("default capacity", func(t *testing.T) {
		if got := NewArena(DefaultArenaSize).Cap(); got != 32*1024 {
			t.Errorf("Expected 32 KiB, got %d", got)
		}
	})
}

func TestArenaAllocAligned(t *testing.T) {
	a := NewArena(64)
	a.Alloc(3)

	b := a.AllocAligned(8, 8)
	if b == nil {
		t.Fatal("Expected allocation")
	}
	if a.Used() != 16 {
		t.Errorf("Expected aligned allocation to end at 16, got %d", a.Used())
	}

	tests := []struct {
		name  string
		align int
	}{
		{"zero", 0},
		{"negative", -4},
		{"not a power of two", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if a.AllocAligned(4, tt.align) != nil {
				t.Errorf("Expected nil for alignment %d", tt.align)
			}
		})
	}

	t.Run("padding counts toward exhaustion", func(t *testing.T) {
		a := NewArena(16)
		a.Alloc(1)
		if a.AllocAligned(16, 16) != nil {
			t.Error("Expected nil when padding pushes the allocation past the end")
		}
	})
}

func TestArenaShrink(t *testing.T) {
	t.Run("returns the tail of the latest allocation", func(t *testing.T) {
		a := NewArena(32)
		b := a.Alloc(16)
		kept := a.Shrink(b, 4)

		if len(kept) != 4 {
			t.Errorf("Expected 4 bytes kept, got %d", len(kept))
		}
		if a.Used() != 4 {
			t.Errorf("Expected 4 bytes used, got %d", a.Used())
		}
	})

	t.Run("older allocations are only truncated", func(t *testing.T) {
		a := NewArena(32)
		b := a.Alloc(8)
		a.Alloc(8)
		kept := a.Shrink(b, 2)

		if len(kept) != 2 {
			t.Errorf("Expected 2 bytes kept, got %d", len(kept))
		}
		if a.Used() != 16 {
			t.Errorf("Expected 16 bytes used, got %d", a.Used())
		}
	})

	t.Run("out of range keep is ignored", func(t *testing.T) {
		a := NewArena(32)
		b := a.Alloc(8)
		if got := a.Shrink(b, 9); len(got) != 8 {
			t.Errorf("Expected slice unchanged, got %d bytes", len(got))
		}
	})
}
