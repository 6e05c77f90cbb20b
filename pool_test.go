package vpxenc

import (
	"errors"
	"testing"
)

func TestLinearPool(t *testing.T) {
	p := NewLinearPool(1024)

	b, err := p.FetchLinearBlock(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 100 {
		t.Errorf("len = %d, want 100", len(b))
	}
	p.Put(b)

	b, err = p.FetchLinearBlock(50)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 50 {
		t.Errorf("len = %d, want 50", len(b))
	}

	if _, err := p.FetchLinearBlock(2048); !errors.Is(err, ErrAllocation) {
		t.Errorf("oversized block: %v", err)
	}
	if _, err := p.FetchLinearBlock(-1); !errors.Is(err, ErrAllocation) {
		t.Errorf("negative size: %v", err)
	}
	if b, err := p.FetchLinearBlock(0); err != nil || len(b) != 0 {
		t.Errorf("empty block: %v", err)
	}
}

func TestLinearPool_DefaultMax(t *testing.T) {
	p := NewLinearPool(0)
	if _, err := p.FetchLinearBlock(DefaultMaxBlockSize); err != nil {
		t.Errorf("max block: %v", err)
	}
	if _, err := p.FetchLinearBlock(DefaultMaxBlockSize + 1); !errors.Is(err, ErrAllocation) {
		t.Errorf("over max: %v", err)
	}
}

func TestLinearPool_SmallBlockKept(t *testing.T) {
	p := NewLinearPool(1024)
	p.Put(make([]byte, 16))

	big, err := p.FetchLinearBlock(512)
	if err != nil {
		t.Fatal(err)
	}
	if len(big) != 512 {
		t.Fatalf("len = %d, want 512", len(big))
	}

	// sync.Pool may drop entries at any time, so only sizes are checked
	for _, size := range []int{16, 8, 512} {
		b, err := p.FetchLinearBlock(size)
		if err != nil {
			t.Fatal(err)
		}
		if len(b) != size || cap(b) < size {
			t.Errorf("block len %d cap %d, want %d", len(b), cap(b), size)
		}
		p.Put(b)
	}
}
