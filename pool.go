package vpxenc

import (
	"fmt"
	"sync"
)

// BlockPool hands out output buffers for encoded packets.
// Ownership of a fetched block passes to the caller.
type BlockPool interface {
	FetchLinearBlock(size int) ([]byte, error)
}

// DefaultMaxBlockSize caps a single output block at 16 MiB.
const DefaultMaxBlockSize = 16 << 20

// LinearPool is a sync.Pool backed BlockPool.
// Blocks handed back with Put are reused for later fetches of up to the same size.
type LinearPool struct {
	pool    sync.Pool
	maxSize int
}

// NewLinearPool creates a pool that refuses blocks larger than maxSize.
// maxSize <= 0 selects DefaultMaxBlockSize.
func NewLinearPool(maxSize int) *LinearPool {
	if maxSize <= 0 {
		maxSize = DefaultMaxBlockSize
	}
	return &LinearPool{maxSize: maxSize}
}

// FetchLinearBlock returns a block of exactly size bytes.
func (p *LinearPool) FetchLinearBlock(size int) ([]byte, error) {
	if size < 0 || size > p.maxSize {
		return nil, fmt.Errorf("%w: block of %d bytes exceeds %d", ErrAllocation, size, p.maxSize)
	}
	if v := p.pool.Get(); v != nil {
		bp := v.(*[]byte)
		if cap(*bp) >= size {
			return (*bp)[:size], nil
		}
		// too small for this packet, keep it for a smaller one
		p.pool.Put(bp)
	}
	return make([]byte, size), nil
}

// Put returns a block to the pool once the caller is done with it.
func (p *LinearPool) Put(buf []byte) {
	if cap(buf) == 0 || cap(buf) > p.maxSize {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}

var _ BlockPool = (*LinearPool)(nil)
