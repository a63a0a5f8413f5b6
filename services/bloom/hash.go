package bloom

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// indexes returns the k probe positions for item using double hashing:
// index_i = (a + i*b) mod m, with a from xxhash and b from murmur3.
func indexes(item string, shape Shape) []uint64 {
	m := shape.BitSize
	a := xxhash.Sum64String(item) % m
	b := murmur3.Sum64([]byte(item)) % m
	if b == 0 {
		// a zero stride would probe the same bit k times
		b = 1
	}

	out := make([]uint64, shape.HashCount)
	for i := range out {
		out[i] = (a + uint64(i)*b) % m
	}
	return out
}
