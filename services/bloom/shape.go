package bloom

import (
	"fmt"
	"math"

	"socialfeed/utils"
)

const (
	minBitSize = 8
	// Redis bitmaps are capped at 512MB, i.e. 2^32 addressable bits.
	maxBitSize = uint64(1) << 32
)

// Options describe the load a filter is sized for.
type Options struct {
	ExpectedItems     int
	FalsePositiveRate float64
}

// Shape is the bit-array size and probe count derived from Options.
type Shape struct {
	BitSize   uint64
	HashCount int
}

// ComputeShape sizes a filter with the standard formulas
// m = ceil(-n*ln(p) / ln(2)^2) and k = round(m/n * ln(2)).
func ComputeShape(opts Options) (Shape, error) {
	if opts.ExpectedItems <= 0 {
		return Shape{}, utils.NewValidationError("bloom.ComputeShape",
			fmt.Sprintf("expectedItems must be > 0, got %d", opts.ExpectedItems))
	}
	p := opts.FalsePositiveRate
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return Shape{}, utils.NewValidationError("bloom.ComputeShape",
			fmt.Sprintf("falsePositiveRate must be in (0,1), got %v", p))
	}

	n := float64(opts.ExpectedItems)
	m := math.Ceil(-n * math.Log(p) / (math.Ln2 * math.Ln2))
	if m < minBitSize {
		m = minBitSize
	}
	if m > float64(maxBitSize) {
		return Shape{}, utils.NewValidationError("bloom.ComputeShape",
			fmt.Sprintf("filter needs %.0f bits, above the %d bit limit", m, maxBitSize))
	}

	k := int(math.Round(m / n * math.Ln2))
	if k < 1 {
		k = 1
	}
	return Shape{BitSize: uint64(m), HashCount: k}, nil
}
