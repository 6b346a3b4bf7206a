package ldclump

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Variant is one association result taking part in clumping.
type Variant struct {
	ID         string
	Chromosome int
	Position   uint32
	Ref        Allele
	Alt        Allele
	P          float64
	Stat       float64 // Effect size; log(OR) when the base file reports odds ratios
	Category   int

	// Provenance in the reference panel
	SourceFile  string
	SourceIndex int

	// Clumped is set once a more significant index variant absorbs this one.
	Clumped bool

	// Absorbed holds the stream indices of the variants found in LD with
	// this one while it was the core.
	Absorbed *roaring.Bitmap
	r2       map[uint32]float64
}

func (v *Variant) absorb(streamIdx int, r2 float64) {
	if v.Absorbed == nil {
		v.Absorbed = roaring.New()
		v.r2 = make(map[uint32]float64)
	}
	v.Absorbed.Add(uint32(streamIdx))
	v.r2[uint32(streamIdx)] = r2
}

// R2With returns the r^2 at which v absorbed the variant at streamIdx.
func (v *Variant) R2With(streamIdx int) (float64, bool) {
	r2, ok := v.r2[uint32(streamIdx)]
	return r2, ok
}

// NAbsorbed is the size of the absorbed set.
func (v *Variant) NAbsorbed() int {
	if v.Absorbed == nil {
		return 0
	}
	return int(v.Absorbed.GetCardinality())
}
