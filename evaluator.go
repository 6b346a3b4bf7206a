package ldclump

import (
	"golang.org/x/sync/errgroup"
)

// hit is a variant found in LD with the core.
type hit struct {
	variant int
	r2      float64
}

// lessSignificant reports whether other ranks after core: a larger p-value,
// or the same p-value further along the chromosome.
func lessSignificant(core, other *Variant) bool {
	return other.P > core.P || (other.P == core.P && other.Position > core.Position)
}

// partition splits n items into parts contiguous ranges whose sizes differ by
// at most one. It returns parts+1 boundaries.
func partition(n, parts int) []int {
	bounds := make([]int, parts+1)
	size, rem := n/parts, n%parts
	for i := 0; i < parts; i++ {
		bounds[i+1] = bounds[i] + size
		if i < rem {
			bounds[i+1]++
		}
	}
	return bounds
}

type evaluator struct {
	variants    []*Variant
	r2Threshold float64
	maxDistance uint64
	threads     int
}

// evaluate compares the core slot against every other slot of the window
// and returns the less significant variants with r^2 at or above the
// threshold, in window order. Workers only read the window; each writes its
// own result slice, and all are joined before the results are merged.
func (e *evaluator) evaluate(w *window, core int) []hit {
	n := w.Len()
	if n <= 1 {
		return nil
	}

	others := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != core {
			others = append(others, i)
		}
	}

	coreSlot := w.At(core)
	coreTot := coreSlot.planes.Totals()

	workers := e.threads
	if workers > len(others) {
		workers = len(others)
	}
	if workers < 1 {
		workers = 1
	}
	bounds := partition(len(others), workers)
	results := make([][]hit, workers)

	var g errgroup.Group
	for k := 0; k < workers; k++ {
		k := k
		g.Go(func() error {
			results[k] = e.compute(w, coreSlot, coreTot, others[bounds[k]:bounds[k+1]])
			return nil
		})
	}
	// Workers never fail; Wait is the join barrier.
	_ = g.Wait()

	var hits []hit
	for _, r := range results {
		hits = append(hits, r...)
	}
	return hits
}

func (e *evaluator) compute(w *window, core slot, coreTot [3]uint32, slots []int) []hit {
	coreVariant := e.variants[core.variant]

	var out []hit
	for _, i := range slots {
		s := w.At(i)
		other := e.variants[s.variant]
		if !lessSignificant(coreVariant, other) {
			continue
		}
		if distance(coreVariant.Position, other.Position) > e.maxDistance {
			continue
		}

		r2, ok := PairR2(core.planes, s.planes, coreTot, s.planes.Totals())
		if !ok {
			continue
		}
		if r2 >= e.r2Threshold {
			out = append(out, hit{variant: s.variant, r2: r2})
		}
	}
	return out
}

func distance(a, b uint32) uint64 {
	if a > b {
		return uint64(a - b)
	}
	return uint64(b - a)
}
