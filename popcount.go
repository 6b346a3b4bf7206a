package ldclump

import "math/bits"

// batchWords is the unroll width of the batched kernels.
const batchWords = 4

func popcount(s []uint64) (cnt uint64) {
	for _, x := range s {
		cnt += uint64(bits.OnesCount64(x))
	}
	return
}

// popcountAnd computes the population count of the AND of two slices. It
// assumes that len(m) >= len(s).
func popcountAnd(s, m []uint64) uint64 {
	if len(s) >= batchWords {
		return popcountAndBatch(s, m)
	}
	return popcountAndScalar(s, m)
}

func popcountAndScalar(s, m []uint64) (cnt uint64) {
	if len(s) == 0 {
		return 0
	}
	// The next line is to help the bounds checker, it matters!
	_ = m[len(s)-1] // BCE
	for i := range s {
		cnt += uint64(bits.OnesCount64(s[i] & m[i]))
	}
	return
}

// popcountAndBatch handles batchWords words per iteration with independent
// accumulators, then finishes the tail with the scalar kernel.
func popcountAndBatch(s, m []uint64) uint64 {
	_ = m[len(s)-1] // BCE
	var c0, c1, c2, c3 int
	n := len(s) - len(s)%batchWords
	for i := 0; i < n; i += batchWords {
		c0 += bits.OnesCount64(s[i] & m[i])
		c1 += bits.OnesCount64(s[i+1] & m[i+1])
		c2 += bits.OnesCount64(s[i+2] & m[i+2])
		c3 += bits.OnesCount64(s[i+3] & m[i+3])
	}
	return uint64(c0+c1+c2+c3) + popcountAndScalar(s[n:], m[n:])
}
