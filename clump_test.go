package ldclump

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The tests in this file exercise the pairwise r^2 accumulation into each
// core's absorbed set and the reduction that turns those sets into clumps.
// That path is the primary behavior of the package.

func testConfig() Config {
	return Config{
		PThreshold:  0.05,
		R2Threshold: 0.1,
		MaxDistance: 250,
		Threads:     1,
	}
}

func runClump(t *testing.T, cfg Config, panel GenotypeSource, variants []*Variant) *Result {
	t.Helper()
	c, err := NewClumper(cfg)
	require.NoError(t, err)
	res, err := c.Run(variants, panel)
	require.NoError(t, err)
	return res
}

func retainedIDs(res *Result) []string {
	out := make([]string, 0, len(res.Retained))
	for _, v := range res.Retained {
		out = append(out, v.ID)
	}
	return out
}

func TestClumpMonomorphicPair(t *testing.T) {
	panel := newMemPanel(40)
	hom := repeatCodes([]byte{codeHomA1}, 40)
	v1 := panel.add("rs1", 1, 100, 0.001, hom)
	v2 := panel.add("rs2", 1, 200, 0.01, hom)

	res := runClump(t, testConfig(), panel, []*Variant{v1, v2})

	assert.Equal(t, []string{"rs1", "rs2"}, retainedIDs(res))
	assert.Zero(t, v1.NAbsorbed())
	assert.False(t, v2.Clumped)
}

func TestClumpPerfectLD(t *testing.T) {
	panel := newMemPanel(50)
	codes := repeatCodes([]byte{codeHomA1, codeHet, codeHomA2, codeHomA1, codeHet}, 50)
	v1 := panel.add("rs1", 1, 100, 0.001, codes)
	v2 := panel.add("rs2", 1, 150, 0.01, codes)

	cfg := testConfig()
	cfg.R2Threshold = 0.5
	res := runClump(t, cfg, panel, []*Variant{v1, v2})

	assert.Equal(t, []string{"rs1"}, retainedIDs(res))
	assert.True(t, v2.Clumped)
	assert.False(t, v1.Clumped)
	assert.Equal(t, []string{"rs2"}, res.AbsorbedIDs(v1))

	r2, ok := v1.R2With(1)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r2, 1e-6)

	require.Len(t, res.Clumps, 1)
	require.Len(t, res.Clumps[0].Members, 1)
	assert.Equal(t, v2, res.Clumps[0].Members[0].Variant)
	assert.Equal(t, 2, res.Stats.Cores)
}

func TestClumpOutsideWindow(t *testing.T) {
	panel := newMemPanel(50)
	codes := repeatCodes([]byte{codeHomA1, codeHet, codeHomA2, codeHomA1, codeHet}, 50)
	v1 := panel.add("rs1", 1, 100, 0.001, codes)
	v2 := panel.add("rs2", 1, 400, 0.01, codes)

	cfg := testConfig()
	cfg.R2Threshold = 0.5
	res := runClump(t, cfg, panel, []*Variant{v1, v2})

	assert.Equal(t, []string{"rs1", "rs2"}, retainedIDs(res))
	assert.Zero(t, v1.NAbsorbed())
	assert.Zero(t, v2.NAbsorbed())
}

func TestClumpChromosomeBoundary(t *testing.T) {
	panel := newMemPanel(50)
	codes := repeatCodes([]byte{codeHomA1, codeHet, codeHomA2}, 50)
	v1 := panel.add("rs1", 1, 100, 0.001, codes)
	v2 := panel.add("rs2", 2, 120, 0.01, codes)

	res := runClump(t, testConfig(), panel, []*Variant{v1, v2})

	assert.Equal(t, []string{"rs1", "rs2"}, retainedIDs(res))
}

func TestClumpLessSignificantCoreFirst(t *testing.T) {
	// The weaker variant comes first; it is a core but cannot absorb the
	// stronger one, which then absorbs it.
	panel := newMemPanel(50)
	codes := repeatCodes([]byte{codeHomA1, codeHet, codeHomA2, codeHomA1, codeHet}, 50)
	v1 := panel.add("rs1", 1, 100, 0.02, codes)
	v2 := panel.add("rs2", 1, 150, 0.001, codes)

	res := runClump(t, testConfig(), panel, []*Variant{v1, v2})

	assert.Equal(t, []string{"rs2"}, retainedIDs(res))
	assert.Zero(t, v1.NAbsorbed())
	assert.Equal(t, []string{"rs1"}, res.AbsorbedIDs(v2))
	assert.True(t, v1.Clumped)
}

func TestClumpAboveThresholdNeverRetained(t *testing.T) {
	panel := newMemPanel(50)
	codes := repeatCodes([]byte{codeHomA1, codeHet, codeHomA2}, 50)
	v1 := panel.add("rs1", 1, 100, 0.001, codes)
	v2 := panel.add("rs2", 1, 150, 0.5, repeatCodes([]byte{codeHet, codeHomA1}, 50))

	res := runClump(t, testConfig(), panel, []*Variant{v1, v2})

	assert.Equal(t, []string{"rs1"}, retainedIDs(res))
	assert.Equal(t, 1, res.Stats.Cores)
}

func TestClumpNotInPanel(t *testing.T) {
	panel := newMemPanel(20)
	codes := repeatCodes([]byte{codeHomA1, codeHet}, 20)
	v1 := panel.add("rs1", 1, 100, 0.001, codes)
	ghost := &Variant{ID: "rs404", Chromosome: 1, Position: 120, P: 0.0001}

	res := runClump(t, testConfig(), panel, []*Variant{v1, ghost})

	assert.Equal(t, []string{"rs1"}, retainedIDs(res))
	assert.Equal(t, 1, res.Stats.NotInPanel)
	assert.Equal(t, 1, res.Stats.InPanel)
}

// linkedStream builds a two-chromosome variant stream in which neighboring
// variants share most founder genotypes.
func linkedStream(seed int64) (*memPanel, []*Variant) {
	rng := rand.New(rand.NewSource(seed))
	const founders = 120
	panel := newMemPanel(founders)

	var variants []*Variant
	for chr := 1; chr <= 2; chr++ {
		codes := randomCodes(rng, founders, 0)
		pos := uint32(1000)
		for i := 0; i < 150; i++ {
			next := make([]byte, founders)
			copy(next, codes)
			for k := range next {
				if rng.Float64() < 0.1 {
					next[k] = randomCodes(rng, 1, 0.01)[0]
				}
			}
			codes = next
			pos += uint32(1 + rng.Intn(60))

			p := rng.Float64() * 0.2
			if rng.Intn(10) == 0 {
				p = rng.Float64() * 1e-6
			}
			variants = append(variants, panel.add(fmt.Sprintf("rs%d_%d", chr, i), chr, pos, p, codes))
		}
	}
	return panel, variants
}

func TestClumpDeterministicAcrossThreads(t *testing.T) {
	var want []string
	var wantAbsorbed map[string][]string
	for _, threads := range []int{1, 2, 8} {
		panel, variants := linkedStream(99)
		cfg := testConfig()
		cfg.MaxDistance = 500
		cfg.R2Threshold = 0.2
		cfg.Threads = threads

		res := runClump(t, cfg, panel, variants)
		absorbed := make(map[string][]string)
		for _, v := range variants {
			absorbed[v.ID] = res.AbsorbedIDs(v)
		}

		if want == nil {
			want = retainedIDs(res)
			wantAbsorbed = absorbed
			require.NotEmpty(t, want)
			continue
		}
		assert.Equal(t, want, retainedIDs(res), "threads %d", threads)
		assert.Equal(t, wantAbsorbed, absorbed, "threads %d", threads)
	}
}

func TestClumpInvariants(t *testing.T) {
	panel, variants := linkedStream(7)
	cfg := testConfig()
	cfg.MaxDistance = 400
	cfg.R2Threshold = 0.2
	cfg.Threads = 3

	res := runClump(t, cfg, panel, variants)

	absorbedSomewhere := 0
	for i, v := range variants {
		if v.Absorbed == nil {
			continue
		}
		it := v.Absorbed.Iterator()
		for it.HasNext() {
			j := int(it.Next())
			other := variants[j]
			absorbedSomewhere++

			assert.NotEqual(t, i, j)
			assert.Equal(t, v.Chromosome, other.Chromosome, "%s absorbed %s across chromosomes", v.ID, other.ID)
			assert.LessOrEqual(t, distance(v.Position, other.Position), cfg.MaxDistance, "%s absorbed %s", v.ID, other.ID)
			assert.True(t, lessSignificant(v, other), "%s absorbed the more significant %s", v.ID, other.ID)

			r2, ok := v.R2With(j)
			require.True(t, ok)
			assert.GreaterOrEqual(t, r2, cfg.R2Threshold)
		}
	}
	require.NotZero(t, absorbedSomewhere)

	// No retained variant belongs to another clump
	for _, v := range res.Retained {
		assert.False(t, v.Clumped, v.ID)
		assert.Less(t, v.P, cfg.PThreshold)
	}

	// Clumps are in stream order and members are never shared
	members := make(map[string]string)
	for k, cl := range res.Clumps {
		if k > 0 {
			prev := res.Clumps[k-1].Index
			assert.True(t, prev.Chromosome < cl.Index.Chromosome ||
				(prev.Chromosome == cl.Index.Chromosome && prev.Position <= cl.Index.Position))
		}
		for _, m := range cl.Members {
			owner, dup := members[m.Variant.ID]
			assert.False(t, dup, "%s is in the clumps of %s and %s", m.Variant.ID, owner, cl.Index.ID)
			members[m.Variant.ID] = cl.Index.ID
			assert.True(t, m.Variant.Clumped)
		}
	}
}

func TestReduceIdempotent(t *testing.T) {
	panel, variants := linkedStream(3)
	cfg := testConfig()
	cfg.MaxDistance = 400
	cfg.R2Threshold = 0.2
	res := runClump(t, cfg, panel, variants)

	flags := make([]bool, len(variants))
	for i, v := range variants {
		flags[i] = v.Clumped
	}

	overlapped := roaring.New()
	overlapped.AddRange(0, uint64(len(variants)))
	again := reduce(variants, overlapped, cfg.PThreshold)

	for i, v := range variants {
		assert.Equal(t, flags[i], v.Clumped, v.ID)
	}
	require.Len(t, again, len(res.Clumps))
	for k := range again {
		assert.Equal(t, res.Clumps[k].Index, again[k].Index)
		assert.Empty(t, again[k].Members)
	}
}

func TestReduceTieBreak(t *testing.T) {
	// Equal p-values: the earlier panel row wins
	a := &Variant{ID: "a", P: 0.01, SourceFile: "x.bed", SourceIndex: 5}
	b := &Variant{ID: "b", P: 0.01, SourceFile: "x.bed", SourceIndex: 2}
	a.absorb(1, 0.9)
	b.absorb(0, 0.9)

	overlapped := roaring.New()
	overlapped.AddMany([]uint32{0, 1})
	clumps := reduce([]*Variant{a, b}, overlapped, 0.05)

	require.Len(t, clumps, 1)
	assert.Equal(t, "b", clumps[0].Index.ID)
	assert.True(t, a.Clumped)
}

func TestClumpUnsorted(t *testing.T) {
	codes := repeatCodes([]byte{codeHomA1, codeHet}, 20)

	t.Run("position", func(t *testing.T) {
		panel := newMemPanel(20)
		v1 := panel.add("rs1", 1, 200, 0.01, codes)
		v2 := panel.add("rs2", 1, 100, 0.01, codes)

		c, err := NewClumper(testConfig())
		require.NoError(t, err)
		_, err = c.Run([]*Variant{v1, v2}, panel)
		assert.True(t, errors.Is(err, ErrUnsorted), "%v", err)
	})

	t.Run("chromosome", func(t *testing.T) {
		panel := newMemPanel(20)
		v1 := panel.add("rs1", 1, 100, 0.01, codes)
		v2 := panel.add("rs2", 2, 100, 0.01, codes)
		v3 := panel.add("rs3", 1, 300, 0.01, codes)

		c, err := NewClumper(testConfig())
		require.NoError(t, err)
		_, err = c.Run([]*Variant{v1, v2, v3}, panel)
		assert.True(t, errors.Is(err, ErrUnsorted), "%v", err)
	})
}

func TestClumpDecodeError(t *testing.T) {
	panel := newMemPanel(20)
	codes := repeatCodes([]byte{codeHomA1, codeHet}, 20)
	v1 := panel.add("rs1", 1, 100, 0.01, codes)
	panel.raw["rs1"] = []byte{0, 0}

	c, err := NewClumper(testConfig())
	require.NoError(t, err)
	_, err = c.Run([]*Variant{v1}, panel)

	var de *DecodeError
	require.True(t, errors.As(err, &de), "%v", err)
	assert.Equal(t, 20, de.Founders)
	assert.Equal(t, 5, de.Want)
}

func TestClumperStates(t *testing.T) {
	c, err := NewClumper(testConfig(), WithProgressEvery(1))
	require.NoError(t, err)
	assert.Equal(t, StateIdle, c.State())

	panel := newMemPanel(10)
	v := panel.add("rs1", 1, 100, 0.01, repeatCodes([]byte{codeHet}, 10))
	_, err = c.Run([]*Variant{v}, panel)
	require.NoError(t, err)
	assert.Equal(t, StateDone, c.State())
	assert.Equal(t, "Done", c.State().String())
}

func TestNewClumperInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Threads = 0
	_, err := NewClumper(cfg)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestWindowInvariantError(t *testing.T) {
	var err error = &WindowInvariantError{Iterations: 9, WindowSize: 8, Chromosome: ChromosomeX, Position: 1234}

	var wie *WindowInvariantError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &wie))
	assert.Contains(t, err.Error(), "X:1234")
}
