package ldclump

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFAM = `F1 P1 0 0 1 -9
F1 P2 0 0 2 -9
F1 K1 P1 P2 1 -9
F2 Q1 0 0 2 -9
F2 Q2 0 0 1 -9
`

const testBIM = `1	rs1	0	100	A	G
1	rs2	0	150	C	T
chr2	rs3	0.5	90	G	A
`

// testGenotypes lists bed codes per variant over all five samples. The
// third sample is the only non-founder.
var testGenotypes = [][]byte{
	{codeHomA1, codeHet, codeHomA2, codeHomA2, codeMissing},
	{codeHet, codeHet, codeHomA1, codeHomA1, codeHomA2},
	{codeHomA2, codeHomA1, codeHet, codeHet, codeHomA1},
}

func writeFileset(t *testing.T, bedHeader []byte) string {
	t.Helper()
	prefix := filepath.Join(t.TempDir(), "panel")

	bed := append([]byte{}, bedHeader...)
	for _, codes := range testGenotypes {
		bed = append(bed, packCodes(codes)...)
	}

	require.NoError(t, os.WriteFile(prefix+".fam", []byte(testFAM), 0o644))
	require.NoError(t, os.WriteFile(prefix+".bim", []byte(testBIM), 0o644))
	require.NoError(t, os.WriteFile(prefix+".bed", bed, 0o644))
	return prefix
}

func TestOpenPanel(t *testing.T) {
	prefix := writeFileset(t, []byte{0x6c, 0x1b, 0x01})

	p, err := OpenPanel(context.Background(), prefix)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, uint32(5), p.NSamples)
	assert.Equal(t, uint32(3), p.NVariants)
	assert.Equal(t, 4, p.Founders())
	assert.Equal(t, ModeSNPMajor, p.Mode)

	l, ok := p.Locus("rs3")
	require.True(t, ok)
	assert.Equal(t, 2, l.Chromosome)
	assert.Equal(t, uint32(90), l.Position)
	assert.Equal(t, Allele("G"), l.Allele1)
	assert.Equal(t, 2, l.Index)
	assert.Equal(t, prefix+".bed", l.File)

	_, ok = p.Locus("rs404")
	assert.False(t, ok)
	assert.Len(t, p.Loci(), 3)
}

func TestPanelReadGenotypeFounders(t *testing.T) {
	prefix := writeFileset(t, []byte{0x6c, 0x1b, 0x01})

	p, err := OpenPanel(context.Background(), prefix)
	require.NoError(t, err)
	defer p.Close()

	for i, id := range []string{"rs1", "rs2", "rs3"} {
		raw, err := p.ReadGenotype(id)
		require.NoError(t, err)

		all := testGenotypes[i]
		founders := []byte{all[0], all[1], all[3], all[4]}
		assert.Equal(t, packCodes(founders), raw, id)

		planes, err := Split(raw, p.Founders())
		require.NoError(t, err)
		for k, c := range founders {
			assert.Equal(t, c, planes.Genotype(k), "%s founder %d", id, k)
		}
	}

	_, err = p.ReadGenotype("rs404")
	assert.Error(t, err)
}

func TestPanelClumps(t *testing.T) {
	prefix := writeFileset(t, []byte{0x6c, 0x1b, 0x01})

	p, err := OpenPanel(context.Background(), prefix)
	require.NoError(t, err)
	defer p.Close()

	variants := []*Variant{
		{ID: "rs1", P: 0.001},
		{ID: "rs2", P: 0.01},
		{ID: "rs3", P: 0.02},
	}
	var stats BaseStats
	variants = AlignToPanel(variants, p, &stats)

	c, err := NewClumper(testConfig())
	require.NoError(t, err)
	res, err := c.Run(variants, p)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Stats.InPanel)
	assert.Equal(t, 3, res.Stats.Cores)
}

func TestOpenPanelBadMagicNumber(t *testing.T) {
	prefix := writeFileset(t, []byte{0x6c, 0x1c, 0x01})

	_, err := OpenPanel(context.Background(), prefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Magic Number")
}

func TestOpenPanelIndividualMajor(t *testing.T) {
	prefix := writeFileset(t, []byte{0x6c, 0x1b, 0x00})

	_, err := OpenPanel(context.Background(), prefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "individual-major")
}

func TestOpenPanelTruncated(t *testing.T) {
	prefix := writeFileset(t, []byte{0x6c, 0x1b, 0x01})
	bed, err := os.ReadFile(prefix + ".bed")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(prefix+".bed", bed[:len(bed)-1], 0o644))

	_, err = OpenPanel(context.Background(), prefix)
	assert.Error(t, err)
}

func TestReadBIMDuplicate(t *testing.T) {
	loci, err := ReadBIM(strings.NewReader("1 rs1 0 100 A G\n1 rs1 0 200 A G\n"), "x.bed")
	require.NoError(t, err)

	_, err = indexLoci(loci)
	assert.Error(t, err)
}

func TestReadBIMMalformed(t *testing.T) {
	_, err := ReadBIM(strings.NewReader("1 rs1 0 100 A\n"), "x.bed")
	assert.Error(t, err)

	_, err = ReadBIM(strings.NewReader("1 rs1 0 -5 A G\n"), "x.bed")
	assert.Error(t, err)
}

func TestReadFAM(t *testing.T) {
	samples, err := ReadFAM(strings.NewReader(testFAM))
	require.NoError(t, err)

	require.Len(t, samples, 5)
	assert.Equal(t, "K1", samples[2].SampleID)
	assert.False(t, samples[2].Founder())
	assert.True(t, samples[3].Founder())

	_, err = ReadFAM(strings.NewReader("F1 S1 0 0\n"))
	assert.Error(t, err)
}
