package ldclump

import (
	"fmt"
	"math/rand"
)

// packCodes packs bed genotype codes four to a byte, least significant bits
// first.
func packCodes(codes []byte) []byte {
	out := make([]byte, BlockSize(len(codes)))
	for k, c := range codes {
		out[k/4] |= (c & 3) << (2 * uint(k%4))
	}
	return out
}

func mustSplit(codes []byte) *Planes {
	p, err := Split(packCodes(codes), len(codes))
	if err != nil {
		panic(err)
	}
	return p
}

// randomCodes draws genotype codes, including missing calls when
// missingRate > 0.
func randomCodes(rng *rand.Rand, n int, missingRate float64) []byte {
	codes := make([]byte, n)
	for k := range codes {
		if rng.Float64() < missingRate {
			codes[k] = codeMissing
			continue
		}
		switch rng.Intn(3) {
		case 0:
			codes[k] = codeHomA1
		case 1:
			codes[k] = codeHet
		default:
			codes[k] = codeHomA2
		}
	}
	return codes
}

// memPanel is an in-memory GenotypeSource.
type memPanel struct {
	founders int
	loci     map[string]Locus
	codes    map[string][]byte
	raw      map[string][]byte
}

func newMemPanel(founders int) *memPanel {
	return &memPanel{
		founders: founders,
		loci:     make(map[string]Locus),
		codes:    make(map[string][]byte),
		raw:      make(map[string][]byte),
	}
}

// add registers a variant with its founder genotypes and returns the
// matching association record.
func (m *memPanel) add(id string, chr int, pos uint32, p float64, codes []byte) *Variant {
	if len(codes) != m.founders {
		panic(fmt.Sprintf("%s has %d codes for %d founders", id, len(codes), m.founders))
	}
	m.loci[id] = Locus{
		ID:         id,
		Chromosome: chr,
		Position:   pos,
		Allele1:    "A",
		Allele2:    "G",
		File:       "mem.bed",
		Index:      len(m.loci),
	}
	m.codes[id] = codes
	return &Variant{ID: id, Chromosome: chr, Position: pos, Ref: "A", Alt: "G", P: p, SourceFile: "mem.bed", SourceIndex: m.loci[id].Index}
}

func (m *memPanel) Founders() int {
	return m.founders
}

func (m *memPanel) Locus(id string) (Locus, bool) {
	l, ok := m.loci[id]
	return l, ok
}

func (m *memPanel) ReadGenotype(id string) ([]byte, error) {
	if raw, ok := m.raw[id]; ok {
		return raw, nil
	}
	codes, ok := m.codes[id]
	if !ok {
		return nil, fmt.Errorf("variant %s is not in the panel", id)
	}
	return packCodes(codes), nil
}

// repeatCodes builds a founder vector from a pattern.
func repeatCodes(pattern []byte, n int) []byte {
	out := make([]byte, n)
	for k := range out {
		out[k] = pattern[k%len(pattern)]
	}
	return out
}
