package ldclump

import (
	"bytes"
	"fmt"
)

// PLINK bed genotype codes.
const (
	codeHomA1   byte = 0 // 00
	codeMissing byte = 1 // 01
	codeHet     byte = 2 // 10
	codeHomA2   byte = 3 // 11
)

// Plane indices into Planes.
const (
	PlaneHomA1 = iota
	PlaneHet
	PlaneHomA2
)

// MissingNone is the missingness code of a variant without missing calls.
// Bit 0 is cleared when at least one founder is missing. Bit 1 belongs to a
// second (control) partition of samples, which is never split off here, so it
// stays set.
const MissingNone uint8 = 3

const wordBits = 64

// Planes holds one variant's genotype calls over the panel founders as three
// bit-planes of Words uint64 words each: homozygous A1, heterozygous and
// homozygous A2. A founder set in none of the planes is missing.
type Planes struct {
	Founders int
	Words    int
	Missing  uint8

	bits []uint64
}

// Plane returns the words of plane i (PlaneHomA1, PlaneHet or PlaneHomA2).
func (p *Planes) Plane(i int) []uint64 {
	return p.bits[i*p.Words : (i+1)*p.Words]
}

func (p *Planes) HasMissing() bool {
	return p.Missing != MissingNone
}

// Totals counts the founders in each plane.
func (p *Planes) Totals() [3]uint32 {
	return [3]uint32{
		uint32(popcount(p.Plane(PlaneHomA1))),
		uint32(popcount(p.Plane(PlaneHet))),
		uint32(popcount(p.Plane(PlaneHomA2))),
	}
}

// Genotype returns the bed code of founder k, reconstructed from the planes.
func (p *Planes) Genotype(k int) byte {
	w, mask := k/wordBits, uint64(1)<<uint(k%wordBits)
	switch {
	case p.Plane(PlaneHomA1)[w]&mask != 0:
		return codeHomA1
	case p.Plane(PlaneHet)[w]&mask != 0:
		return codeHet
	case p.Plane(PlaneHomA2)[w]&mask != 0:
		return codeHomA2
	}
	return codeMissing
}

// BlockSize is the number of bytes a bed block occupies for n samples.
func BlockSize(n int) int {
	return (n + 3) / 4
}

func planeWords(founders int) int {
	return (founders + wordBits - 1) / wordBits
}

// Split decodes a raw bed block for founders samples into bit-planes.
func Split(raw []byte, founders int) (*Planes, error) {
	if want := BlockSize(founders); len(raw) != want || founders < 0 {
		return nil, &DecodeError{Founders: founders, Got: len(raw), Want: want}
	}

	p := &Planes{
		Founders: founders,
		Words:    planeWords(founders),
		Missing:  MissingNone,
	}
	p.bits = make([]uint64, 3*p.Words)

	hom1, het, hom2 := p.Plane(PlaneHomA1), p.Plane(PlaneHet), p.Plane(PlaneHomA2)

	qr := newQuaterReader(bytes.NewReader(raw))
	for k := 0; k < founders; k++ {
		code, err := qr.ReadCode()
		if err != nil {
			return nil, fmt.Errorf("founder %d: %w", k, err)
		}

		w, mask := k/wordBits, uint64(1)<<uint(k%wordBits)
		switch code {
		case codeHomA1:
			hom1[w] |= mask
		case codeHet:
			het[w] |= mask
		case codeHomA2:
			hom2[w] |= mask
		default:
			p.Missing &^= 1
		}
	}

	return p, nil
}
