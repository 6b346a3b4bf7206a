package ldclump

import "math"

// Phase holds the maximum likelihood haplotype frequencies of two biallelic
// variants. Freq1x and Freq2x are the allele frequencies at the first
// variant, Freqx1 and Freqx2 at the second, and Freq11 is the frequency of
// the haplotype carrying allele 1 at both.
type Phase struct {
	Freq1x float64
	Freq2x float64
	Freqx1 float64
	Freqx2 float64
	Freq11 float64
}

// R2 derives the squared correlation from the haplotype frequencies. ok is
// false when the frequencies cannot support a correlation (a fixed allele
// at either variant).
func (ph Phase) R2() (r2 float64, ok bool) {
	expected := ph.Freqx1 * ph.Freq1x
	d := ph.Freq11 - expected
	if math.Abs(d) < SmallEpsilon {
		return 0, true
	}

	denom := expected * ph.Freq2x * ph.Freqx2
	if !(denom > 0) || math.IsInf(denom, 0) {
		return 0, false
	}

	return d * d / denom, true
}

// PhaseTable resolves the haplotype frequencies behind a two-locus count
// table. Only the double heterozygote cell is ambiguous.
func PhaseTable(t Table) (Phase, error) {
	known11 := float64(2*t[0] + t[1] + t[3])
	known12 := float64(2*t[2] + t[1] + t[5])
	known21 := float64(2*t[6] + t[3] + t[7])
	known22 := float64(2*t[8] + t[5] + t[7])
	return PhaseHetHet(known11, known12, known21, known22, t[4])
}

// PhaseHetHet splits center double heterozygotes between the 11/22 and 12/21
// phases by maximum likelihood, solving the cubic likelihood equation in
// closed form. The known haplotype counts come from every unambiguous
// genotype pair.
func PhaseHetHet(known11, known12, known21, known22 float64, center uint32) (Phase, error) {
	centerD := float64(center)
	twiceTot := known11 + known12 + known21 + known22 + 2*centerD
	if twiceTot == 0.0 {
		return Phase{}, ErrMonomorphic
	}

	recip := 1.0 / twiceTot
	freq11 := known11 * recip
	freq12 := known12 * recip
	freq21 := known21 * recip
	freq22 := known22 * recip
	prod1122 := freq11 * freq22
	prod1221 := freq12 * freq21
	halfHetHet := centerD * recip

	ph := Phase{
		Freq1x: freq11 + freq12 + halfHetHet,
		Freqx1: freq11 + freq21 + halfHetHet,
	}
	ph.Freq2x = 1.0 - ph.Freq1x
	ph.Freqx2 = 1.0 - ph.Freqx1

	if center == 0 {
		if prod1122 == 0.0 && prod1221 == 0.0 {
			return Phase{}, ErrMonomorphic
		}
		ph.Freq11 = freq11
		return ph, nil
	}

	var solutions [3]float64
	start, end := 0, 1

	if prod1122 != 0.0 || prod1221 != 0.0 {
		end = cubicRealRoots(
			0.5*(freq11+freq22-freq12-freq21-3*halfHetHet),
			0.5*(prod1122+prod1221+halfHetHet*(freq12+freq21-freq11-freq22+halfHetHet)),
			-0.5*halfHetHet*prod1122,
			&solutions)

		for end > 0 && solutions[end-1] > halfHetHet+SmallishEpsilon {
			end--
		}
		for start < end && solutions[start] < -SmallishEpsilon {
			start++
		}

		if start == end {
			// A double root sitting on a boundary got pushed outside by
			// rounding; only the boundaries remain as candidates.
			start, end = 0, 2
			solutions[0] = 0
			solutions[1] = halfHetHet
		} else {
			if solutions[start] < 0 {
				solutions[start] = 0
			}
			if solutions[end-1] > halfHetHet {
				solutions[end-1] = halfHetHet
			}
		}
	} else {
		solutions[0] = 0
		if freq22+SmallishEpsilon < halfHetHet+freq21 && freq21+SmallishEpsilon < halfHetHet+freq22 {
			end = 3
			solutions[1] = (halfHetHet + freq21 - freq22) * 0.5
			solutions[2] = halfHetHet
		} else {
			end = 2
			solutions[1] = halfHetHet
		}
	}

	best := solutions[start]
	if end > start+1 {
		bestLnLike := lnLike(known11, known12, known21, known22, centerD, freq11, freq12, freq21, freq22, halfHetHet, best)
		for i := start + 1; i < end; i++ {
			cur := lnLike(known11, known12, known21, known22, centerD, freq11, freq12, freq21, freq22, halfHetHet, solutions[i])
			if cur > bestLnLike {
				bestLnLike = cur
				best = solutions[i]
			}
		}
	}

	ph.Freq11 = freq11 + best
	return ph, nil
}

// lnLike is the log likelihood of the data when incr of the double
// heterozygote share is assigned to the 11/22 phase.
func lnLike(known11, known12, known21, known22, centerD, freq11, freq12, freq21, freq22, halfHetHet, incr float64) float64 {
	freq11 += incr
	freq22 += incr
	freq12 += halfHetHet - incr
	freq21 += halfHetHet - incr

	ll := centerD * math.Log(freq11*freq22+freq12*freq21)
	if known11 != 0.0 {
		ll += known11 * math.Log(freq11)
	}
	if known12 != 0.0 {
		ll += known12 * math.Log(freq12)
	}
	if known21 != 0.0 {
		ll += known21 * math.Log(freq21)
	}
	if known22 != 0.0 {
		ll += known22 * math.Log(freq22)
	}
	return ll
}

// PairR2 computes r^2 between two variants. ok is false when the pair is
// monomorphic and carries no correlation information.
func PairR2(a, b *Planes, totA, totB [3]uint32) (r2 float64, ok bool) {
	ph, err := PhaseTable(CountTable(a, b, totA, totB))
	if err != nil {
		return 0, false
	}
	return ph.R2()
}
