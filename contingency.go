package ldclump

import "fmt"

// Table is a 3x3 two-locus genotype count table. Cell 3*i+j counts the
// founders in plane i of the first variant and plane j of the second, with
// planes ordered PlaneHomA1, PlaneHet, PlaneHomA2.
type Table [9]uint32

func (t Table) At(i, j int) uint32 {
	return t[3*i+j]
}

func (t Table) Transpose() Table {
	var out Table
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*j+i] = t[3*i+j]
		}
	}
	return out
}

// Sum is the number of founders with a valid call at both variants.
func (t Table) Sum() uint32 {
	var n uint32
	for _, c := range t {
		n += c
	}
	return n
}

// CountTable builds the two-locus count table of a and b. totA and totB are
// the per-plane totals of a and b (see Planes.Totals). Whenever one side has
// no missing calls, its last plane is never intersected: those cells follow
// by subtraction from the other side's totals.
func CountTable(a, b *Planes, totA, totB [3]uint32) Table {
	if a.Words != b.Words {
		panic(fmt.Sprintf("ldclump: plane width mismatch (%d vs %d words)", a.Words, b.Words))
	}

	var t Table
	lastA, lastB := 3, 3
	if !a.HasMissing() {
		lastA = 2
	}
	if !b.HasMissing() {
		lastB = 2
	}

	for i := 0; i < lastA; i++ {
		pa := a.Plane(i)
		for j := 0; j < lastB; j++ {
			t[3*i+j] = uint32(popcountAnd(pa, b.Plane(j)))
		}
	}

	if lastB == 2 {
		// Every founder counted in a's plane i sits in exactly one of b's planes
		for i := 0; i < lastA; i++ {
			t[3*i+2] = totA[i] - t[3*i] - t[3*i+1]
		}
	}
	if lastA == 2 {
		for j := 0; j < 3; j++ {
			t[6+j] = totB[j] - t[j] - t[3+j]
		}
	}

	return t
}
