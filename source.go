package ldclump

// GenotypeSource is the reference panel the LD between variants is measured
// in.
type GenotypeSource interface {
	// Founders is the number of samples in every raw genotype block.
	Founders() int

	// Locus looks a variant up by identifier.
	Locus(id string) (Locus, bool)

	// ReadGenotype returns the raw bed block of a variant, restricted to
	// founders. The returned slice may be reused by the next call.
	ReadGenotype(id string) ([]byte, error)
}

// Locus is the panel's record of a variant.
type Locus struct {
	ID         string
	Chromosome int
	Position   uint32
	Allele1    Allele
	Allele2    Allele
	File       string
	Index      int
}

// Matches compares the locus with a variant from the association results.
// Alleles may be given in either order (flipped) and on either strand.
func (l Locus) Matches(v *Variant) (match, flipped bool) {
	if l.Chromosome != v.Chromosome || l.Position != v.Position {
		return false, false
	}
	if v.Ref == "" {
		return true, false
	}

	if l.Allele1.equal(v.Ref) && (v.Alt == "" || l.Allele2.equal(v.Alt)) {
		return true, false
	}
	if l.Allele2.equal(v.Ref) && (v.Alt == "" || l.Allele1.equal(v.Alt)) {
		return true, true
	}

	c1, c2 := l.Allele1.Complement(), l.Allele2.Complement()
	if c1.equal(v.Ref) && (v.Alt == "" || c2.equal(v.Alt)) {
		return true, false
	}
	if c2.equal(v.Ref) && (v.Alt == "" || c1.equal(v.Alt)) {
		return true, true
	}

	return false, false
}
