package ldclump

import "strings"

type Allele string

func (a Allele) String() string {
	return string(a)
}

// Complement returns the allele on the opposite strand. Only A, C, G and T
// are complemented; anything else is returned upper-cased.
func (a Allele) Complement() Allele {
	out := []byte(strings.ToUpper(string(a)))
	for i, c := range out {
		switch c {
		case 'A':
			out[i] = 'T'
		case 'T':
			out[i] = 'A'
		case 'C':
			out[i] = 'G'
		case 'G':
			out[i] = 'C'
		}
	}
	return Allele(out)
}

func (a Allele) equal(b Allele) bool {
	return strings.EqualFold(string(a), string(b))
}

// Ambiguous reports whether the allele pair reads the same on both strands
// (A/T or C/G), which makes strand flips undetectable.
func Ambiguous(ref, alt Allele) bool {
	return ref.Complement().equal(alt)
}
