package ldclump

import (
	"fmt"
	"strconv"
	"strings"
)

// Chromosome codes beyond the autosomes, following PLINK.
const (
	ChromosomeX  = 23
	ChromosomeY  = 24
	ChromosomeXY = 25
	ChromosomeMT = 26

	MaxAutosome = 22
)

// ChromosomeCode parses a chromosome label such as "7", "chr7", "07", "X"
// or "MT" into its numeric code.
func ChromosomeCode(label string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	s = strings.TrimPrefix(s, "CHR")

	switch s {
	case "X", "23":
		return ChromosomeX, nil
	case "Y", "24":
		return ChromosomeY, nil
	case "XY", "25":
		return ChromosomeXY, nil
	case "M", "MT", "26":
		return ChromosomeMT, nil
	}

	code, err := strconv.Atoi(s)
	if err != nil || code < 1 || code > MaxAutosome {
		return 0, fmt.Errorf("Cannot parse chromosome code %q", label)
	}
	return code, nil
}

// ChromosomeName takes the numeric chromosome code and returns its standard
// string translation.
func ChromosomeName(chr int) string {
	switch chr {
	case ChromosomeX:
		return "X"
	case ChromosomeY:
		return "Y"
	case ChromosomeXY:
		return "XY"
	case ChromosomeMT:
		return "MT"
	}
	if chr >= 1 && chr <= MaxAutosome {
		return strconv.Itoa(chr)
	}
	return "NA"
}

// IsHaploid reports whether the chromosome is not diploid in every sample.
// The clumping kernels assume diploid calls.
func IsHaploid(chr int) bool {
	return chr == ChromosomeX || chr == ChromosomeY || chr == ChromosomeMT
}
