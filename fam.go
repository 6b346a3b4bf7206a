package ldclump

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"
)

// Map columns in the FAM file to their positions
const (
	famFamilyID int = iota
	famSampleID
	famFatherID
	famMotherID
	famSex
	famPhenotype
)

type Sample struct {
	FamilyID  string
	SampleID  string
	FatherID  string
	MotherID  string
	Sex       string
	Phenotype string
}

// Founder reports whether neither parent of the sample is in the dataset.
func (s Sample) Founder() bool {
	return s.FatherID == "0" && s.MotherID == "0"
}

func ReadFAM(r io.Reader) ([]Sample, error) {
	samples := make([]Sample, 0)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) <= famPhenotype {
			return nil, pfx.Err(fmt.Errorf("fam line %d has %d columns; expected 6", line, len(cols)))
		}

		samples = append(samples, Sample{
			FamilyID:  cols[famFamilyID],
			SampleID:  cols[famSampleID],
			FatherID:  cols[famFatherID],
			MotherID:  cols[famMotherID],
			Sex:       cols[famSex],
			Phenotype: cols[famPhenotype],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return samples, nil
}
