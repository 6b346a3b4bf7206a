package ldclump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

// ReadBIM parses a PLINK bim file. file is recorded as the provenance of every
// locus; a locus' Index is its row in the bim, which is also its block in the
// matching bed.
func ReadBIM(r io.Reader, file string) ([]Locus, error) {
	loci := make([]Locus, 0)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}

		row, err := parseBIMRow(cols)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("bim line %d: %w", line, err))
		}

		chr, err := ChromosomeCode(row.Chromosome)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("bim line %d: %w", line, err))
		}

		loci = append(loci, Locus{
			ID:         row.VariantID,
			Chromosome: chr,
			Position:   row.Coordinate,
			Allele1:    Allele(row.Allele1),
			Allele2:    Allele(row.Allele2),
			File:       file,
			Index:      len(loci),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return loci, nil
}

func parseBIMRow(cols []string) (genomisc.BIMRow, error) {
	if len(cols) <= genomisc.Allele2 {
		return genomisc.BIMRow{}, fmt.Errorf("%d columns; expected 6", len(cols))
	}

	coord, err := strconv.ParseUint(cols[genomisc.Coordinate], 10, 32)
	if err != nil {
		return genomisc.BIMRow{}, fmt.Errorf("Non-numeric position for %s: %w", cols[genomisc.VariantID], err)
	}

	return genomisc.BIMRow{
		Chromosome: cols[genomisc.Chromosome],
		Coordinate: uint32(coord),
		VariantID:  cols[genomisc.VariantID],
		Allele1:    cols[genomisc.Allele1],
		Allele2:    cols[genomisc.Allele2],
	}, nil
}
