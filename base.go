package ldclump

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// BaseColumns names the header columns of a summary statistics file. An
// empty name marks the column as absent; ID and P are required.
type BaseColumns struct {
	ID         string
	Chromosome string
	Position   string
	Ref        string
	Alt        string
	P          string
	Stat       string
}

func DefaultBaseColumns() BaseColumns {
	return BaseColumns{
		ID:         "SNP",
		Chromosome: "CHR",
		Position:   "BP",
		Ref:        "A1",
		Alt:        "A2",
		P:          "P",
		Stat:       "BETA",
	}
}

type BaseOptions struct {
	// IsOR marks the statistic as an odds ratio; it is stored as log(OR).
	IsOR bool

	// Variants with a p-value above PThreshold are excluded.
	PThreshold float64
}

// BaseStats counts what ReadBase and AlignToPanel left out.
type BaseStats struct {
	Read         int
	Duplicated   int
	Excluded     int
	NotConverted int
	NegativeStat int
	Ambiguous    int
	Haploid      int
	NotInPanel   int
	Mismatched   int
}

// ReadBase parses a whitespace-delimited summary statistics file with a
// header line.
func ReadBase(r io.Reader, cols BaseColumns, opts BaseOptions) ([]*Variant, BaseStats, error) {
	var stats BaseStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var header []string
	for scanner.Scan() {
		if header = strings.Fields(scanner.Text()); len(header) > 0 {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, pfx.Err(err)
	}
	if len(header) == 0 {
		return nil, stats, pfx.Err(fmt.Errorf("base file is empty"))
	}

	idx, err := cols.resolve(header)
	if err != nil {
		return nil, stats, pfx.Err(err)
	}

	variants := make([]*Variant, 0)
	seen := make(map[string]struct{})
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) <= idx.max {
			return nil, stats, pfx.Err(fmt.Errorf("base line %d has %d columns; header has %d", line, len(fields), len(header)))
		}
		stats.Read++

		v, keep, err := idx.parse(fields, opts, &stats)
		if err != nil {
			return nil, stats, pfx.Err(fmt.Errorf("base line %d: %w", line, err))
		}
		if !keep {
			continue
		}

		if _, dup := seen[v.ID]; dup {
			stats.Duplicated++
			continue
		}
		seen[v.ID] = struct{}{}

		variants = append(variants, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, pfx.Err(err)
	}

	return variants, stats, nil
}

type baseIndex struct {
	id, chr, pos, ref, alt, p, stat int
	max                             int
}

func (c BaseColumns) resolve(header []string) (baseIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToUpper(h)] = i
	}

	idx := baseIndex{max: -1}
	find := func(name string, required bool) (int, error) {
		if name == "" {
			if required {
				return -1, fmt.Errorf("a required base column has no name")
			}
			return -1, nil
		}
		i, ok := positions[strings.ToUpper(name)]
		if !ok {
			return -1, fmt.Errorf("column %s is not in the base file header", name)
		}
		if i > idx.max {
			idx.max = i
		}
		return i, nil
	}

	var err error
	if idx.id, err = find(c.ID, true); err != nil {
		return idx, err
	}
	if idx.p, err = find(c.P, true); err != nil {
		return idx, err
	}
	if idx.chr, err = find(c.Chromosome, false); err != nil {
		return idx, err
	}
	if idx.pos, err = find(c.Position, false); err != nil {
		return idx, err
	}
	if idx.ref, err = find(c.Ref, false); err != nil {
		return idx, err
	}
	if idx.alt, err = find(c.Alt, false); err != nil {
		return idx, err
	}
	if idx.stat, err = find(c.Stat, false); err != nil {
		return idx, err
	}

	return idx, nil
}

// parse turns one row into a variant. keep is false for rows excluded by
// quality control; err is reserved for rows that make the whole file suspect.
func (idx baseIndex) parse(fields []string, opts BaseOptions, stats *BaseStats) (v *Variant, keep bool, err error) {
	v = &Variant{ID: fields[idx.id]}

	if idx.chr >= 0 {
		if v.Chromosome, err = ChromosomeCode(fields[idx.chr]); err != nil {
			return nil, false, err
		}
		if IsHaploid(v.Chromosome) {
			stats.Haploid++
			stats.Excluded++
			return nil, false, nil
		}
	}

	if idx.pos >= 0 {
		pos, err := strconv.ParseInt(fields[idx.pos], 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("Non-numeric position for %s", v.ID)
		}
		if pos < 0 || pos > math.MaxUint32 {
			return nil, false, fmt.Errorf("%s has position %d outside the genome", v.ID, pos)
		}
		v.Position = uint32(pos)
	}

	if idx.ref >= 0 {
		v.Ref = Allele(strings.ToUpper(fields[idx.ref]))
	}
	if idx.alt >= 0 {
		v.Alt = Allele(strings.ToUpper(fields[idx.alt]))
	}

	p, perr := strconv.ParseFloat(fields[idx.p], 64)
	switch {
	case perr != nil || math.IsNaN(p):
		stats.NotConverted++
		return nil, false, nil
	case p < 0 || p > 1:
		return nil, false, fmt.Errorf("Invalid p-value %g for %s", p, v.ID)
	case p > opts.PThreshold:
		stats.Excluded++
		return nil, false, nil
	}
	v.P = p

	if idx.stat >= 0 {
		stat, serr := strconv.ParseFloat(fields[idx.stat], 64)
		switch {
		case serr != nil || math.IsNaN(stat):
			stats.NotConverted++
			return nil, false, nil
		case opts.IsOR && stat < 0:
			stats.NegativeStat++
			return nil, false, nil
		case opts.IsOR:
			stat = math.Log(stat)
		}
		v.Stat = stat
	}

	if v.Alt != "" && Ambiguous(v.Ref, v.Alt) {
		stats.Ambiguous++
		stats.Excluded++
		return nil, false, nil
	}

	return v, true, nil
}

// AlignToPanel keeps the variants the panel carries, takes their coordinates
// and provenance from the panel, and sorts them by chromosome and position.
// Variants whose own coordinates disagree with the panel are dropped.
func AlignToPanel(variants []*Variant, panel GenotypeSource, stats *BaseStats) []*Variant {
	out := make([]*Variant, 0, len(variants))
	for _, v := range variants {
		locus, ok := panel.Locus(v.ID)
		if !ok {
			stats.NotInPanel++
			continue
		}

		if v.Chromosome != 0 && v.Position != 0 {
			if match, _ := locus.Matches(v); !match {
				stats.Mismatched++
				continue
			}
		}

		v.Chromosome = locus.Chromosome
		v.Position = locus.Position
		v.SourceFile = locus.File
		v.SourceIndex = locus.Index
		out = append(out, v)
	}

	sort.SliceStable(out, func(a, b int) bool {
		va, vb := out[a], out[b]
		if va.Chromosome != vb.Chromosome {
			return va.Chromosome < vb.Chromosome
		}
		if va.Position != vb.Position {
			return va.Position < vb.Position
		}
		return va.SourceIndex < vb.SourceIndex
	})

	return out
}
