package ldclump

import (
	"context"
	"fmt"

	"github.com/carbocation/pfx"
)

// MagicNumber contains the leading bytes required to confirm that a file is a
// PLINK bed file.
var MagicNumber = [2]byte{0x6c, 0x1b}

const (
	offsetMagicNumber = 0
	offsetMode        = 2
	offsetVariants    = 3
)

// Panel is a PLINK binary fileset (bed, bim and fam) used as the LD
// reference.
type Panel struct {
	Prefix    string
	BEDPath   string
	File      ReaderAtCloser
	NVariants uint32
	NSamples  uint32
	Mode      Mode
	Samples   []Sample

	loci     []Locus
	index    map[string]int
	founders []int
	reader   *genotypeReader
}

// OpenPanel attempts to open the fileset prefix.bed, prefix.bim and
// prefix.fam. The prefix may point to Google Storage (gs://bucket/path).
func OpenPanel(ctx context.Context, prefix string) (*Panel, error) {
	p := &Panel{
		Prefix:  prefix,
		BEDPath: prefix + ".bed",
	}

	fam, err := OpenStream(ctx, prefix+".fam", CompressionDisabled)
	if err != nil {
		return nil, pfx.Err(err)
	}
	p.Samples, err = ReadFAM(fam)
	fam.Close()
	if err != nil {
		return nil, pfx.Err(err)
	}
	p.NSamples = uint32(len(p.Samples))
	for i, s := range p.Samples {
		if s.Founder() {
			p.founders = append(p.founders, i)
		}
	}

	bim, err := OpenStream(ctx, prefix+".bim", CompressionDisabled)
	if err != nil {
		return nil, pfx.Err(err)
	}
	p.loci, err = ReadBIM(bim, p.BEDPath)
	bim.Close()
	if err != nil {
		return nil, pfx.Err(err)
	}
	p.NVariants = uint32(len(p.loci))
	if p.index, err = indexLoci(p.loci); err != nil {
		return nil, pfx.Err(err)
	}

	p.File, err = OpenReaderAt(ctx, p.BEDPath)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if err := populateBEDHeader(p); err != nil {
		p.File.Close()
		return nil, pfx.Err(err)
	}

	p.reader = p.newGenotypeReader()

	return p, nil
}

func (p *Panel) Close() error {
	if p.File == nil {
		return nil
	}
	return p.File.Close()
}

func populateBEDHeader(p *Panel) error {
	buffer := make([]byte, 3)
	if err := p.parseAtOffsetWithBuffer(offsetMagicNumber, buffer); err != nil {
		return pfx.Err(err)
	}

	if buffer[0] != MagicNumber[0] || buffer[1] != MagicNumber[1] {
		return pfx.Err(fmt.Errorf("The bed header is expected to start with the Magic Number %v, but instead starts with %v", MagicNumber, buffer[:2]))
	}

	p.Mode = Mode(buffer[offsetMode])
	if p.Mode != ModeSNPMajor {
		return pfx.Err(fmt.Errorf("%s is in %s mode; only %s files are supported", p.BEDPath, p.Mode, ModeSNPMajor))
	}

	if p.NVariants == 0 {
		return nil
	}

	// The final byte of the final block has to be there
	last := int64(offsetVariants) + int64(p.NVariants)*int64(BlockSize(int(p.NSamples))) - 1
	if err := p.parseAtOffsetWithBuffer(last, buffer[:1]); err != nil {
		return pfx.Err(fmt.Errorf("%s is too short for %d variants and %d samples: %w", p.BEDPath, p.NVariants, p.NSamples, err))
	}

	return nil
}

func (p *Panel) parseAtOffsetWithBuffer(offset int64, buffer []byte) error {
	_, err := p.File.ReadAt(buffer, offset)
	if err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Founders is the number of samples without parents in the fileset. Only
// founders enter LD estimation.
func (p *Panel) Founders() int {
	return len(p.founders)
}

func (p *Panel) Locus(id string) (Locus, bool) {
	i, ok := p.index[id]
	if !ok {
		return Locus{}, false
	}
	return p.loci[i], true
}

// Loci lists the variants of the fileset in bim order.
func (p *Panel) Loci() []Locus {
	return p.loci
}

// ReadGenotype returns the founders' bed block for id. The slice is reused by
// the next call.
func (p *Panel) ReadGenotype(id string) ([]byte, error) {
	i, ok := p.index[id]
	if !ok {
		return nil, pfx.Err(fmt.Errorf("variant %s is not in %s", id, p.BEDPath))
	}
	return p.reader.ReadFounders(i)
}

func indexLoci(loci []Locus) (map[string]int, error) {
	index := make(map[string]int, len(loci))
	for i, l := range loci {
		if _, exists := index[l.ID]; exists {
			return nil, fmt.Errorf("variant ID %s is duplicated in %s", l.ID, l.File)
		}
		index[l.ID] = i
	}
	return index, nil
}
