package ldclump

import (
	"bytes"
	"fmt"

	"github.com/carbocation/pfx"
)

// genotypeReader pulls variant blocks out of a bed file. It reuses its
// buffers, so it is not safe for concurrent use and the returned slices are
// only valid until the next read.
type genotypeReader struct {
	p         *Panel
	blockSize int

	// Cached values
	buffer   []byte
	founders []byte
}

func (p *Panel) newGenotypeReader() *genotypeReader {
	return &genotypeReader{
		p:         p,
		blockSize: BlockSize(int(p.NSamples)),
	}
}

// ReadBlock returns the raw block of the variant in bim row idx, covering
// every sample.
func (gr *genotypeReader) ReadBlock(idx int) ([]byte, error) {
	if idx < 0 || uint32(idx) >= gr.p.NVariants {
		return nil, pfx.Err(fmt.Errorf("variant index %d is outside [0,%d)", idx, gr.p.NVariants))
	}

	offset := int64(offsetVariants) + int64(idx)*int64(gr.blockSize)
	if err := gr.readNBytesAtOffset(gr.blockSize, offset); err != nil {
		return nil, pfx.Err(err)
	}

	return gr.buffer[:gr.blockSize], nil
}

// ReadFounders returns the block of the variant in bim row idx repacked to
// hold the founders only.
func (gr *genotypeReader) ReadFounders(idx int) ([]byte, error) {
	block, err := gr.ReadBlock(idx)
	if err != nil {
		return nil, err
	}

	if len(gr.p.founders) == int(gr.p.NSamples) {
		return block, nil
	}

	n := BlockSize(len(gr.p.founders))
	if cap(gr.founders) < n {
		gr.founders = make([]byte, n)
	}
	gr.founders = gr.founders[:n]
	for i := range gr.founders {
		gr.founders[i] = 0
	}

	qr := newQuaterReader(bytes.NewReader(block))
	next := 0
	for sample := 0; sample < int(gr.p.NSamples) && next < len(gr.p.founders); sample++ {
		code, err := qr.ReadCode()
		if err != nil {
			return nil, pfx.Err(err)
		}
		if gr.p.founders[next] != sample {
			continue
		}
		gr.founders[next/4] |= code << (2 * uint(next%4))
		next++
	}

	return gr.founders, nil
}

func (gr *genotypeReader) readNBytesAtOffset(N int, offset int64) error {
	if gr.buffer == nil || len(gr.buffer) < N {
		gr.buffer = make([]byte, N)
	}

	_, err := gr.p.File.ReadAt(gr.buffer[:N], offset)
	return err
}
