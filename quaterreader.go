package ldclump

import (
	"io"
)

// quaterReader yields the 2-bit genotype codes of a PLINK bed block. Codes are
// packed four to a byte, starting at the least significant bits.
type quaterReader struct {
	reader io.ByteReader
	byte   byte
	offset byte

	errCache error
	lastCode byte
}

func newQuaterReader(r io.ByteReader) *quaterReader {
	return &quaterReader{reader: r}
}

func (r *quaterReader) ReadCode() (byte, error) {
	if r.offset == 4 {
		r.offset = 0
	}
	if r.offset == 0 {
		if r.byte, r.errCache = r.reader.ReadByte(); r.errCache != nil {
			return 0, r.errCache
		}
	}
	r.lastCode = (r.byte >> (2 * r.offset)) & 3
	r.offset++
	return r.lastCode, nil
}
