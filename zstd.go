package ldclump

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

func newZStandardReader(rc io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(rc)
	if err != nil {
		return nil, err
	}
	return &stackedCloser{Reader: dec, closers: []io.Closer{zstdCloser{dec}, rc}}, nil
}

// zstd.Decoder.Close returns nothing
type zstdCloser struct {
	dec *zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.dec.Close()
	return nil
}
