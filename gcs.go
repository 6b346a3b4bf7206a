package ldclump

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

const gsPrefix = "gs://"

type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// OpenReaderAt opens a local path, or an object on Google Storage when path
// starts with gs://, for random access.
func OpenReaderAt(ctx context.Context, path string) (ReaderAtCloser, error) {
	if !strings.HasPrefix(path, gsPrefix) {
		f, err := os.Open(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return f, nil
	}

	client, obj, err := gsObject(ctx, path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &gsReaderAt{ctx: ctx, client: client, obj: obj}, nil
}

// OpenStream opens a local path or gs:// object for sequential reading,
// decompressing it as instructed.
func OpenStream(ctx context.Context, path string, comp Compression) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if strings.HasPrefix(path, gsPrefix) {
		client, obj, err := gsObject(ctx, path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		r, err := obj.NewReader(ctx)
		if err != nil {
			client.Close()
			return nil, pfx.Err(err)
		}
		raw = &gsStream{Reader: r, client: client}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		raw = f
	}

	rc, err := Decompress(raw, comp)
	if err != nil {
		raw.Close()
		return nil, pfx.Err(err)
	}
	return rc, nil
}

func gsObject(ctx context.Context, path string) (*storage.Client, *storage.ObjectHandle, error) {
	bucket, object, found := strings.Cut(strings.TrimPrefix(path, gsPrefix), "/")
	if !found || bucket == "" || object == "" {
		return nil, nil, fmt.Errorf("%s is not of the form gs://bucket/object", path)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	return client, client.Bucket(bucket).Object(object), nil
}

// gsReaderAt issues one ranged read per ReadAt call.
type gsReaderAt struct {
	ctx    context.Context
	client *storage.Client
	obj    *storage.ObjectHandle
}

func (g *gsReaderAt) ReadAt(p []byte, off int64) (int, error) {
	r, err := g.obj.NewRangeReader(g.ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func (g *gsReaderAt) Close() error {
	return g.client.Close()
}

type gsStream struct {
	*storage.Reader
	client *storage.Client
}

func (g *gsStream) Close() error {
	err := g.Reader.Close()
	if cerr := g.client.Close(); err == nil {
		err = cerr
	}
	return err
}
