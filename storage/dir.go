package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// DirBucket keeps objects as files below a root directory.
type DirBucket struct {
	root    string
	baseURL string
}

func NewDirBucket(root, baseURL string) (*DirBucket, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, pkgerrors.Wrap(err, "storage.dir.mkdir")
	}
	return &DirBucket{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory to serve for public URLs.
func (b *DirBucket) Root() string {
	return b.root
}

func (b *DirBucket) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", pkgerrors.Errorf("storage.dir: invalid key %q", key)
	}
	return filepath.Join(b.root, filepath.FromSlash(clean)), nil
}

func (b *DirBucket) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return pkgerrors.Wrap(err, "storage.dir.mkdir")
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrExists
	}
	if err != nil {
		return pkgerrors.Wrap(err, "storage.dir.create")
	}

	_, err = io.Copy(f, readerWithContext(ctx, r))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(p)
		return pkgerrors.Wrap(err, "storage.dir.write")
	}
	return nil
}

func (b *DirBucket) PublicURL(key string) string {
	return b.baseURL + "/" + strings.TrimLeft(key, "/")
}

// Remove deletes the given keys; missing files are not an error.
func (b *DirBucket) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := b.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return pkgerrors.Wrap(err, "storage.dir.remove")
		}
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx, r}
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
