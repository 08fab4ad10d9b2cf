package storage

import (
	"context"
	"io"
)

// BlobStore is the attachment byte store. Keys are opaque slash-separated
// paths; the first segment is the owning company id.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}
