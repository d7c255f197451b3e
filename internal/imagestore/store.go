// Package imagestore resolves opaque image references for puzzle
// sessions. A reference is either a locator into the blob store
// ("img:<uuid>") or a self-contained data: URI; consumers never branch
// on which form they got.
package imagestore

import (
	"context"
	"errors"
	"strings"

	"puzzle_sync/internal/logger"
)

var ErrNotFound = errors.New("imagestore: no such image")

// Blobs is the storage half of the adapter.
type Blobs interface {
	Put(ctx context.Context, data []byte, contentType string) (ref string, err error)
	Get(ctx context.Context, ref string) (data []byte, contentType string, err error)
}

// Adapter fronts the blob store with the recovery rule the protocol
// expects: when the store is missing or fails, Upload falls back to
// the self-contained data: URI encoding instead of erroring out.
type Adapter struct {
	blobs Blobs // nil when no database is configured
}

func NewAdapter(blobs Blobs) *Adapter {
	return &Adapter{blobs: blobs}
}

// Upload returns an opaque reference for the bytes. Never fails: the
// inline encoding is always available.
func (a *Adapter) Upload(ctx context.Context, data []byte, contentType string) string {
	if a.blobs != nil {
		ref, err := a.blobs.Put(ctx, data, contentType)
		if err == nil {
			return ref
		}
		logger.Warn("image upload failed, falling back to inline encoding", "error", err)
	}
	return InlineRef(data, contentType)
}

// Resolve returns the bytes behind a reference. Inline references
// resolve locally; store references hit the blob store.
func (a *Adapter) Resolve(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "data:") {
		return DecodeInline(ref)
	}
	if a.blobs == nil {
		return nil, "", ErrNotFound
	}
	return a.blobs.Get(ctx, ref)
}
