package imagestore

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestInlineRoundTrip(t *testing.T) {
	data := []byte("\x89PNG fake image bytes")
	ref := InlineRef(data, "image/png")
	if !strings.HasPrefix(ref, "data:image/png;base64,") {
		t.Fatalf("unexpected ref prefix: %s", ref)
	}

	got, contentType, err := DecodeInline(ref)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if contentType != "image/png" || string(got) != string(data) {
		t.Fatalf("round trip mismatch: %s %q", contentType, got)
	}
}

func TestInlineDefaultsContentType(t *testing.T) {
	ref := InlineRef([]byte("x"), "")
	if !strings.HasPrefix(ref, "data:application/octet-stream;") {
		t.Fatalf("unexpected ref: %s", ref)
	}
}

type failingBlobs struct{}

func (failingBlobs) Put(context.Context, []byte, string) (string, error) {
	return "", errors.New("store down")
}
func (failingBlobs) Get(context.Context, string) ([]byte, string, error) {
	return nil, "", errors.New("store down")
}

// Upload must not fail: a broken blob store falls back to the
// self-contained encoding.
func TestUploadFallsBackToInline(t *testing.T) {
	a := NewAdapter(failingBlobs{})
	ref := a.Upload(context.Background(), []byte("pixels"), "image/jpeg")
	if !strings.HasPrefix(ref, "data:") {
		t.Fatalf("expected inline fallback, got %s", ref)
	}

	data, contentType, err := a.Resolve(context.Background(), ref)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if contentType != "image/jpeg" || string(data) != "pixels" {
		t.Fatalf("resolve mismatch: %s %q", contentType, data)
	}
}

func TestUploadWithoutStoreIsInline(t *testing.T) {
	a := NewAdapter(nil)
	ref := a.Upload(context.Background(), []byte("pixels"), "image/png")
	if !strings.HasPrefix(ref, "data:") {
		t.Fatalf("expected inline ref, got %s", ref)
	}

	if _, _, err := a.Resolve(context.Background(), "img:0000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
