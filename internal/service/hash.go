package service

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/net/context"
)

// Hasher digests a byte stream into a stable, namespaced content hash.
// Identical bytes must always produce the identical string.
type Hasher interface {
	Hash(ctx context.Context, r io.Reader) (string, error)
}

// SHA256Hasher produces "sha256:"-prefixed lowercase hex digests.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(ctx context.Context, r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: r}); err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// ctxReader aborts a long hashing pass once the context is cancelled,
// instead of draining the rest of the stream first.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
