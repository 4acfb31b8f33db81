package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256HasherStableDigest(t *testing.T) {
	h := SHA256Hasher{}

	got, err := h.Hash(context.Background(), strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)

	again, err := h.Hash(context.Background(), strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestSHA256HasherEmptyStream(t *testing.T) {
	h := SHA256Hasher{}
	got, err := h.Hash(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestSHA256HasherCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SHA256Hasher{}.Hash(ctx, strings.NewReader("abc"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
