package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDigestCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryDigestCache()

	_, ok, err := c.GetDigest(ctx, "photo.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetDigest(ctx, "photo.jpg", "abc"))
	digest, ok, err := c.GetDigest(ctx, "photo.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", digest)

	require.NoError(t, c.DeleteDigest(ctx, "photo.jpg"))
	_, ok, _ = c.GetDigest(ctx, "photo.jpg")
	assert.False(t, ok)
}

func TestNoopDigestCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopDigestCache()

	require.NoError(t, c.SetDigest(ctx, "photo.jpg", "abc"))
	_, ok, err := c.GetDigest(ctx, "photo.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}
