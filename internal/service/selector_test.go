package service

import (
	"testing"

	"ColdVault/internal/apperr"
	"ColdVault/internal/storage"
	"ColdVault/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSelector(t *testing.T) (*Selector, *fakeProvider, *fakeProvider) {
	t.Helper()
	minio := newFakeProvider("minio", true)
	glacier := newFakeProvider("glacier", false)
	registry := storage.NewRegistry(minio, glacier)
	sel, err := NewSelector(registry, map[string]string{
		TierStandard:    "minio",
		TierDeepArchive: "glacier",
	})
	require.NoError(t, err)
	return sel, minio, glacier
}

func TestNewSelectorRejectsEmptyRegistry(t *testing.T) {
	_, err := NewSelector(storage.NewRegistry(), nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NoProvidersAvailable))
}

func TestSelectByCategoryTier(t *testing.T) {
	sel, minio, glacier := testSelector(t)

	p, err := sel.Select(model.CategoryPhoto, 100, "")
	require.NoError(t, err)
	assert.Equal(t, glacier.Name(), p.Name())

	p, err = sel.Select(model.CategoryVideo, 100, "")
	require.NoError(t, err)
	assert.Equal(t, minio.Name(), p.Name())

	p, err = sel.Select(model.CategoryMisc, 100, "")
	require.NoError(t, err)
	assert.Equal(t, minio.Name(), p.Name())
}

func TestSelectPreferenceWins(t *testing.T) {
	sel, minio, _ := testSelector(t)

	// preference overrides even a photo's deep-archive recommendation
	p, err := sel.Select(model.CategoryPhoto, 100, "minio")
	require.NoError(t, err)
	assert.Equal(t, minio.Name(), p.Name())
}

func TestSelectPreferenceCaseInsensitive(t *testing.T) {
	sel, _, glacier := testSelector(t)

	p, err := sel.Select(model.CategoryMisc, 100, "GLACIER")
	require.NoError(t, err)
	assert.Equal(t, glacier.Name(), p.Name())
}

func TestSelectUnknownPreferenceFallsThrough(t *testing.T) {
	sel, _, glacier := testSelector(t)

	p, err := sel.Select(model.CategoryPhoto, 100, "backblaze")
	require.NoError(t, err)
	assert.Equal(t, glacier.Name(), p.Name())
}

func TestSelectFallsBackToFirstRegistered(t *testing.T) {
	glacier := newFakeProvider("glacier", false)
	minio := newFakeProvider("minio", true)
	sel, err := NewSelector(storage.NewRegistry(glacier, minio), map[string]string{
		TierDeepArchive: "gone",
	})
	require.NoError(t, err)

	// tier maps to an unregistered name, first provider wins
	p, err := sel.Select(model.CategoryPhoto, 100, "")
	require.NoError(t, err)
	assert.Equal(t, "glacier", p.Name())

	// no tier mapping at all
	p, err = sel.Select(model.CategoryVideo, 100, "")
	require.NoError(t, err)
	assert.Equal(t, "glacier", p.Name())
}
