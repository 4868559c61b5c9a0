package rowbase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/rowbase"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := rowbase.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.PageSize)
	assert.Equal(t, 1024, cfg.MaxPages)
	assert.True(t, cfg.EnableParallelSorting)
	assert.True(t, cfg.EnablePrefixIndex)
	assert.True(t, cfg.EnableSuffixIndex)
	assert.NotNil(t, cfg.Logger)
}

func TestNewConfigAppliesOptions(t *testing.T) {
	cfg, err := rowbase.NewConfig(
		rowbase.WithPageSize(128),
		rowbase.WithMaxPages(8),
		rowbase.WithInitialPages(2),
		rowbase.WithParallelSorting(false),
		rowbase.WithParallelSortThreshold(100),
		rowbase.WithPrefixIndex(false),
		rowbase.WithSuffixIndex(false),
	)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.PageSize)
	assert.Equal(t, 8, cfg.MaxPages)
	assert.Equal(t, 2, cfg.InitialPages)
	assert.False(t, cfg.EnableParallelSorting)
	assert.Equal(t, 100, cfg.ParallelSortThreshold)
	assert.False(t, cfg.EnablePrefixIndex)
	assert.False(t, cfg.EnableSuffixIndex)
}

func TestNewConfigRejectsBadOptions(t *testing.T) {
	_, err := rowbase.NewConfig(rowbase.WithPageSize(0))
	require.Error(t, err)
	assert.True(t, rowbase.IsBadInput(err))

	_, err = rowbase.NewConfig(rowbase.WithMaxPages(-1))
	require.Error(t, err)
	assert.True(t, rowbase.IsBadInput(err))

	_, err = rowbase.NewConfig(rowbase.WithLogger(nil))
	require.Error(t, err)
	assert.True(t, rowbase.IsBadInput(err))
}

func TestMustNewConfigPanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		rowbase.MustNewConfig(rowbase.WithPageSize(-1))
	})
}
