package words_test

import (
	"context"
	"errors"
	"testing"

	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/store"
	"github.com/scythe504/wordrace-backend/internal/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{}

func (failingSource) Load(context.Context) ([]string, error) {
	return nil, errors.New("boom")
}

func TestSupplyPickEmpty(t *testing.T) {
	supply := words.NewSupply(store.NewMemory())

	_, err := supply.Pick(context.Background())
	assert.ErrorIs(t, err, internal.ErrNoWordsAvailable)
}

func TestSupplySeed(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	supply := words.NewSupply(s)

	n, err := supply.Seed(ctx, words.StaticSource{"Apple", "pear", "apple"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A populated pool is never reloaded.
	n, err = supply.Seed(ctx, failingSource{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for range 20 {
		w, err := supply.Pick(ctx)
		require.NoError(t, err)
		assert.Contains(t, []string{"apple", "pear"}, w)
	}
}

func TestSupplySeedSourceError(t *testing.T) {
	supply := words.NewSupply(store.NewMemory())
	_, err := supply.Seed(context.Background(), failingSource{})
	assert.Error(t, err)
}
