package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"bankroll/internal/storage"
	"bankroll/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "data", "bankroll.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Gateway { return openTemp(t) })
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankroll.db")

	first, err := Open(path)
	require.NoError(t, err)
	_, err = first.CreateBet(context.Background(), storagetest.NewBet("Dodgers", "12.5", "2.1"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	bets, err := second.ListBets(context.Background())
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, "26.25", bets[0].PotentialPayout.StringFixed(2))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
