package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/cartshop/internal/model"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	now := time.Now()
	older := model.Receipt{ID: uuid.New(), SessionID: "s1", Total: 100, PaidAt: now.Add(-time.Minute)}
	newer := model.Receipt{ID: uuid.New(), SessionID: "s1", Total: 200, PaidAt: now}
	other := model.Receipt{ID: uuid.New(), SessionID: "s2", Total: 300, PaidAt: now}

	for _, rc := range []model.Receipt{older, newer, other} {
		require.NoError(t, repo.SaveReceipt(ctx, rc))
	}

	err := repo.SaveReceipt(ctx, older)
	assert.ErrorIs(t, err, ErrReceiptExists)

	res, err := repo.ReceiptsBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, newer.ID, res[0].ID)
	assert.Equal(t, older.ID, res[1].ID)

	res, err = repo.ReceiptsBySession(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, res)
}
