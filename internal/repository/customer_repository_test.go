package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository_CreditPoints(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCustomerRepository(db)
	ctx := context.Background()
	merchantID := uuid.NewString()

	t.Run("first credit creates the customer", func(t *testing.T) {
		customer, err := repo.CreditPoints(ctx, merchantID, "0912345678", 5)
		require.NoError(t, err)
		assert.NotEmpty(t, customer.ID)
		assert.Equal(t, merchantID, customer.MerchantID)
		assert.Equal(t, "0912345678", customer.Phone)
		assert.Equal(t, int64(5), customer.Points)
	})

	t.Run("second credit increments the same row", func(t *testing.T) {
		first, err := repo.CreditPoints(ctx, merchantID, "0922222222", 3)
		require.NoError(t, err)

		second, err := repo.CreditPoints(ctx, merchantID, "0922222222", 4)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(7), second.Points)
	})

	t.Run("same phone under another merchant is a separate account", func(t *testing.T) {
		otherMerchant := uuid.NewString()

		a, err := repo.CreditPoints(ctx, merchantID, "0933333333", 10)
		require.NoError(t, err)
		b, err := repo.CreditPoints(ctx, otherMerchant, "0933333333", 20)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, int64(10), a.Points)
		assert.Equal(t, int64(20), b.Points)
	})
}

func TestCustomerRepository_DebitPoints(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCustomerRepository(db)
	ctx := context.Background()
	merchantID := uuid.NewString()

	t.Run("successful debit", func(t *testing.T) {
		customer, err := repo.CreditPoints(ctx, merchantID, "0911111111", 10)
		require.NoError(t, err)

		err = repo.DebitPoints(ctx, customer.ID, 4)
		assert.NoError(t, err)

		balance, err := repo.GetBalance(ctx, merchantID, "0911111111")
		require.NoError(t, err)
		assert.Equal(t, int64(6), balance)
	})

	t.Run("insufficient balance leaves the row untouched", func(t *testing.T) {
		customer, err := repo.CreditPoints(ctx, merchantID, "0922222223", 3)
		require.NoError(t, err)

		err = repo.DebitPoints(ctx, customer.ID, 5)
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		balance, err := repo.GetBalance(ctx, merchantID, "0922222223")
		require.NoError(t, err)
		assert.Equal(t, int64(3), balance)
	})

	t.Run("debit to exactly zero", func(t *testing.T) {
		customer, err := repo.CreditPoints(ctx, merchantID, "0933333334", 5)
		require.NoError(t, err)

		err = repo.DebitPoints(ctx, customer.ID, 5)
		assert.NoError(t, err)

		balance, err := repo.GetBalance(ctx, merchantID, "0933333334")
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("unknown customer", func(t *testing.T) {
		err := repo.DebitPoints(ctx, uuid.NewString(), 1)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})
}

func TestCustomerRepository_GetBalance(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCustomerRepository(db)
	ctx := context.Background()
	merchantID := uuid.NewString()

	t.Run("unknown customer", func(t *testing.T) {
		_, err := repo.GetBalance(ctx, merchantID, "0900000000")
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("existing customer", func(t *testing.T) {
		_, err := repo.CreditPoints(ctx, merchantID, "0944444444", 12)
		require.NoError(t, err)

		balance, err := repo.GetBalance(ctx, merchantID, "0944444444")
		require.NoError(t, err)
		assert.Equal(t, int64(12), balance)
	})
}

func TestCustomerRepository_CountCreatedBetween(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewCustomerRepository(db)
	ctx := context.Background()
	merchantID := uuid.NewString()

	for _, phone := range []string{"0911111111", "0922222222", "0933333333"} {
		_, err := repo.CreditPoints(ctx, merchantID, phone, 1)
		require.NoError(t, err)
	}

	now := time.Now()

	count, err := repo.CountCreatedBetween(ctx, merchantID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = repo.CountCreatedBetween(ctx, merchantID, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = repo.CountCreatedBetween(ctx, uuid.NewString(), now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
