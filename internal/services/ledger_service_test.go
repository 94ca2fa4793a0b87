package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/repository"
)

func setupLedger(t *testing.T) (*LedgerService, *repository.TransactionRepository) {
	db := setupTestDB(t)
	customerRepo := repository.NewCustomerRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	return NewLedgerService(customerRepo, txnRepo), txnRepo
}

func TestLedgerService_GetBalance(t *testing.T) {
	svc, _ := setupLedger(t)
	ctx := context.Background()
	merchantID := uuid.NewString()

	t.Run("unknown customer reads as zero", func(t *testing.T) {
		balance, err := svc.GetBalance(ctx, merchantID, "0912345678")
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)

		// Reading must not create a row, so history stays empty.
		items, total, err := svc.History(ctx, merchantID, model.TransactionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, items)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := svc.GetBalance(ctx, merchantID, "12345")
		assert.ErrorIs(t, err, model.ErrInvalidPhone)
	})
}

func TestLedgerService_AddPoints(t *testing.T) {
	svc, _ := setupLedger(t)
	ctx := context.Background()
	merchantID := uuid.NewString()

	t.Run("first add creates the customer", func(t *testing.T) {
		balance, err := svc.AddPoints(ctx, merchantID, "0911111111", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), balance)
	})

	t.Run("sequential adds sum", func(t *testing.T) {
		phone := "0922222222"
		amounts := []int64{1, 2, 3, 5}
		var want int64
		for _, a := range amounts {
			want += a
			balance, err := svc.AddPoints(ctx, merchantID, phone, a)
			require.NoError(t, err)
			assert.Equal(t, want, balance)
		}
	})

	t.Run("adds are not idempotent", func(t *testing.T) {
		phone := "0933333333"
		_, err := svc.AddPoints(ctx, merchantID, phone, 4)
		require.NoError(t, err)
		balance, err := svc.AddPoints(ctx, merchantID, phone, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(8), balance)
	})

	t.Run("every add appends one log entry", func(t *testing.T) {
		phone := "0944444444"
		for i := 0; i < 3; i++ {
			_, err := svc.AddPoints(ctx, merchantID, phone, 2)
			require.NoError(t, err)
		}

		items, total, err := svc.History(ctx, merchantID, model.TransactionFilter{Phone: &phone})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		for _, item := range items {
			assert.Equal(t, model.TypeAdd, item.Type)
			assert.Equal(t, int64(2), item.Amount)
		}
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := svc.AddPoints(ctx, merchantID, "0955555555", 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = svc.AddPoints(ctx, merchantID, "0955555555", -3)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		balance, err := svc.GetBalance(ctx, merchantID, "0955555555")
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := svc.AddPoints(ctx, merchantID, "not-a-phone", 1)
		assert.ErrorIs(t, err, model.ErrInvalidPhone)
	})
}

func TestLedgerService_RedeemPoints(t *testing.T) {
	svc, _ := setupLedger(t)
	ctx := context.Background()
	merchantID := uuid.NewString()

	t.Run("successful redemption", func(t *testing.T) {
		phone := "0911111111"
		_, err := svc.AddPoints(ctx, merchantID, phone, 10)
		require.NoError(t, err)

		balance, redeemed, err := svc.RedeemPoints(ctx, merchantID, phone, 4, false)
		require.NoError(t, err)
		assert.True(t, redeemed)
		assert.Equal(t, int64(6), balance)

		redeem := model.TypeRedeem
		items, total, err := svc.History(ctx, merchantID, model.TransactionFilter{Phone: &phone, Type: &redeem})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, int64(4), items[0].Amount)
	})

	t.Run("declined for unknown customer", func(t *testing.T) {
		balance, redeemed, err := svc.RedeemPoints(ctx, merchantID, "0900000000", 5, false)
		require.NoError(t, err)
		assert.False(t, redeemed)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("declined for insufficient balance leaves state untouched", func(t *testing.T) {
		phone := "0922222222"
		_, err := svc.AddPoints(ctx, merchantID, phone, 3)
		require.NoError(t, err)

		balance, redeemed, err := svc.RedeemPoints(ctx, merchantID, phone, 5, false)
		require.NoError(t, err)
		assert.False(t, redeemed)
		assert.Equal(t, int64(3), balance)

		// No redeem entry was logged.
		redeem := model.TypeRedeem
		_, total, err := svc.History(ctx, merchantID, model.TransactionFilter{Phone: &phone, Type: &redeem})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("redeem to exactly zero", func(t *testing.T) {
		phone := "0933333333"
		_, err := svc.AddPoints(ctx, merchantID, phone, 5)
		require.NoError(t, err)

		balance, redeemed, err := svc.RedeemPoints(ctx, merchantID, phone, 5, false)
		require.NoError(t, err)
		assert.True(t, redeemed)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("manual redemption is logged with its own type", func(t *testing.T) {
		phone := "0944444444"
		_, err := svc.AddPoints(ctx, merchantID, phone, 8)
		require.NoError(t, err)

		_, redeemed, err := svc.RedeemPoints(ctx, merchantID, phone, 3, true)
		require.NoError(t, err)
		assert.True(t, redeemed)

		manual := model.TypeManualRedeem
		items, total, err := svc.History(ctx, merchantID, model.TransactionFilter{Phone: &phone, Type: &manual})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, int64(3), items[0].Amount)
	})

	t.Run("invalid cost", func(t *testing.T) {
		_, _, err := svc.RedeemPoints(ctx, merchantID, "0955555555", 0, false)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestLedgerService_History(t *testing.T) {
	svc, _ := setupLedger(t)
	ctx := context.Background()
	merchantID := uuid.NewString()

	phone := "0911111111"
	_, err := svc.AddPoints(ctx, merchantID, phone, 5)
	require.NoError(t, err)
	_, _, err = svc.RedeemPoints(ctx, merchantID, phone, 2, false)
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		items, total, err := svc.History(ctx, merchantID, model.TransactionFilter{Desc: true})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, items, 2)
		assert.Equal(t, model.TypeRedeem, items[0].Type)
		assert.Equal(t, model.TypeAdd, items[1].Type)
	})

	t.Run("invalid phone filter", func(t *testing.T) {
		bad := "nope"
		_, _, err := svc.History(ctx, merchantID, model.TransactionFilter{Phone: &bad})
		assert.ErrorIs(t, err, model.ErrInvalidPhone)
	})
}

func TestLedgerService_ConcurrentAddsSerialize(t *testing.T) {
	svc, _ := setupLedger(t)
	ctx := context.Background()
	merchantID := uuid.NewString()
	phone := "0933333333"

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddPoints(ctx, merchantID, phone, 5)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// No credit may be lost: 10 concurrent +5 on 0 yield exactly 50.
	balance, err := svc.GetBalance(ctx, merchantID, phone)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	_, total, err := svc.History(ctx, merchantID, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestLedgerService_ConcurrentRedeemsNeverOverdraw(t *testing.T) {
	svc, _ := setupLedger(t)
	ctx := context.Background()
	merchantID := uuid.NewString()
	phone := "0944444444"

	_, err := svc.AddPoints(ctx, merchantID, phone, 20)
	require.NoError(t, err)

	type outcome struct {
		redeemed bool
		err      error
	}

	var wg sync.WaitGroup
	results := make(chan outcome, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, redeemed, err := svc.RedeemPoints(ctx, merchantID, phone, 5, false)
			results <- outcome{redeemed, err}
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for res := range results {
		require.NoError(t, res.err)
		if res.redeemed {
			succeeded++
		}
	}

	// Only 4 of the 10 redemptions fit into the balance of 20.
	assert.Equal(t, 4, succeeded)

	balance, err := svc.GetBalance(ctx, merchantID, phone)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, total, err := svc.History(ctx, merchantID, model.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}
