package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/repository"
)

var (
	ErrInvalidAmount      = errors.New("amount must be a positive integer")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

type CustomerRepository interface {
	GetByPhone(ctx context.Context, merchantID, phone string) (*model.Customer, error)
	GetBalance(ctx context.Context, merchantID, phone string) (int64, error)
	CreditPoints(ctx context.Context, merchantID, phone string, amount int64) (*model.Customer, error)
	DebitPoints(ctx context.Context, customerID string, cost int64) error
	CountCreatedBetween(ctx context.Context, merchantID string, from, to time.Time) (int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	List(ctx context.Context, merchantID string, f model.TransactionFilter) ([]*model.Transaction, int64, error)
	Summarize(ctx context.Context, merchantID string, from, to time.Time) (*model.LedgerSummary, error)
}

// LedgerService maintains per-customer balances and the append-only
// transaction log. Balance write and log append always share one database
// transaction, so the log can never drift from the balance: a failed append
// rolls the balance mutation back.
type LedgerService struct {
	customerRepo CustomerRepository
	txnRepo      TransactionRepository
}

func NewLedgerService(customerRepo CustomerRepository, txnRepo TransactionRepository) *LedgerService {
	return &LedgerService{
		customerRepo: customerRepo,
		txnRepo:      txnRepo,
	}
}

// GetBalance treats an unknown (merchant, phone) pair as a zero balance and
// never creates a row for it.
func (s *LedgerService) GetBalance(ctx context.Context, merchantID, phone string) (int64, error) {
	if !model.ValidPhone(phone) {
		return 0, model.ErrInvalidPhone
	}

	balance, err := s.customerRepo.GetBalance(ctx, merchantID, phone)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// AddPoints credits a customer and logs an add entry, creating the customer
// on first use. This is the sole creation path for a customer row. The
// operation is additive, not idempotent: two calls credit twice.
func (s *LedgerService) AddPoints(ctx context.Context, merchantID, phone string, amount int64) (int64, error) {
	if !model.ValidPhone(phone) {
		return 0, model.ErrInvalidPhone
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := s.withRetry(ctx, func() error {
		return s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
			customer, err := s.customerRepo.CreditPoints(ctx, merchantID, phone, amount)
			if err != nil {
				return fmt.Errorf("credit points: %w", err)
			}

			_, err = s.txnRepo.Create(ctx, &model.Transaction{
				MerchantID: merchantID,
				CustomerID: customer.ID,
				Type:       model.TypeAdd,
				Amount:     amount,
			})
			if err != nil {
				// Rolls back the credit, balance and log stay consistent.
				return fmt.Errorf("append transaction: %w", err)
			}

			balance = customer.Points
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// RedeemPoints debits a customer and logs a redeem entry. The bool result is
// false when the customer is unknown or the balance is short of cost: a
// declined redemption is a normal outcome, not an error, and leaves both the
// balance and the log untouched. Callers must not retry or log it as a
// failure.
func (s *LedgerService) RedeemPoints(ctx context.Context, merchantID, phone string, cost int64, manual bool) (int64, bool, error) {
	if !model.ValidPhone(phone) {
		return 0, false, model.ErrInvalidPhone
	}
	if cost <= 0 {
		return 0, false, ErrInvalidAmount
	}

	txnType := model.TypeRedeem
	if manual {
		txnType = model.TypeManualRedeem
	}

	var (
		balance  int64
		redeemed bool
	)
	err := s.withRetry(ctx, func() error {
		balance, redeemed = 0, false
		return s.customerRepo.WithinTransaction(ctx, func(ctx context.Context) error {
			customer, err := s.customerRepo.GetByPhone(ctx, merchantID, phone)
			if err != nil {
				if errors.Is(err, repository.ErrCustomerNotFound) {
					return nil // declined, unknown customer reads as zero
				}
				return fmt.Errorf("read customer: %w", err)
			}

			balance = customer.Points
			if customer.Points < cost {
				return nil // declined, no mutation
			}

			err = s.customerRepo.DebitPoints(ctx, customer.ID, cost)
			if err != nil {
				if errors.Is(err, repository.ErrInsufficientBalance) {
					// A concurrent redeem drained the balance between the
					// read and the guarded update.
					return nil
				}
				return fmt.Errorf("debit points: %w", err)
			}

			_, err = s.txnRepo.Create(ctx, &model.Transaction{
				MerchantID: merchantID,
				CustomerID: customer.ID,
				Type:       txnType,
				Amount:     cost,
			})
			if err != nil {
				return fmt.Errorf("append transaction: %w", err)
			}

			balance = customer.Points - cost
			redeemed = true
			return nil
		})
	})
	if err != nil {
		return 0, false, err
	}

	return balance, redeemed, nil
}

// History returns a page of the merchant's ledger.
func (s *LedgerService) History(ctx context.Context, merchantID string, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	if f.Phone != nil && !model.ValidPhone(*f.Phone) {
		return nil, 0, model.ErrInvalidPhone
	}
	return s.txnRepo.List(ctx, merchantID, f)
}

// withRetry re-runs fn on transient store failures with exponential
// backoff: 2ms, 4ms, 8ms.
func (s *LedgerService) withRetry(ctx context.Context, fn func() error) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, model.ErrInvalidPhone) || errors.Is(err, ErrInvalidAmount) {
			return err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, err)
}
