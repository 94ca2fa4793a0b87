package repository

import (
	"context"
	"errors"
	"time"

	"github.com/arashpm/points-gateway/internal/model"

	"github.com/arashpm/points-gateway/pkg/pg"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMerchantNotFound    = errors.New("merchant not found")
	ErrProfileNotFound     = errors.New("profile not found")
)

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

// GetByPhone reads the customer row for a (merchant, phone) pair. Absence is
// signaled distinctly so callers can treat the balance as zero.
func (r *CustomerRepository) GetByPhone(ctx context.Context, merchantID, phone string) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("merchant_id = ? AND phone = ?", merchantID, phone).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return toCustomerModel(&entity), nil
}

func (r *CustomerRepository) GetBalance(ctx context.Context, merchantID, phone string) (int64, error) {
	var entity CustomerEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("points").
		Where("merchant_id = ? AND phone = ?", merchantID, phone).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCustomerNotFound
		}
		return 0, err
	}

	return entity.Points, nil
}

// CreditPoints credits a (merchant, phone) pair and returns the resulting
// row. The upsert is a single atomic statement: first touch creates the
// customer with points = amount, later touches increment server-side, so
// concurrent credits never lose an update.
func (r *CustomerRepository) CreditPoints(ctx context.Context, merchantID, phone string, amount int64) (*model.Customer, error) {
	entity := &CustomerEntity{
		ID:         uuid.NewString(),
		MerchantID: merchantID,
		Phone:      phone,
		Points:     amount,
	}

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "merchant_id"}, {Name: "phone"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":     gorm.Expr("points + ?", amount),
				"updated_at": time.Now(),
			}),
		}).
		Create(entity).
		Error
	if err != nil {
		return nil, err
	}

	// Re-read through the write connection so a surrounding transaction
	// sees its own upsert.
	var out CustomerEntity
	err = r.Write(ctx).WithContext(ctx).
		Where("merchant_id = ? AND phone = ?", merchantID, phone).
		First(&out).
		Error
	if err != nil {
		return nil, err
	}

	return toCustomerModel(&out), nil
}

// DebitPoints debits a customer row guarded by a points >= cost condition
// evaluated inside the store. Zero rows affected means the balance was
// insufficient, including when it was drained concurrently.
func (r *CustomerRepository) DebitPoints(ctx context.Context, customerID string, cost int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("id = ? AND points >= ?", customerID, cost).
		Update("points", gorm.Expr("points - ?", cost))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}

	return nil
}

// CountCreatedBetween counts customers whose first transaction fell inside
// the window, i.e. new members for a report day.
func (r *CustomerRepository) CountCreatedBetween(ctx context.Context, merchantID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Where("merchant_id = ? AND created_at >= ? AND created_at < ?", merchantID, from, to).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
