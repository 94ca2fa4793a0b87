package repository

import (
	"context"
	"time"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/pkg/pg"
	"github.com/google/uuid"
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

// Create appends a ledger entry. Entries are never updated or deleted.
func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	entity := toTransactionEntity(txn)
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTransactionModel(entity), nil
}

// List returns a page of a merchant's ledger, newest or oldest first.
func (r *TransactionRepository) List(ctx context.Context, merchantID string, f model.TransactionFilter) ([]*model.Transaction, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("merchant_id = ?", merchantID)

	if f.Phone != nil {
		q = q.Where("customer_id IN (?)",
			r.Read(ctx).Model(&CustomerEntity{}).
				Select("id").
				Where("merchant_id = ? AND phone = ?", merchantID, *f.Phone))
	}
	if f.Type != nil {
		q = q.Where("type = ?", string(*f.Type))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	order := "created_at asc"
	if f.Desc {
		order = "created_at desc"
	}

	var entities []*TransactionEntity
	err := q.Order(order).Limit(limit).Offset(f.Offset).Find(&entities).Error
	if err != nil {
		return nil, 0, err
	}

	return toTransactionModels(entities), total, nil
}

// Summarize folds the log over [from, to) into issuance and redemption
// totals. Read-only, the aggregator never mutates the ledger.
func (r *TransactionRepository) Summarize(ctx context.Context, merchantID string, from, to time.Time) (*model.LedgerSummary, error) {
	var row struct {
		PointsIssued    int64
		PointsRedeemed  int64
		RedemptionCount int64
	}

	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Select(
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS points_issued, "+
				"COALESCE(SUM(CASE WHEN type IN (?, ?) THEN amount ELSE 0 END), 0) AS points_redeemed, "+
				"COALESCE(SUM(CASE WHEN type IN (?, ?) THEN 1 ELSE 0 END), 0) AS redemption_count",
			string(model.TypeAdd),
			string(model.TypeRedeem), string(model.TypeManualRedeem),
			string(model.TypeRedeem), string(model.TypeManualRedeem),
		).
		Where("merchant_id = ? AND created_at >= ? AND created_at < ?", merchantID, from, to).
		Scan(&row).
		Error
	if err != nil {
		return nil, err
	}

	return &model.LedgerSummary{
		PointsIssued:    row.PointsIssued,
		PointsRedeemed:  row.PointsRedeemed,
		RedemptionCount: row.RedemptionCount,
	}, nil
}
