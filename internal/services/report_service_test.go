package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/repository"
)

func setupReport(t *testing.T) (*ReportService, *LedgerService, *repository.MerchantRepository) {
	db := setupTestDB(t)
	customerRepo := repository.NewCustomerRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)

	report := NewReportService(customerRepo, txnRepo, merchantRepo, 480)
	ledger := NewLedgerService(customerRepo, txnRepo)
	return report, ledger, merchantRepo
}

func TestReportService_DayWindow(t *testing.T) {
	svc, _, _ := setupReport(t)

	t.Run("UTC evening falls on the next local day", func(t *testing.T) {
		// 2024-03-10 22:30 UTC is 2024-03-11 06:30 at UTC+8
		at := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
		from, to := svc.DayWindow(at)

		assert.Equal(t, "2024-03-11", from.Format("2006-01-02"))
		assert.Equal(t, 24*time.Hour, to.Sub(from))
		assert.Equal(t, 0, from.Hour())
	})

	t.Run("local midnight maps to 16:00 UTC of the prior day", func(t *testing.T) {
		at := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
		from, _ := svc.DayWindow(at)

		assert.Equal(t, "2024-03-10 16:00", from.UTC().Format("2006-01-02 15:04"))
	})

	t.Run("window is half open", func(t *testing.T) {
		at := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)
		_, to := svc.DayWindow(at)
		fromNext, _ := svc.DayWindow(to)

		assert.Equal(t, to, fromNext)
	})
}

func TestReportService_ParseDate(t *testing.T) {
	svc, _, _ := setupReport(t)

	day, err := svc.ParseDate("2024-03-11")
	require.NoError(t, err)

	from, _ := svc.DayWindow(day)
	assert.Equal(t, "2024-03-11", from.Format("2006-01-02"))

	_, err = svc.ParseDate("11/03/2024")
	assert.Error(t, err)
}

func TestReportService_BuildDailyReport(t *testing.T) {
	svc, ledger, merchantRepo := setupReport(t)
	ctx := context.Background()

	merchant := &model.Merchant{
		ID:        uuid.NewString(),
		Email:     "store@example.com",
		StoreName: "Corner Coffee",
		StoreCode: "AB2C",
		Status:    model.MerchantStatusActive,
	}
	_, err := merchantRepo.Create(ctx, merchant)
	require.NoError(t, err)

	// Two customers, some issuance and one redemption, all inside today's
	// window.
	_, err = ledger.AddPoints(ctx, merchant.ID, "0911111111", 5)
	require.NoError(t, err)
	_, err = ledger.AddPoints(ctx, merchant.ID, "0922222222", 3)
	require.NoError(t, err)
	_, redeemed, err := ledger.RedeemPoints(ctx, merchant.ID, "0911111111", 2, false)
	require.NoError(t, err)
	require.True(t, redeemed)

	report, err := svc.BuildDailyReport(ctx, merchant.ID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, merchant.ID, report.MerchantID)
	assert.Equal(t, "Corner Coffee", report.StoreName)
	assert.Equal(t, int64(8), report.Today.PointsIssued)
	assert.Equal(t, int64(2), report.Today.PointsRedeemed)
	assert.Equal(t, int64(1), report.Today.RedemptionCount)
	assert.Equal(t, int64(2), report.Today.NewMembers)

	assert.Equal(t, int64(0), report.Yesterday.PointsIssued)
	assert.Equal(t, int64(0), report.Yesterday.NewMembers)

	t.Run("unknown merchant", func(t *testing.T) {
		_, err := svc.BuildDailyReport(ctx, uuid.NewString(), time.Now())
		assert.Error(t, err)
	})
}

func TestReportService_FormatMessage(t *testing.T) {
	svc, _, _ := setupReport(t)

	msg := svc.FormatMessage(&model.DailyReport{
		StoreName: "Corner Coffee",
		Date:      "2024-03-11",
		Today: model.LedgerSummary{
			PointsIssued:    8,
			PointsRedeemed:  2,
			RedemptionCount: 1,
			NewMembers:      2,
		},
		Yesterday: model.LedgerSummary{
			PointsIssued: 4,
		},
	})

	assert.Contains(t, msg, "Corner Coffee")
	assert.Contains(t, msg, "2024-03-11")
	assert.Contains(t, msg, "Issued: 8 pts")
	assert.Contains(t, msg, "New members: 2")
	assert.Contains(t, msg, "issued 4")
}
