package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arashpm/points-gateway/internal/model"
)

// ReportService is the read-side aggregator. It folds the transaction log
// over day windows computed in a fixed local offset and never mutates the
// ledger.
type ReportService struct {
	customerRepo CustomerRepository
	txnRepo      TransactionRepository
	merchantRepo MerchantRepository
	loc          *time.Location
}

func NewReportService(customerRepo CustomerRepository, txnRepo TransactionRepository, merchantRepo MerchantRepository, utcOffsetMinutes int) *ReportService {
	return &ReportService{
		customerRepo: customerRepo,
		txnRepo:      txnRepo,
		merchantRepo: merchantRepo,
		loc:          time.FixedZone("report", utcOffsetMinutes*60),
	}
}

// DayWindow returns the [midnight, next midnight) pair enclosing t in the
// report-local offset.
func (s *ReportService) DayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	return from, from.Add(24 * time.Hour)
}

// ParseDate resolves a YYYY-MM-DD string to midnight in the report-local
// offset.
func (s *ReportService) ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", date, s.loc)
}

// BuildDailyReport summarizes a merchant's ledger for the day enclosing
// day plus the day before it.
func (s *ReportService) BuildDailyReport(ctx context.Context, merchantID string, day time.Time) (*model.DailyReport, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("load merchant: %w", err)
	}

	from, to := s.DayWindow(day)

	today, err := s.summarize(ctx, merchantID, from, to)
	if err != nil {
		return nil, err
	}
	yesterday, err := s.summarize(ctx, merchantID, from.Add(-24*time.Hour), from)
	if err != nil {
		return nil, err
	}

	return &model.DailyReport{
		MerchantID: merchantID,
		StoreName:  merchant.StoreName,
		Date:       from.Format("2006-01-02"),
		Today:      *today,
		Yesterday:  *yesterday,
	}, nil
}

func (s *ReportService) summarize(ctx context.Context, merchantID string, from, to time.Time) (*model.LedgerSummary, error) {
	summary, err := s.txnRepo.Summarize(ctx, merchantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}

	newMembers, err := s.customerRepo.CountCreatedBetween(ctx, merchantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("count new members: %w", err)
	}
	summary.NewMembers = newMembers

	return summary, nil
}

// FormatMessage renders a report as the text pushed to the messaging
// channel.
func (s *ReportService) FormatMessage(r *model.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s daily report (%s)\n", r.StoreName, r.Date)
	fmt.Fprintf(&b, "Issued: %d pts\n", r.Today.PointsIssued)
	fmt.Fprintf(&b, "Redeemed: %d pts across %d redemptions\n", r.Today.PointsRedeemed, r.Today.RedemptionCount)
	fmt.Fprintf(&b, "New members: %d\n", r.Today.NewMembers)
	fmt.Fprintf(&b, "Previous day: issued %d, redeemed %d (%d), new members %d",
		r.Yesterday.PointsIssued, r.Yesterday.PointsRedeemed, r.Yesterday.RedemptionCount, r.Yesterday.NewMembers)
	return b.String()
}
