package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/queue"
	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/arashpm/points-gateway/pkg/prom"
)

// ReportBuilder folds the ledger into a daily report.
type ReportBuilder interface {
	ParseDate(date string) (time.Time, error)
	BuildDailyReport(ctx context.Context, merchantID string, day time.Time) (*model.DailyReport, error)
	FormatMessage(r *model.DailyReport) string
}

// Notifier pushes a text message to the merchant-facing channel.
type Notifier interface {
	Push(ctx context.Context, text string) error
}

type DailyReportProcessor struct {
	builder     ReportBuilder
	notifier    Notifier
	idempotency *IdempotencyService
}

func NewDailyReportProcessor(builder ReportBuilder, notifier Notifier, idempotency *IdempotencyService) *DailyReportProcessor {
	return &DailyReportProcessor{
		builder:     builder,
		notifier:    notifier,
		idempotency: idempotency,
	}
}

func (p *DailyReportProcessor) GetType() string {
	return "daily_report"
}

// Process builds and delivers one daily report with at-most-once push
// semantics per (merchant, date).
func (p *DailyReportProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var job model.ReportJob
	if err := json.Unmarshal(queueMessage.Data, &job); err != nil {
		logger.Error("Failed to unmarshal report job", "error", err)
		prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "invalid")
		return err // malformed jobs go to the DLQ
	}

	if job.MerchantID == "" || job.Date == "" {
		logger.Error("Report job missing merchant or date", "merchant_id", job.MerchantID, "date", job.Date)
		prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "invalid")
		return errors.New("report job missing merchant or date")
	}

	reportKey := ReportKey(job.MerchantID, job.Date)

	dc, err := p.idempotency.AcquireDeliveryLock(ctx, reportKey)
	if err != nil {
		if errors.Is(err, ErrAlreadyDelivered) {
			// ACK, the merchant already got this report
			prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "duplicate")
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("Max retries exceeded", "report", reportKey)
			prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "exhausted")
			return nil // ACK to move on, the DLQ keeps the original on redelivery
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			logger.Info("Lock held by another consumer, will retry", "report", reportKey)
			return errors.New("lock held by another consumer")
		}
		logger.Error("Failed to acquire lock", "report", reportKey, "error", err)
		return err
	}

	defer func() {
		if dc.lockAcquired {
			p.idempotency.ReleaseLock(ctx, dc)
		}
	}()

	logger.Info("Building daily report",
		"report", reportKey,
		"store", job.StoreName,
		"retry_count", dc.RetryCount,
		"is_retry", dc.IsRetry)

	day, err := p.builder.ParseDate(job.Date)
	if err != nil {
		logger.Error("Invalid report date", "report", reportKey, "error", err)
		prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "invalid")
		return err
	}

	report, err := p.builder.BuildDailyReport(ctx, job.MerchantID, day)
	if err != nil {
		logger.Error("Failed to build report", "report", reportKey, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, dc, err); markErr != nil {
			logger.Error("Failed to mark failure", "report", reportKey, "error", markErr)
		}
		prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "failed")
		return err
	}

	start := time.Now()
	if err := p.notifier.Push(ctx, p.builder.FormatMessage(report)); err != nil {
		logger.Error("Failed to push report", "report", reportKey, "error", err)
		if markErr := p.idempotency.MarkFailure(ctx, dc, err); markErr != nil {
			logger.Error("Failed to mark failure", "report", reportKey, "error", markErr)
		}
		prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "failed")
		return err
	}
	prom.AddReportPushDuration(time.Since(start).Seconds(), "webhook")

	logger.Info("Report delivered",
		"report", reportKey,
		"store", report.StoreName,
		"retry_count", dc.RetryCount)

	if markErr := p.idempotency.MarkDelivered(ctx, dc); markErr != nil {
		logger.Error("Failed to mark delivered", "report", reportKey, "error", markErr)
		// Continue, the report went out
	}

	prom.IncCounterVec(prom.SystemReports, prom.MetricReportProcessedTotal, "delivered")
	return nil
}
