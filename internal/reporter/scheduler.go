package reporter

import (
	"context"
	"time"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/arashpm/points-gateway/pkg/prom"
)

type MerchantLister interface {
	ListActive(ctx context.Context) ([]*model.Merchant, error)
}

type JobQueue interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// Scheduler enqueues one report job per active merchant. The reporter
// daemon runs it at local midnight for the day just ended, and the admin
// surface can trigger it on demand.
type Scheduler struct {
	merchants MerchantLister
	queue     JobQueue
	loc       *time.Location
	stop      chan struct{}
}

func NewScheduler(merchants MerchantLister, queue JobQueue, utcOffsetMinutes int) *Scheduler {
	return &Scheduler{
		merchants: merchants,
		queue:     queue,
		loc:       time.FixedZone("report", utcOffsetMinutes*60),
		stop:      make(chan struct{}),
	}
}

// EnqueueFor publishes a job for every active merchant covering the day
// that encloses day in the report-local offset. Returns the number of jobs
// queued.
func (s *Scheduler) EnqueueFor(ctx context.Context, day time.Time) (int, error) {
	merchants, err := s.merchants.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	local := day.In(s.loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).Format("2006-01-02")

	queued := 0
	for _, m := range merchants {
		job := model.ReportJob{
			MerchantID: m.ID,
			StoreName:  m.StoreName,
			Date:       date,
			EnqueuedAt: time.Now(),
		}
		if _, err := s.queue.PublishJSON(ctx, job, map[string]string{"type": "daily_report"}); err != nil {
			logger.Error("Failed to enqueue report job", "merchant_id", m.ID, "date", date, "error", err)
			continue
		}
		prom.IncCounter(prom.SystemReports, prom.MetricReportJobsQueuedTotal)
		queued++
	}

	logger.Info("Enqueued report jobs", "date", date, "queued", queued, "merchants", len(merchants))
	return queued, nil
}

// Run blocks, waking at each local midnight to enqueue reports for the day
// that just ended.
func (s *Scheduler) Run() {
	for {
		now := time.Now().In(s.loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).Add(24 * time.Hour)

		select {
		case <-s.stop:
			return
		case <-time.After(next.Sub(now)):
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := s.EnqueueFor(ctx, time.Now().Add(-time.Hour)); err != nil {
				logger.Error("Midnight enqueue failed", "error", err)
			}
			cancel()
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stop)
}
