package reporter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/queue"
)

type MockReportBuilder struct {
	mock.Mock
}

func (m *MockReportBuilder) ParseDate(date string) (time.Time, error) {
	args := m.Called(date)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockReportBuilder) BuildDailyReport(ctx context.Context, merchantID string, day time.Time) (*model.DailyReport, error) {
	args := m.Called(ctx, merchantID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DailyReport), args.Error(1)
}

func (m *MockReportBuilder) FormatMessage(r *model.DailyReport) string {
	args := m.Called(r)
	return args.String(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Push(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func reportJobMessage(t *testing.T, job model.ReportJob) *queue.Message {
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return &queue.Message{ID: "1-0", Data: data}
}

func TestDailyReportProcessor_Process(t *testing.T) {
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	job := model.ReportJob{MerchantID: "m1", StoreName: "Corner Coffee", Date: "2024-03-11"}

	t.Run("builds and pushes the report", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		builder := new(MockReportBuilder)
		notifier := new(MockNotifier)
		idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
		p := NewDailyReportProcessor(builder, notifier, idem)

		report := &model.DailyReport{MerchantID: "m1", StoreName: "Corner Coffee", Date: "2024-03-11"}
		builder.On("ParseDate", "2024-03-11").Return(day, nil)
		builder.On("BuildDailyReport", mock.Anything, "m1", day).Return(report, nil)
		builder.On("FormatMessage", report).Return("Corner Coffee daily report")
		notifier.On("Push", mock.Anything, "Corner Coffee daily report").Return(nil)

		err := p.Process(context.Background(), reportJobMessage(t, job))
		require.NoError(t, err)

		delivered, err := idem.IsDelivered(context.Background(), ReportKey("m1", "2024-03-11"))
		require.NoError(t, err)
		assert.True(t, delivered)

		builder.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("redelivered job is not pushed twice", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		builder := new(MockReportBuilder)
		notifier := new(MockNotifier)
		idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
		p := NewDailyReportProcessor(builder, notifier, idem)

		report := &model.DailyReport{MerchantID: "m1", Date: "2024-03-11"}
		builder.On("ParseDate", "2024-03-11").Return(day, nil)
		builder.On("BuildDailyReport", mock.Anything, "m1", day).Return(report, nil)
		builder.On("FormatMessage", report).Return("text")
		notifier.On("Push", mock.Anything, "text").Return(nil)

		require.NoError(t, p.Process(context.Background(), reportJobMessage(t, job)))
		require.NoError(t, p.Process(context.Background(), reportJobMessage(t, job)))

		notifier.AssertNumberOfCalls(t, "Push", 1)
	})

	t.Run("push failure marks the report for retry", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		builder := new(MockReportBuilder)
		notifier := new(MockNotifier)
		idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
		p := NewDailyReportProcessor(builder, notifier, idem)

		report := &model.DailyReport{MerchantID: "m1", Date: "2024-03-11"}
		builder.On("ParseDate", "2024-03-11").Return(day, nil)
		builder.On("BuildDailyReport", mock.Anything, "m1", day).Return(report, nil)
		builder.On("FormatMessage", report).Return("text")
		notifier.On("Push", mock.Anything, "text").Return(assert.AnError)

		err := p.Process(context.Background(), reportJobMessage(t, job))
		require.Error(t, err)

		count, err := idem.GetRetryCount(context.Background(), ReportKey("m1", "2024-03-11"))
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		delivered, err := idem.IsDelivered(context.Background(), ReportKey("m1", "2024-03-11"))
		require.NoError(t, err)
		assert.False(t, delivered)
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		builder := new(MockReportBuilder)
		notifier := new(MockNotifier)
		idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
		p := NewDailyReportProcessor(builder, notifier, idem)

		err := p.Process(context.Background(), &queue.Message{ID: "1-0", Data: []byte("not json")})
		assert.Error(t, err)
		notifier.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
	})

	t.Run("missing merchant or date is rejected", func(t *testing.T) {
		mr, adapter := setupTestRedis(t)
		defer mr.Close()

		builder := new(MockReportBuilder)
		notifier := new(MockNotifier)
		idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
		p := NewDailyReportProcessor(builder, notifier, idem)

		err := p.Process(context.Background(), reportJobMessage(t, model.ReportJob{MerchantID: "m1"}))
		assert.Error(t, err)
		builder.AssertNotCalled(t, "BuildDailyReport", mock.Anything, mock.Anything, mock.Anything)
	})
}

type MockMerchantLister struct {
	mock.Mock
}

func (m *MockMerchantLister) ListActive(ctx context.Context) ([]*model.Merchant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Merchant), args.Error(1)
}

type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

func TestScheduler_EnqueueFor(t *testing.T) {
	t.Run("one job per active merchant", func(t *testing.T) {
		merchants := new(MockMerchantLister)
		jobs := new(MockJobQueue)
		s := NewScheduler(merchants, jobs, 480)

		merchants.On("ListActive", mock.Anything).Return([]*model.Merchant{
			{ID: "m1", StoreName: "One"},
			{ID: "m2", StoreName: "Two"},
		}, nil)
		jobs.On("PublishJSON", mock.Anything, mock.MatchedBy(func(v interface{}) bool {
			job, ok := v.(model.ReportJob)
			return ok && job.Date == "2024-03-11"
		}), mock.Anything).Return("1-0", nil)

		// 2024-03-10 22:00 UTC is already 2024-03-11 at UTC+8
		queued, err := s.EnqueueFor(context.Background(), time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 2, queued)

		jobs.AssertNumberOfCalls(t, "PublishJSON", 2)
	})

	t.Run("publish failures are skipped, not fatal", func(t *testing.T) {
		merchants := new(MockMerchantLister)
		jobs := new(MockJobQueue)
		s := NewScheduler(merchants, jobs, 480)

		merchants.On("ListActive", mock.Anything).Return([]*model.Merchant{
			{ID: "m1"},
			{ID: "m2"},
		}, nil)
		jobs.On("PublishJSON", mock.Anything, mock.MatchedBy(func(v interface{}) bool {
			job, ok := v.(model.ReportJob)
			return ok && job.MerchantID == "m1"
		}), mock.Anything).Return("", assert.AnError)
		jobs.On("PublishJSON", mock.Anything, mock.MatchedBy(func(v interface{}) bool {
			job, ok := v.(model.ReportJob)
			return ok && job.MerchantID == "m2"
		}), mock.Anything).Return("1-0", nil)

		queued, err := s.EnqueueFor(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, queued)
	})

	t.Run("lister failure aborts", func(t *testing.T) {
		merchants := new(MockMerchantLister)
		jobs := new(MockJobQueue)
		s := NewScheduler(merchants, jobs, 480)

		merchants.On("ListActive", mock.Anything).Return(nil, assert.AnError)

		_, err := s.EnqueueFor(context.Background(), time.Now())
		assert.Error(t, err)
		jobs.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything, mock.Anything)
	})
}
