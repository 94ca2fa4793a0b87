package reporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/arashpm/points-gateway/pkg/redis"
)

var (
	ErrAlreadyDelivered   = errors.New("report already delivered")
	ErrLockAcquireFailed  = errors.New("failed to acquire delivery lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL time.Duration

	DeliveredTTL time.Duration

	MaxRetries int

	RetryKeyPrefix string

	LockKeyPrefix string

	DeliveredKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		DeliveredTTL:       48 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "report:retry:",
		LockKeyPrefix:      "report:lock:",
		DeliveredKeyPrefix: "report:done:",
	}
}

// IdempotencyService guards each (merchant, date) report so merchants get
// at most one push per day even when jobs are redelivered.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type DeliveryContext struct {
	ReportKey    string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
	service      *IdempotencyService
}

// ReportKey identifies one daily report job.
func ReportKey(merchantID, date string) string {
	return merchantID + ":" + date
}

func (s *IdempotencyService) AcquireDeliveryLock(ctx context.Context, reportKey string) (*DeliveryContext, error) {
	deliveredKey := s.config.DeliveredKeyPrefix + reportKey
	exists, err := s.redis.Exist(deliveredKey)
	if err != nil {
		logger.Warn("Failed to check delivered status", "report", reportKey, "error", err)
		// Continue even if check fails, a duplicate push beats a missing one
	} else if exists > 0 {
		logger.Info("Report already delivered, skipping", "report", reportKey)
		return nil, ErrAlreadyDelivered
	}

	retryKey := s.config.RetryKeyPrefix + reportKey
	retryCountBytes, err := s.redis.Get(retryKey)
	retryCount := 0
	if err == nil && len(retryCountBytes) > 0 {
		fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		logger.Error("Max retries exceeded for report", "report", reportKey, "retry_count", retryCount)
		return nil, fmt.Errorf("%w: report=%s, retries=%d", ErrMaxRetriesExceeded, reportKey, retryCount)
	}

	lockKey := s.config.LockKeyPrefix + reportKey
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		logger.Error("Failed to acquire lock", "report", reportKey, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if !acquired {
		logger.Info("Lock already held by another consumer", "report", reportKey)
		return nil, ErrLockAcquireFailed
	}

	logger.Info("Delivery lock acquired",
		"report", reportKey,
		"retry_count", retryCount,
		"lock_ttl", s.config.LockTTL)

	return &DeliveryContext{
		ReportKey:    reportKey,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
		service:      s,
	}, nil
}

func (s *IdempotencyService) MarkDelivered(ctx context.Context, dc *DeliveryContext) error {
	reportKey := dc.ReportKey

	deliveredKey := s.config.DeliveredKeyPrefix + reportKey
	err := s.redis.Set(deliveredKey, []byte("1"), s.config.DeliveredTTL)
	if err != nil {
		logger.Error("Failed to mark report as delivered", "report", reportKey, "error", err)
		return fmt.Errorf("failed to mark as delivered: %w", err)
	}

	s.cleanup(ctx, dc)

	logger.Info("Report marked as delivered",
		"report", reportKey,
		"retry_count", dc.RetryCount)

	return nil
}

func (s *IdempotencyService) MarkFailure(ctx context.Context, dc *DeliveryContext, reason error) error {
	reportKey := dc.ReportKey

	retryKey := s.config.RetryKeyPrefix + reportKey
	newRetryCount := dc.RetryCount + 1
	retryValue := []byte(fmt.Sprintf("%d", newRetryCount))

	// Keep retry counter for longer to track across retries
	err := s.redis.Set(retryKey, retryValue, s.config.DeliveredTTL)
	if err != nil {
		logger.Error("Failed to increment retry counter", "report", reportKey, "error", err)
	}

	lockKey := s.config.LockKeyPrefix + reportKey
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to remove lock", "report", reportKey, "error", err)
	}

	logger.Warn("Report delivery failed, will retry",
		"report", reportKey,
		"retry_count", newRetryCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)

	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, dc *DeliveryContext) error {
	if dc == nil || !dc.lockAcquired {
		return nil
	}

	lockKey := s.config.LockKeyPrefix + dc.ReportKey
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to release lock", "report", dc.ReportKey, "error", err)
		return err
	}

	dc.lockAcquired = false
	logger.Debug("Delivery lock released", "report", dc.ReportKey)
	return nil
}

func (s *IdempotencyService) cleanup(ctx context.Context, dc *DeliveryContext) {
	reportKey := dc.ReportKey

	lockKey := s.config.LockKeyPrefix + reportKey
	if err := s.redis.Del(lockKey); err != nil {
		logger.Warn("Failed to cleanup lock", "report", reportKey, "error", err)
	}

	retryKey := s.config.RetryKeyPrefix + reportKey
	if err := s.redis.Del(retryKey); err != nil {
		logger.Warn("Failed to cleanup retry counter", "report", reportKey, "error", err)
	}

	dc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, reportKey string) (int, error) {
	retryKey := s.config.RetryKeyPrefix + reportKey
	retryCountBytes, err := s.redis.Get(retryKey)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}

	retryCount := 0
	fmt.Sscanf(string(retryCountBytes), "%d", &retryCount)
	return retryCount, nil
}

func (s *IdempotencyService) IsDelivered(ctx context.Context, reportKey string) (bool, error) {
	deliveredKey := s.config.DeliveredKeyPrefix + reportKey
	exists, err := s.redis.Exist(deliveredKey)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
