package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arashpm/points-gateway/internal/config"
	"github.com/arashpm/points-gateway/internal/notify"
	"github.com/arashpm/points-gateway/internal/queue"
	"github.com/arashpm/points-gateway/internal/reporter"
	"github.com/arashpm/points-gateway/internal/repository"
	"github.com/arashpm/points-gateway/internal/services"
	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/arashpm/points-gateway/pkg/pg"
	"github.com/arashpm/points-gateway/pkg/prom"
	"github.com/arashpm/points-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	notifier, err := notify.NewClient(notify.Config{
		WebhookURL: config.Get().NotifyWebhookUrl,
	})
	if err != nil {
		logger.Error("failed to create notify client", "error", err)
		return
	}

	customerRepo := repository.NewCustomerRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)

	reportService := services.NewReportService(customerRepo, transactionRepo, merchantRepo, config.Get().ReportUTCOffsetMinutes)

	idempotencyConfig := reporter.DefaultIdempotencyConfig()
	idempotencyService := reporter.NewIdempotencyService(redisAdap, idempotencyConfig)

	service, err := reporter.NewReporterService(redisAdap)
	if err != nil {
		logger.Error("failed to create the reporter", "error", err)
		return
	}
	service.RegisterProcessor(reporter.NewDailyReportProcessor(reportService, notifier, idempotencyService))

	reportQueue, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().ReportQueueName,
		ConsumerGroup:     config.Get().ReportQueueConsumerGroup,
		ConsumerName:      config.Get().ReportQueueConsumerName + "-scheduler",
		MaxRetries:        config.Get().ReportQueueMaxRetries,
		VisibilityTimeout: config.Get().ReportQueueVisibilityTimeout,
		PollInterval:      config.Get().ReportQueuePollInterval,
		BatchSize:         config.Get().ReportQueueBatchSize,
		MaxLen:            config.Get().ReportQueueMaxLen,
		EnableDLQ:         config.Get().ReportQueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating report queue", "error", err)
		return
	}
	scheduler := reporter.NewScheduler(merchantRepo, reportQueue, config.Get().ReportUTCOffsetMinutes)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	go scheduler.Run()

	go func() {
		err := service.Start()
		if err != nil {
			logger.Error("failed to start reporter", "error", err)
		}
	}()

	select {
	case <-c:
		scheduler.Stop()
		service.Stop()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
