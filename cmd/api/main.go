package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/arashpm/points-gateway/internal/config"
	"github.com/arashpm/points-gateway/internal/handlers"
	"github.com/arashpm/points-gateway/internal/identity"
	"github.com/arashpm/points-gateway/internal/queue"
	"github.com/arashpm/points-gateway/internal/reporter"
	"github.com/arashpm/points-gateway/internal/repository"
	"github.com/arashpm/points-gateway/internal/services"
	xhttp "github.com/arashpm/points-gateway/pkg/http"
	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/arashpm/points-gateway/pkg/pg"
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

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

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

	reportQueue, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().ReportQueueName,
		ConsumerGroup:     config.Get().ReportQueueConsumerGroup,
		ConsumerName:      config.Get().ReportQueueConsumerName,
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

	idp, err := identity.NewClient(identity.Config{
		BaseURL:    config.Get().IdentityBaseUrl,
		ServiceKey: config.Get().IdentityServiceKey,
	})
	if err != nil {
		logger.Error("failed creating identity client", "error", err)
		return
	}

	customerRepo := repository.NewCustomerRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	optionRepo := repository.NewLoyaltyOptionRepository(db)

	// services
	authService := services.NewAuthService(idp, profileRepo, merchantRepo)
	ledgerService := services.NewLedgerService(customerRepo, transactionRepo)
	optionService := services.NewOptionService(optionRepo)
	provisioningService := services.NewProvisioningService(idp, profileRepo, merchantRepo, optionRepo)
	healthService := services.NewHealthService()
	scheduler := reporter.NewScheduler(merchantRepo, reportQueue, config.Get().ReportUTCOffsetMinutes)

	// v1 handlers
	terminalHandler := handlers.NewTerminalHandler(authService, ledgerService, optionService)
	adminHandler := handlers.NewAdminHandler(authService, provisioningService, scheduler)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterTerminalRoutes(g, terminalHandler)
	handlers.RegisterAdminRoutes(g, adminHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
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
