package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/arashpm/points-gateway/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every env-sourced value used by the binaries. Only this
// struct may be read for configuration, no direct env access elsewhere.
type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	AppName  string `env:"APP_NAME" default:"points_gateway"`
	AppDebug bool   `env:"APP_DEBUG" default:"1"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	LogLevel []string `env:"LOG_LEVEL"`

	IdentityBaseUrl    string `env:"IDENTITY_BASE_URL"`
	IdentityServiceKey string `env:"IDENTITY_SERVICE_KEY"`

	NotifyWebhookUrl string `env:"NOTIFY_WEBHOOK_URL"`

	ReportQueueName              string        `env:"REPORT_QUEUE_NAME" default:"reports:daily"`
	ReportQueueConsumerGroup     string        `env:"REPORT_QUEUE_CONSUMER_GROUP" default:"reporters"`
	ReportQueueConsumerName      string        `env:"REPORT_QUEUE_CONSUMER_NAME"`
	ReportQueueMaxRetries        int           `env:"REPORT_QUEUE_MAX_RETRIES"`
	ReportQueueVisibilityTimeout time.Duration `env:"REPORT_QUEUE_VISIBILITY_TIMEOUT"`
	ReportQueuePollInterval      time.Duration `env:"REPORT_QUEUE_POLL_INTERVAL"`
	ReportQueueBatchSize         int64         `env:"REPORT_QUEUE_BATCH_SIZE"`
	ReportQueueMaxLen            int64         `env:"REPORT_QUEUE_MAX_LEN"`
	ReportQueueEnableDLQ         bool          `env:"REPORT_QUEUE_ENABLE_DLQ"`

	// Report windows are computed in a fixed local offset, minutes east of
	// UTC. Defaults to UTC+8.
	ReportUTCOffsetMinutes int `env:"REPORT_UTC_OFFSET_MINUTES" default:"480"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
