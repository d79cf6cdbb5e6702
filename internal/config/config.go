package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/validator"
)

// Account is an identity allowed to call the api. Config is authoritative:
// accounts missing from it are deactivated on start-up.
type Account struct {
	ID     string `mapstructure:"id"     json:"id"     validate:"required,uuid_rfc4122"`
	Note   string `mapstructure:"note"   json:"note"   validate:"required"`
	Token  string `mapstructure:"token"  json:"-"      validate:"required,min=16"`
	Role   string `mapstructure:"role"   json:"role"   validate:"required,oneof=user admin"`
	System bool   `mapstructure:"system" json:"system"`
	Active *bool  `mapstructure:"active" json:"active" validate:"required"`
}

func (a Account) ParsedID() uuid.UUID {
	return uuid.MustParse(a.ID)
}

type PostgresConfig struct {
	User               string        `validate:"required"`
	Password           string        `validate:"required"`
	Host               string        `validate:"required"`
	Database           string        `validate:"required"`
	MaxIdleConnections int           `validate:"required" mapstructure:"max_idle_connections"`
	MaxOpenConnections int           `validate:"required" mapstructure:"max_open_connections"`
	ConnectionTTL      time.Duration `validate:"required" mapstructure:"connection_ttl"`
	Port               int16         `validate:"required"`
	// Attempts of a transaction aborted by a serialization failure or deadlock
	TxRetries uint64 `mapstructure:"tx_retries"`
}

type AzureConfig struct {
	StorageAccount *AzureStorageAccountConfig `mapstructure:"storage_account" validate:"required"`
	Dev            bool                       `mapstructure:"dev"`
}

type AzureStorageAccountConfig struct {
	Containers *AzureStorageAccountContainerConfig `mapstructure:"containers" validate:"required"`
	Queues     *AzureStorageAccountQueueConfig     `mapstructure:"queues"     validate:"required"`
	Name       string                              `mapstructure:"name"       validate:"required"`
	Key        string                              `mapstructure:"key"        validate:"required"`
}

type AzureStorageAccountContainerConfig struct {
	URL     string `mapstructure:"url"`
	Results string `mapstructure:"results"`
}

type AzureStorageAccountQueueConfig struct {
	URL    string `mapstructure:"url"     validate:"required"`
	AIJobs string `mapstructure:"ai_jobs" validate:"required"`
	// Seconds until an unread job expires. Zero keeps the service default.
	MessageTTLSecs int64 `mapstructure:"message_ttl_secs"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type GormLogConfig struct {
	Level        int  `mapstructure:"level"`
	TraceQueries bool `mapstructure:"trace_queries"`
}

type LoggingConfig struct {
	Gorm    GormLogConfig `mapstructure:"gorm"`
	App     SlogConfig    `mapstructure:"app"`
	UseOTLP bool          `mapstructure:"use_otlp"`
}

type RateLimitConfig struct {
	RedisHost       string `mapstructure:"redis_host"`
	GlobalPerMinute int64  `mapstructure:"global_per_minute"`
	WritePerMinute  int64  `mapstructure:"write_per_minute"`
	FailOpen        bool   `mapstructure:"fail_open"`
}

type CreditsConfig struct {
	URL          string        `mapstructure:"url"            validate:"required,url"`
	Token        string        `mapstructure:"token"`
	RetryMax     int           `mapstructure:"retry_max"      validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AIJudgeCost  int64         `mapstructure:"ai_judge_cost"  validate:"gte=0"`
	AIWriterCost int64         `mapstructure:"ai_writer_cost" validate:"gte=0"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"          validate:"required"`
	AccessKeyID     string `mapstructure:"access_key_id"     validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	BucketName      string `mapstructure:"bucket_name"       validate:"required"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

const (
	ResultsBackendNone  = "none"
	ResultsBackendMinio = "minio"
	ResultsBackendAzure = "azure"
)

type ResultsConfig struct {
	Backend string    `mapstructure:"backend" validate:"required,oneof=none minio azure"`
	S3      *S3Config `mapstructure:"s3"      validate:"required_if=Backend minio"`
	// Lifetime of the download link logged with each published ranking
	LinkExpiry time.Duration `mapstructure:"link_expiry"`
}

type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"required"`
}

// See contestapi.yaml for an example config
type Config struct {
	Postgres             *PostgresConfig  `mapstructure:"postgres"               validate:"required"`
	Azure                *AzureConfig     `mapstructure:"azure"                  validate:"required"`
	Logging              *LoggingConfig   `mapstructure:"logging"                validate:"required"`
	RateLimit            *RateLimitConfig `mapstructure:"ratelimit"`
	Credits              *CreditsConfig   `mapstructure:"credits"                validate:"required"`
	Results              *ResultsConfig   `mapstructure:"results"                validate:"required"`
	Sweeper              *SweeperConfig   `mapstructure:"sweeper"                validate:"required"`
	ListenAddress        string           `mapstructure:"listen_address"         validate:"required"`
	Accounts             []Account        `mapstructure:"accounts"               validate:"dive"`
	GracefulShutdownSecs int64            `mapstructure:"graceful_shutdown_secs"`
}

const (
	AppLogLevel                string = "logging.app.level"
	AzureDev                   string = "azure.dev"
	AzureStorageAccountKey     string = "azure.storage_account.key"
	AzureQueueAIJobs           string = "azure.storage_account.queues.ai_jobs"
	AzureContainerResults      string = "azure.storage_account.containers.results"
	CreditsToken               string = "credits.token"
	CreditsRetryMax            string = "credits.retry_max"
	CreditsTimeout             string = "credits.timeout"
	CreditsAIJudgeCost         string = "credits.ai_judge_cost"
	CreditsAIWriterCost        string = "credits.ai_writer_cost"
	EnvPrefix                  string = "contestapi"
	UseOTLP                    string = "logging.use_otlp"
	GlobalPerMinute            string = "ratelimit.global_per_minute"
	GormLogLevel               string = "logging.gorm.level"
	GormTraceQueries           string = "logging.gorm.trace_queries"
	GracefulShutdownSecs       string = "graceful_shutdown_secs"
	ListenAddress              string = "listen_address"
	PostgresDatabase           string = "postgres.database"
	PostgresHost               string = "postgres.host"
	PostgresPassword           string = "postgres.password"
	PostgresPort               string = "postgres.port"
	PostgresUser               string = "postgres.user"
	PostgresMaxIdleConnections string = "postgres.max_idle_connections"
	PostgresMaxOpenConnections string = "postgres.max_open_connections"
	PostgresConnectonTTL       string = "postgres.connection_ttl"
	PostgresTxRetries          string = "postgres.tx_retries"
	RateLimitFailOpen          string = "ratelimit.fail_open"
	RedisHost                  string = "ratelimit.redis_host"
	ResultsBackend             string = "results.backend"
	ResultsLinkExpiry          string = "results.link_expiry"
	S3AccessKeyID              string = "results.s3.access_key_id"
	S3SecretAccessKey          string = "results.s3.secret_access_key" // #nosec
	SweeperInterval            string = "sweeper.interval"
	WritePerMinute             string = "ratelimit.write_per_minute"
)

var configReady = false
var config Config

// GetConfig loads contestapi.yaml from /etc/contestapi/ or the working
// directory once and returns the cached result afterwards.
func GetConfig() (*Config, error) {
	if configReady {
		logger.Logger.Debug("returning already-loaded config")
		return &config, nil
	}
	logger.Logger.Info("loading config")

	loaded, err := Load("/etc/contestapi/", ".")
	if err != nil {
		configReady = false
		return nil, err
	}

	config = *loaded
	configReady = true
	return &config, nil
}

// Load reads contestapi.yaml from the first of paths that has one, overlays
// CONTESTAPI_* environment variables and validates the result. A missing
// config file is fine as long as the environment fills in what is required.
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("contestapi")
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{
		PostgresPassword,
		AzureStorageAccountKey,
		CreditsToken,
		S3AccessKeyID,
		S3SecretAccessKey,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(ListenAddress, "[::]:1323")
	v.SetDefault(PostgresHost, "localhost")
	v.SetDefault(PostgresPort, 5432)
	v.SetDefault(PostgresMaxIdleConnections, 2)
	v.SetDefault(PostgresMaxOpenConnections, 10)
	v.SetDefault(PostgresConnectonTTL, 10*time.Minute)
	v.SetDefault(PostgresTxRetries, 3)
	v.SetDefault(AzureDev, false)
	v.SetDefault(AzureQueueAIJobs, "ai-jobs")
	v.SetDefault(AzureContainerResults, "results")
	v.SetDefault(GormLogLevel, int(slog.LevelDebug))
	v.SetDefault(GormTraceQueries, false)
	v.SetDefault(AppLogLevel, int(slog.LevelDebug))

	v.SetDefault(CreditsRetryMax, 3)
	v.SetDefault(CreditsTimeout, 10*time.Second)
	v.SetDefault(CreditsAIJudgeCost, 5)
	v.SetDefault(CreditsAIWriterCost, 10)

	v.SetDefault(ResultsBackend, ResultsBackendNone)
	v.SetDefault(ResultsLinkExpiry, 24*time.Hour)

	v.SetDefault(SweeperInterval, time.Minute)

	v.SetDefault(RedisHost, "localhost")
	v.SetDefault(GlobalPerMinute, 0)
	v.SetDefault(WritePerMinute, 0)
	v.SetDefault(RateLimitFailOpen, true)

	v.SetDefault(UseOTLP, false)

	v.SetDefault(GracefulShutdownSecs, 30)

	err := v.ReadInConfig()
	if err != nil {
		// ignore config file not found to allow pure env config
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var loaded Config
	err = v.Unmarshal(&loaded)
	if err != nil {
		return nil, err
	}

	valid := validator.Create()
	err = valid.Validate(&loaded)
	if err != nil {
		return nil, err
	}

	if err := loaded.checkAccounts(); err != nil {
		return nil, err
	}

	if loaded.Results.Backend == ResultsBackendAzure &&
		loaded.Azure.StorageAccount.Containers.URL == "" {
		return nil, errors.New("results backend azure needs azure.storage_account.containers.url")
	}

	return &loaded, nil
}

func (c *Config) checkAccounts() error {
	seen := make(map[string]bool, len(c.Accounts))
	for _, account := range c.Accounts {
		id := strings.ToLower(account.ID)
		if seen[id] {
			return fmt.Errorf("account %s is configured twice", account.ID)
		}
		seen[id] = true
	}

	return nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Postgres.User),
		url.QueryEscape(c.Postgres.Password),
		c.Postgres.Host, c.Postgres.Port,
		url.QueryEscape(c.Postgres.Database),
	)
}
