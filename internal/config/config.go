// Package config provides configuration structures and validation for the
// earnings reconciliation service. It handles environment-based configuration
// for the HTTP surface, databases, the settlement-authority client, and the
// reconciliation and payout policies.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field represents
// a major subsystem's configuration and is validated during startup.
type Config struct {
	Application    ApplicationConfig
	Logging        LoggingConfig
	Server         ServerConfig
	Kafka          KafkaConfig
	Postgres       PostgresConfig
	MongoDB        MongoDBConfig
	Razorpay       RazorpayConfig
	Reconciliation ReconciliationConfig
	Payout         PayoutConfig
	WorkerPool     WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains settlement-event intake configuration
type KafkaConfig struct {
	Brokers         string
	SettlementTopic string
	ConsumerGroup   string
	MinBytes        int
	MaxBytes        int
	MaxWait         time.Duration
	StartOffset     int64
	DLQTopic        string

	NumPartitions     int
	ReplicationFactor int
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains the run-report store configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RazorpayConfig contains settlement-authority client configuration
type RazorpayConfig struct {
	KeyID       string
	KeySecret   string
	AccountNo   string        // debit account for outbound transfers
	CallTimeout time.Duration // bound on each authority API call
	PageSize    int           // recon pagination size, authority max is 1000
	PageDelay   time.Duration // spacing between paginated recon calls
}

// ReconciliationConfig contains the engine's policy knobs
type ReconciliationConfig struct {
	SweepInterval   time.Duration // periodic safety-net cadence
	BatchWindow     int           // recent settlement batches to scan per pass
	LookbackMonths  int           // recon months for the sweep, current included
	PayoutWeekday   string        // weekly payout day applied to newly available entries
	PayoutTimezone  string
	RunReportsLimit int // default page size for run-report listings
}

// PayoutConfig contains payout policy: minimum amount, fee table, tax rate.
// All amounts are paise.
type PayoutConfig struct {
	MinAmount  int64
	Currency   string
	IMPSFee    int64
	NEFTFee    int64
	RTGSFee    int64
	TaxRatePct float64
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// validate performs validation of all configuration values, ensuring they
// meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.SettlementTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_SETTLEMENT_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Razorpay config
	if c.Razorpay.KeyID == "" {
		validationErrors = append(validationErrors, "RAZORPAY_KEY_ID is required")
	}
	if c.Razorpay.KeySecret == "" {
		validationErrors = append(validationErrors, "RAZORPAY_KEY_SECRET is required")
	}
	if c.Razorpay.CallTimeout <= 0 {
		validationErrors = append(validationErrors, "RAZORPAY_CALL_TIMEOUT must be greater than 0")
	}
	if c.Razorpay.PageSize <= 0 || c.Razorpay.PageSize > 1000 {
		validationErrors = append(validationErrors, "RAZORPAY_PAGE_SIZE must be between 1 and 1000")
	}

	// Validate Reconciliation config
	if c.Reconciliation.SweepInterval <= 0 {
		validationErrors = append(validationErrors, "RECON_SWEEP_INTERVAL must be greater than 0")
	}
	if c.Reconciliation.BatchWindow <= 0 {
		validationErrors = append(validationErrors, "RECON_BATCH_WINDOW must be greater than 0")
	}
	if c.Reconciliation.LookbackMonths <= 0 {
		validationErrors = append(validationErrors, "RECON_LOOKBACK_MONTHS must be greater than 0")
	}
	if _, ok := parseWeekday(c.Reconciliation.PayoutWeekday); !ok {
		validationErrors = append(validationErrors, "RECON_PAYOUT_WEEKDAY must be a valid weekday name")
	}
	if _, err := time.LoadLocation(c.Reconciliation.PayoutTimezone); err != nil {
		validationErrors = append(validationErrors, "RECON_PAYOUT_TIMEZONE must be a valid IANA timezone")
	}

	// Validate Payout config
	if c.Payout.MinAmount <= 0 {
		validationErrors = append(validationErrors, "PAYOUT_MIN_AMOUNT must be greater than 0")
	}
	if c.Payout.IMPSFee < 0 || c.Payout.NEFTFee < 0 || c.Payout.RTGSFee < 0 {
		validationErrors = append(validationErrors, "payout base fees must not be negative")
	}
	if c.Payout.TaxRatePct < 0 {
		validationErrors = append(validationErrors, "PAYOUT_TAX_RATE_PCT must not be negative")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

// Weekday returns the configured weekly payout day
func (c *ReconciliationConfig) Weekday() time.Weekday {
	wd, _ := parseWeekday(c.PayoutWeekday)
	return wd
}

// Location returns the configured payout timezone, falling back to UTC
func (c *ReconciliationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.PayoutTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseWeekday(name string) (time.Weekday, bool) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			return wd, true
		}
	}
	return time.Sunday, false
}
