package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server         `mapstructure:"server"`
	Database Database       `mapstructure:"database"`
	Kafka    Kafka          `mapstructure:"kafka"`
	Redis    Redis          `mapstructure:"redis"`
	Delivery Delivery       `mapstructure:"delivery"`
	Email    Email          `mapstructure:"email"`
	SMS      SMS            `mapstructure:"sms"`
	Push     Push           `mapstructure:"push"`
	Retry    retry.Strategy `mapstructure:"retry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Database holds database master and slave configuration.
type Database struct {
	Master DatabaseNode   `mapstructure:"master"`
	Slaves []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Kafka holds the dispatch transport configuration. An empty broker list
// means the transport is not configured and the service runs in degraded
// mode, processing notifications inline within the creation call.
type Kafka struct {
	Brokers []string `mapstructure:"brokers"`  // bootstrap addresses, empty => degraded mode
	GroupID string   `mapstructure:"group_id"` // consumer group identity
	Topics  Topics   `mapstructure:"topics"`
}

// Topics holds the per-destination topic names.
type Topics struct {
	Dispatch   string `mapstructure:"dispatch"`    // initial dispatch intents
	Retry      string `mapstructure:"retry"`       // re-queued intents
	DeadLetter string `mapstructure:"dead_letter"` // intents that exhausted their retry budget
}

// Enabled reports whether the async transport is configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// Delivery holds the retry policy applied to delivery attempts.
type Delivery struct {
	MaxAttempts int           `mapstructure:"max_attempts"` // total attempts before dead-lettering
	BaseDelay   time.Duration `mapstructure:"base_delay"`   // backoff is base_delay * attempt number
}

// Redis holds Redis connection parameters.
type Redis struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// Email holds SMTP configuration for sending emails.
type Email struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// SMS holds configuration for the SMS gateway.
type SMS struct {
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
	Sender     string `mapstructure:"sender"`
}

// Push holds configuration for the push gateway.
type Push struct {
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

// mustBindEnv binds critical environment variables to Viper keys.
//
// It panics if any environment variable cannot be bound.
func mustBindEnv() {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",

		"redis.address":  "REDIS_ADDRESS",
		"redis.password": "REDIS_PASSWORD",
		"redis.database": "REDIS_DATABASE",

		"kafka.brokers":  "KAFKA_BROKERS",
		"kafka.group_id": "KAFKA_GROUP_ID",

		"email.smtp_host": "SMTP_HOST",
		"email.smtp_port": "SMTP_PORT",
		"email.username":  "SMTP_USER",
		"email.password":  "SMTP_PASS",
		"email.from":      "SMTP_FROM",

		"sms.gateway_url": "SMS_GATEWAY_URL",
		"sms.api_key":     "SMS_API_KEY",

		"push.gateway_url": "PUSH_GATEWAY_URL",
		"push.api_key":     "PUSH_API_KEY",
	}

	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			zlog.Logger.Panic().Err(err).Msgf("failed to bind env %s", env)
		}
	}
}

// Must loads and validates the configuration from file and environment variables.
//
// It panics if configuration cannot be read or unmarshalled.
func Must() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to read config")
	}

	mustBindEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		zlog.Logger.Panic().Err(err).Msgf("failed to unmarshal config: %v", err)
	}

	if cfg.Delivery.MaxAttempts <= 0 {
		cfg.Delivery.MaxAttempts = 3
	}
	if cfg.Delivery.BaseDelay <= 0 {
		cfg.Delivery.BaseDelay = time.Second
	}

	return &cfg
}
