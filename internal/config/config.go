package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App        App
	HTTP       HTTP
	Probe      Probe
	Metrics    Metrics
	Postgres   Postgres
	Redis      Redis
	Bridge     Bridge
	Settlement Settlement
	Checkout   Checkout
	Bot        Bot
}

type App struct {
	Name     string `env:"APP_NAME" envDefault:"dealmint"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type HTTP struct {
	ListenAddress   string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogFieldMaxLen  int           `env:"HTTP_LOG_FIELD_MAX_LEN" envDefault:"4096"`
}

type Probe struct {
	ListenAddress string `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
}

type Metrics struct {
	ListenAddress string `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090"`
}

// Redis is optional. Without it settlement locks are process local and
// refreshes run from in-process timers.
type Redis struct {
	Address            string        `env:"REDIS_ADDRESS"`
	Username           string        `env:"REDIS_USERNAME"`
	Password           string        `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber     int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize           int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConnections int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	MaxIdleConnections int           `env:"REDIS_MAX_IDLE_CONNS" envDefault:"5"`
	LockTTL            time.Duration `env:"REDIS_LOCK_TTL" envDefault:"30s"`
	LockWait           time.Duration `env:"REDIS_LOCK_WAIT" envDefault:"5s"`
	AsynqQueue         string        `env:"ASYNQ_QUEUE" envDefault:"settlements"`
	AsynqConcurrency   int           `env:"ASYNQ_CONCURRENCY" envDefault:"4"`
}

func (r Redis) Enabled() bool {
	return r.Address != ""
}

type BridgeMode string

const (
	BridgeModeSimulated BridgeMode = "simulated"
	BridgeModeHTTP      BridgeMode = "http"
)

type Bridge struct {
	Mode              BridgeMode    `env:"BRIDGE_MODE" envDefault:"simulated"`
	Endpoint          string        `env:"BRIDGE_ENDPOINT"`
	APIKey            string        `env:"BRIDGE_API_KEY" json:"-"`
	Timeout           time.Duration `env:"BRIDGE_TIMEOUT" envDefault:"15s"`
	RequestsPerSecond float64       `env:"BRIDGE_RPS" envDefault:"5"`
	Burst             int           `env:"BRIDGE_BURST" envDefault:"10"`
	SubmitDelay       time.Duration `env:"BRIDGE_SIM_SUBMIT_DELAY" envDefault:"2s"`
	StatusDelay       time.Duration `env:"BRIDGE_SIM_STATUS_DELAY" envDefault:"500ms"`
	CompleteAfter     time.Duration `env:"BRIDGE_SIM_COMPLETE_AFTER" envDefault:"5s"`
}

type Settlement struct {
	RefreshDelay    time.Duration `env:"SETTLEMENT_REFRESH_DELAY" envDefault:"5s"`
	RefreshAttempts int           `env:"SETTLEMENT_REFRESH_ATTEMPTS" envDefault:"20"`
	RetryDelay      time.Duration `env:"SETTLEMENT_RETRY_DELAY" envDefault:"10s"`
	StatusCacheTTL  time.Duration `env:"SETTLEMENT_STATUS_CACHE_TTL" envDefault:"2s"`
	SweepInterval   time.Duration `env:"SETTLEMENT_SWEEP_INTERVAL" envDefault:"30s"`
	SweepStaleAfter time.Duration `env:"SETTLEMENT_SWEEP_STALE_AFTER" envDefault:"15s"`
	SweepBatch      int           `env:"SETTLEMENT_SWEEP_BATCH" envDefault:"100"`
}

type Checkout struct {
	Token         string `env:"CHECKOUT_TOKEN" envDefault:"PYUSD"`
	TokenDecimals int32  `env:"CHECKOUT_TOKEN_DECIMALS" envDefault:"6"`
	Currency      string `env:"CHECKOUT_CURRENCY" envDefault:"USD"`
	Network       string `env:"CHECKOUT_NETWORK" envDefault:"sepolia"`
}

// Bot is optional. ChatID receives deal notifications; AdminID may drive the
// ops bot.
type Bot struct {
	Token   string `env:"BOT_TOKEN" json:"-"`
	ChatID  int64  `env:"BOT_CHAT_ID"`
	AdminID int64  `env:"BOT_ADMIN_ID"`
}

func (b Bot) Enabled() bool {
	return b.Token != ""
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) validate() error {
	switch c.Bridge.Mode {
	case BridgeModeSimulated:
	case BridgeModeHTTP:
		if c.Bridge.Endpoint == "" {
			return fmt.Errorf("BRIDGE_ENDPOINT is required in %s mode", c.Bridge.Mode)
		}
	default:
		return fmt.Errorf("unknown BRIDGE_MODE %q", c.Bridge.Mode)
	}

	if c.Bot.Enabled() && c.Bot.ChatID == 0 && c.Bot.AdminID == 0 {
		return errors.New("BOT_TOKEN needs BOT_CHAT_ID or BOT_ADMIN_ID")
	}

	return nil
}
