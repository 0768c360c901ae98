package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/teambition/rrule-go"
)

type Config struct {
	Env      string `envconfig:"ENV" default:"development" validate:"oneof=development production test"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server   ServerConfig   `ignored:"true"`
	Postgres PostgresConfig `ignored:"true"`
	Redis    RedisConfig    `ignored:"true"`
	Remote   RemoteConfig   `ignored:"true"`
	Booking  BookingConfig  `ignored:"true"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost" validate:"required"`
	Port int    `envconfig:"SERVER_PORT" default:"8080" validate:"min=1,max=65535"`
}

type PostgresConfig struct {
	User     string `envconfig:"POSTGRES_USER" validate:"required"`
	Password string `envconfig:"POSTGRES_PASSWORD" validate:"required"`
	Name     string `envconfig:"POSTGRES_DB" validate:"required"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost" validate:"required"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432" validate:"min=1,max=65535"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6380" validate:"required,hostname_port"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0" validate:"min=0"`
}

type RemoteConfig struct {
	BaseURL    string  `envconfig:"REMOTE_BASE_URL" validate:"required,url"`
	RatePerSec float64 `envconfig:"REMOTE_RATE_PER_SEC" default:"5" validate:"min=0"`
	Burst      int     `envconfig:"REMOTE_BURST" default:"10" validate:"min=0"`
}

type BookingConfig struct {
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s" validate:"gt=0"`
	SubmitTimeout    time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"15s" validate:"gt=0"`
	BookableDays     string        `envconfig:"BOOKABLE_DAYS" default:"FREQ=DAILY;BYDAY=MO,TU,WE,TH,FR" validate:"required,rrule"`
	DaysShown        int           `envconfig:"CALENDAR_DAYS_SHOWN" default:"6" validate:"min=1,max=14"`
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"30m" validate:"gt=0"`
	CatalogTTL       time.Duration `envconfig:"CATALOG_TTL" default:"10m" validate:"gt=0"`
	SubmitRateLimit  int           `envconfig:"SUBMIT_RATE_LIMIT" default:"5" validate:"min=1"`
	SubmitRateWindow time.Duration `envconfig:"SUBMIT_RATE_WINDOW" default:"1m" validate:"gt=0"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// New loads .env if present, then the environment.
func New() (*Config, error) {
	const op = "config.New"

	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

// NewClient is New for commands that only talk to the remote service: the
// server, Postgres and Redis sections are loaded but not validated.
func NewClient() (*Config, error) {
	const op = "config.NewClient"

	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validate(cfg, "Server", "Postgres", "Redis"); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cfg, nil
}

func load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	sections := []any{&cfg, &cfg.Server, &cfg.Postgres, &cfg.Redis, &cfg.Remote, &cfg.Booking}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func Validate(cfg *Config) error {
	return validate(cfg)
}

func validate(cfg *Config, except ...string) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("rrule", validRRule); err != nil {
		return err
	}

	err := v.StructExcept(cfg, except...)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("invalid %s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.Join(msgs...)
}

func validRRule(fl validator.FieldLevel) bool {
	_, err := rrule.StrToRRule(fl.Field().String())
	return err == nil
}
