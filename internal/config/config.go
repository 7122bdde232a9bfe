package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/accrual"
)

const (
	// FileName is the config file inside the home directory.
	FileName = "tally.yaml"
	// EnvFileName holds local overrides and credentials.
	EnvFileName = ".env"
)

// Environment variables read by LoadHome.
const (
	EnvDBDriver = "TALLY_DB_DRIVER"
	EnvDBDSN    = "TALLY_DB_DSN"
	EnvTimezone = "TALLY_TIMEZONE"
	EnvUser     = "TALLY_USER"
	EnvPassword = "TALLY_PASSWORD"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Bank    BankConfig    `yaml:"bank"`
	Storage StorageConfig `yaml:"storage"`
	Accrual AccrualConfig `yaml:"accrual"`
}

// BankConfig identifies the bank.
type BankConfig struct {
	Name string `yaml:"name"`
}

// StorageConfig selects the ledger database.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" or "postgres"
	DSN    string `yaml:"dsn"`    // sqlite paths are relative to the home directory
}

// AccrualConfig holds the interest parameters. Rates are decimal strings so
// they survive a YAML round trip exactly.
type AccrualConfig struct {
	InterestRate    string `yaml:"interest_rate"`
	CreditRate      string `yaml:"credit_rate"`
	DailyFactor     string `yaml:"daily_factor"`
	GracePeriodDays int    `yaml:"grace_period_days"`
	Timezone        string `yaml:"timezone"`
}

// Credentials come from the environment when no flags are given.
type Credentials struct {
	User     string
	Password string
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the standard rates and a local SQLite ledger.
func Default(bankName string) *Config {
	return &Config{
		Bank: BankConfig{Name: bankName},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "tally.db",
		},
		Accrual: AccrualConfig{
			InterestRate:    "0.3",
			CreditRate:      "0.4",
			DailyFactor:     "0.0028",
			GracePeriodDays: 30,
			Timezone:        "Local",
		},
	}
}

// LoadHome reads tally.yaml from home and applies overrides from home/.env
// and the process environment, the latter taking precedence.
func LoadHome(home string) (*Config, Credentials, error) {
	cfg, err := Load(filepath.Join(home, FileName))
	if err != nil {
		return nil, Credentials{}, err
	}

	env, err := readEnv(filepath.Join(home, EnvFileName))
	if err != nil {
		return nil, Credentials{}, err
	}
	cfg.applyEnv(env)

	if cfg.Storage.Driver == "sqlite3" && cfg.Storage.DSN != "" && !filepath.IsAbs(cfg.Storage.DSN) {
		cfg.Storage.DSN = filepath.Join(home, cfg.Storage.DSN)
	}

	if err := cfg.Validate(); err != nil {
		return nil, Credentials{}, err
	}
	return cfg, Credentials{User: env[EnvUser], Password: env[EnvPassword]}, nil
}

func readEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, key := range []string{EnvDBDriver, EnvDBDSN, EnvTimezone, EnvUser, EnvPassword} {
		if v := os.Getenv(key); v != "" {
			env[key] = v
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) {
	if v := env[EnvDBDriver]; v != "" {
		c.Storage.Driver = v
	}
	if v := env[EnvDBDSN]; v != "" {
		c.Storage.DSN = v
	}
	if v := env[EnvTimezone]; v != "" {
		c.Accrual.Timezone = v
	}
}

// Validate checks the storage driver, rates and time zone.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported storage driver %q (want sqlite3 or postgres)", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return errors.New("storage dsn must be set")
	}
	if _, err := c.Rates(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Rates parses the accrual parameters.
func (c *Config) Rates() (accrual.Rates, error) {
	var r accrual.Rates
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"interest_rate", c.Accrual.InterestRate, &r.Interest},
		{"credit_rate", c.Accrual.CreditRate, &r.Credit},
		{"daily_factor", c.Accrual.DailyFactor, &r.DailyFactor},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return accrual.Rates{}, fmt.Errorf("accrual.%s: %w", f.name, err)
		}
		if d.IsNegative() {
			return accrual.Rates{}, fmt.Errorf("accrual.%s must not be negative, got %s", f.name, d)
		}
		*f.dst = d
	}
	if c.Accrual.GracePeriodDays < 0 {
		return accrual.Rates{}, fmt.Errorf("accrual.grace_period_days must not be negative, got %d", c.Accrual.GracePeriodDays)
	}
	r.GracePeriodDays = c.Accrual.GracePeriodDays
	return r, nil
}

// Location resolves the ledger time zone. Empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Accrual.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Accrual.Timezone)
	if err != nil {
		return nil, fmt.Errorf("accrual.timezone: %w", err)
	}
	return loc, nil
}
