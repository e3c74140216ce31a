// Package config loads runtime settings for the estimate engine from the
// environment (and an optional .env file in the working directory).
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	EnvDefaultLaborRate  = "BEGROTING_DEFAULT_LABOR_RATE"
	EnvDefaultVATPercent = "BEGROTING_DEFAULT_VAT_PERCENT"
	EnvLockTimeout       = "BEGROTING_LOCK_TIMEOUT"
	EnvRecomputeOnStart  = "BEGROTING_RECOMPUTE_ON_START"
	EnvSeed              = "BEGROTING_SEED"
)

// Config holds the engine settings.
type Config struct {
	// DefaultLaborRate is applied at line creation when no labor rate is given.
	DefaultLaborRate decimal.Decimal
	// DefaultVATPercent is the VAT percentage new estimates start with.
	DefaultVATPercent decimal.Decimal
	// LockTimeout bounds how long a mutation waits for the estimate lock.
	LockTimeout time.Duration
	// RecomputeOnStart recomputes every estimate's totals when the server starts.
	RecomputeOnStart bool
	// Seed inserts library items and a demo project on an empty database.
	Seed bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DefaultLaborRate:  decimal.NewFromInt(45),
		DefaultVATPercent: decimal.NewFromInt(21),
		LockTimeout:       5 * time.Second,
		RecomputeOnStart:  false,
		Seed:              true,
	}
}

// Load reads .env (if present) and overrides the defaults with any values
// found in the environment. Unparseable values are logged and ignored.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not read .env: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) Config {
	cfg := Default()

	if v := getenv(EnvDefaultLaborRate); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			cfg.DefaultLaborRate = d
		} else {
			log.Printf("config: invalid %s=%q, keeping %s", EnvDefaultLaborRate, v, cfg.DefaultLaborRate)
		}
	}

	if v := getenv(EnvDefaultVATPercent); v != "" {
		d, err := decimal.NewFromString(v)
		if err == nil && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100)) {
			cfg.DefaultVATPercent = d
		} else {
			log.Printf("config: invalid %s=%q, keeping %s", EnvDefaultVATPercent, v, cfg.DefaultVATPercent)
		}
	}

	if v := getenv(EnvLockTimeout); v != "" {
		if d, err := cast.ToDurationE(v); err == nil && d > 0 {
			cfg.LockTimeout = d
		} else {
			log.Printf("config: invalid %s=%q, keeping %s", EnvLockTimeout, v, cfg.LockTimeout)
		}
	}

	if v := getenv(EnvRecomputeOnStart); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			cfg.RecomputeOnStart = b
		}
	}

	if v := getenv(EnvSeed); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			cfg.Seed = b
		}
	}

	return cfg
}
