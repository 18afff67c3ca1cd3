package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aretw0/durafsm/internal/logging"
	"github.com/aretw0/durafsm/pkg/persistence/codec"
)

// Store kinds accepted by DURAFSM_STORE.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
	StoreMemory = "memory"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into Config.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the CLI settings. Every field can be set from the environment
// or a .env file; command line flags take precedence.
type Config struct {
	Store       string        `env:"DURAFSM_STORE" envDefault:"file"`
	Dir         string        `env:"DURAFSM_DIR" envDefault:".durafsm/actors"`
	Codec       string        `env:"DURAFSM_CODEC" envDefault:"json"`
	RedisURL    string        `env:"DURAFSM_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string        `env:"DURAFSM_REDIS_PREFIX" envDefault:"durafsm:"`
	RedisTTL    time.Duration `env:"DURAFSM_REDIS_TTL" envDefault:"0s"`
	DatabaseURL string        `env:"DURAFSM_DATABASE_URL"`
	Namespace   string        `env:"DURAFSM_NAMESPACE" envDefault:"default"`

	// Machine is the path of the YAML machine definition.
	Machine string `env:"DURAFSM_MACHINE"`

	LogLevel string `env:"DURAFSM_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"DURAFSM_LOG_JSON" envDefault:"false"`

	HTTPAddr string `env:"DURAFSM_HTTP_ADDR" envDefault:":8080"`
	Trace    bool   `env:"DURAFSM_TRACE" envDefault:"false"`

	// EncryptionKey is a base64 encoded 32 byte key. Empty disables encryption.
	EncryptionKey string   `env:"DURAFSM_ENCRYPTION_KEY"`
	FallbackKeys  []string `env:"DURAFSM_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
}

// Load reads the given .env files (default ".env"; missing files are ignored)
// and parses the environment into a Config.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case StoreFile, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis store requires DURAFSM_REDIS_URL"))
		}
	case StoreSQL:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("sql store requires DURAFSM_DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}

	if _, err := codec.ByName(c.Codec); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.EncryptionKey != "" {
		if _, err := c.Encryption(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Encryption decodes the configured keys.
func (c Config) Encryption() (codec.EncryptionConfig, error) {
	active, err := codec.ParseKey(c.EncryptionKey)
	if err != nil {
		return codec.EncryptionConfig{}, fmt.Errorf("DURAFSM_ENCRYPTION_KEY: %w", err)
	}
	out := codec.EncryptionConfig{ActiveKey: active}
	for i, k := range c.FallbackKeys {
		key, err := codec.ParseKey(k)
		if err != nil {
			return codec.EncryptionConfig{}, fmt.Errorf("fallback key %d: %w", i, err)
		}
		out.FallbackKeys = append(out.FallbackKeys, key)
	}
	return out, nil
}

// SnapshotCodec builds the codec for the store, encrypted when a key is configured.
func (c Config) SnapshotCodec() (codec.Codec, error) {
	base, err := codec.ByName(c.Codec)
	if err != nil {
		return nil, err
	}
	if c.EncryptionKey == "" {
		return base, nil
	}
	enc, err := c.Encryption()
	if err != nil {
		return nil, err
	}
	return codec.Encrypted(base, enc)
}
