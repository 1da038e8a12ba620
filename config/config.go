package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

var (
	// ErrMissingAPIKey is returned when the groq provider has no credential.
	ErrMissingAPIKey = errors.New("GROQ_API_KEY is not set")

	loadOnce sync.Once
	loaded   *Config
	loadErr  error
)

// Config is the process-wide configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Redis   RedisConfig   `yaml:"redis"`
	Storage StorageConfig `yaml:"storage"`
	Log     logger.Config `yaml:"log"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	GRPCHealthAddr string        `yaml:"grpcHealthAddr"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	CORSOrigins    []string      `yaml:"corsOrigins"`
	JobsEnabled    bool          `yaml:"jobsEnabled"`
	ShutdownGrace  time.Duration `yaml:"shutdownGrace"`
}

// Default returns the configuration used before the YAML file and the
// environment are applied. It carries no credentials.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 20 * 1024 * 1024,
			CORSOrigins:    []string{"*"},
			ShutdownGrace:  5 * time.Second,
		},
		LLM:     defaultLLMConfig(),
		Redis:   defaultRedisConfig(),
		Storage: StorageConfig{Type: StorageTypeS3, Retention: 24 * time.Hour},
		Log:     logger.DefaultConfig(),
	}
}

// Get loads the configuration once per process.
func Get() (*Config, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Load(os.Getenv("CONFIG_FILE"))
	})
	return loaded, loadErr
}

// Load reads .env (if present), then the optional YAML file at path, then
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s not loaded, falling back to environment variables", envFile)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if err := c.LLM.validate(); err != nil {
		return err
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.JobsEnabled {
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("jobs enabled but storage is misconfigured: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString(&cfg.Server.Addr, "SERVER_ADDR")
	envString(&cfg.Server.GRPCHealthAddr, "GRPC_HEALTH_ADDR")
	envInt64(&cfg.Server.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	envList(&cfg.Server.CORSOrigins, "CORS_ORIGINS")
	envBool(&cfg.Server.JobsEnabled, "JOBS_ENABLED")

	applyLLMEnv(&cfg.LLM)

	envString(&cfg.Redis.Addr, "REDIS_ADDR")
	envInt(&cfg.Redis.DB, "REDIS_DB")
	envString(&cfg.Redis.Password, "REDIS_PASSWORD")
	envDuration(&cfg.Redis.JobTTL, "JOB_TTL")
	envInt(&cfg.Redis.Concurrency, "WORKER_CONCURRENCY")

	applyStorageEnv(&cfg.Storage)

	envString(&cfg.Log.Level, "LOG_LEVEL")
	envString(&cfg.Log.Encoding, "LOG_ENCODING")
	envList(&cfg.Log.OutputPaths, "LOG_OUTPUT_PATHS")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envList(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		}
	}
}

func envInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		}
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		}
	}
}
