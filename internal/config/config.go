package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const envPrefix = "VULNMANAGER_"

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config holds all application configuration.
type Config struct {
	Addr               string   `yaml:"addr"`
	GRPCPort           int      `yaml:"grpc_port"`
	DBPath             string   `yaml:"db_path"`
	Debug              bool     `yaml:"debug"`
	Environment        string   `yaml:"environment"`
	CORSOrigins        []string `yaml:"cors_origins"`
	RateLimitEnabled   bool     `yaml:"rate_limit_enabled"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	TracingEnabled     bool     `yaml:"tracing_enabled"`

	// TrustedProxies are IPs or CIDR blocks whose forwarding headers name the client.
	TrustedProxies []string `yaml:"trusted_proxies"`

	// ConfigFile is the YAML file the values were read from, if any.
	ConfigFile string `yaml:"-"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Addr:               ":8080",
		GRPCPort:           9000,
		DBPath:             getDefaultDBPath(),
		Environment:        EnvDevelopment,
		CORSOrigins:        []string{"http://localhost:3000", "http://localhost:8080"},
		RateLimitEnabled:   true,
		RateLimitPerMinute: 60,
	}
}

// Load resolves configuration from defaults, an optional YAML file, environment
// variables and command line flags. Later sources win.
func Load(args []string) (*Config, error) {
	cfg := Default()

	flagCfg := *cfg
	var cors, proxies string
	var configFile string

	fs := flag.NewFlagSet("vulnmanager", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&configFile, "config", os.Getenv(envPrefix+"CONFIG"), "Path to YAML configuration file")
	fs.StringVar(&flagCfg.Addr, "addr", cfg.Addr, "HTTP server address")
	fs.IntVar(&flagCfg.GRPCPort, "grpc", cfg.GRPCPort, "gRPC server port")
	fs.StringVar(&flagCfg.DBPath, "db", cfg.DBPath, "Path to SQLite audit database")
	fs.BoolVar(&flagCfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.StringVar(&flagCfg.Environment, "env", cfg.Environment, "Deployment environment (development, staging, production)")
	fs.StringVar(&cors, "cors-origins", strings.Join(cfg.CORSOrigins, ","), "Allowed CORS origins (comma separated)")
	fs.BoolVar(&flagCfg.RateLimitEnabled, "rate-limit", cfg.RateLimitEnabled, "Enable per-client rate limiting")
	fs.IntVar(&flagCfg.RateLimitPerMinute, "rate-limit-per-minute", cfg.RateLimitPerMinute, "Requests allowed per client per minute")
	fs.BoolVar(&flagCfg.TracingEnabled, "tracing", cfg.TracingEnabled, "Export OpenTelemetry spans to stdout")
	fs.StringVar(&proxies, "trusted-proxies", "", "Reverse proxies allowed to set X-Forwarded-For (comma separated IPs or CIDRs)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Only flags given explicitly override the file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = flagCfg.Addr
		case "grpc":
			cfg.GRPCPort = flagCfg.GRPCPort
		case "db":
			cfg.DBPath = flagCfg.DBPath
		case "debug":
			cfg.Debug = flagCfg.Debug
		case "env":
			cfg.Environment = flagCfg.Environment
		case "cors-origins":
			cfg.CORSOrigins = parseList(cors)
		case "rate-limit":
			cfg.RateLimitEnabled = flagCfg.RateLimitEnabled
		case "rate-limit-per-minute":
			cfg.RateLimitPerMinute = flagCfg.RateLimitPerMinute
		case "tracing":
			cfg.TracingEnabled = flagCfg.TracingEnabled
		case "trusted-proxies":
			cfg.TrustedProxies = parseList(proxies)
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv("ADDR", c.Addr)
	c.DBPath = getEnv("DB", c.DBPath)
	c.Environment = getEnv("ENV", c.Environment)
	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		c.CORSOrigins = parseList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "TRUSTED_PROXIES"); ok {
		c.TrustedProxies = parseList(v)
	}

	var err error
	if c.GRPCPort, err = getEnvInt("GRPC_PORT", c.GRPCPort); err != nil {
		return err
	}
	if c.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute); err != nil {
		return err
	}
	if c.Debug, err = getEnvBool("DEBUG", c.Debug); err != nil {
		return err
	}
	if c.RateLimitEnabled, err = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimitEnabled); err != nil {
		return err
	}
	if c.TracingEnabled, err = getEnvBool("TRACING", c.TracingEnabled); err != nil {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("invalid environment %q: must be one of development, staging, production", c.Environment)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port %d", c.GRPCPort)
	}
	if c.RateLimitEnabled && c.RateLimitPerMinute <= 0 {
		return errors.New("rate_limit_per_minute must be positive when rate limiting is enabled")
	}
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(p); err != nil {
			return fmt.Errorf("invalid trusted proxy %q: must be an IP or CIDR", p)
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// LogLevel returns the slog level implied by Debug.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(envPrefix + key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return b, nil
}

// getDefaultDBPath returns the default database path in the user's home directory.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vulnmanager.db"
	}
	return filepath.Join(home, ".vulnmanager", "vulnmanager.db")
}
