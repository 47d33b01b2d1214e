package config

import (
	"errors"
	"fmt"
	"go-prod-dashboard/internal/model"
	"go-prod-dashboard/internal/pipeline"
	"go-prod-dashboard/pkg/utils"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when DASHBOARD_CONFIG is not set; it may be absent
const DefaultPath = "config.yaml"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
	Sheets SheetsConfig `yaml:"sheets"`
	Log    LogConfig    `yaml:"log"`
	// ReplaceDashboards drops the built-in dashboards instead of merging by id
	ReplaceDashboards bool              `yaml:"replace_dashboards"`
	Dashboards        []model.Dashboard `yaml:"dashboards"`
}

type ServerConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	DBPath          string `yaml:"db_path"`
	OutputDir       string `yaml:"output_dir"`
	ShutdownTimeout string `yaml:"shutdown_timeout"` // e.g. "10s"
}

type CacheConfig struct {
	TTL         string `yaml:"ttl"` // e.g. "5m"
	EnableRedis bool   `yaml:"enable_redis"`
	RedisURL    string `yaml:"redis_url"`
}

type SheetsConfig struct {
	BaseURL      string `yaml:"base_url"`
	FetchTimeout string `yaml:"fetch_timeout"` // e.g. "15s"
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

func (c *CacheConfig) GetTTL() time.Duration {
	return utils.ParseDuration(c.TTL, 5*time.Minute)
}

func (s *SheetsConfig) GetFetchTimeout() time.Duration {
	return utils.ParseDuration(s.FetchTimeout, 15*time.Second)
}

func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return utils.ParseDuration(s.ShutdownTimeout, 10*time.Second)
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			DBPath:          "dashboard.db",
			OutputDir:       "output",
			ShutdownTimeout: "10s",
		},
		Cache:  CacheConfig{TTL: "5m", RedisURL: "redis://localhost:6379/0"},
		Sheets: SheetsConfig{BaseURL: pipeline.DefaultSheetsBaseURL, FetchTimeout: "15s"},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads .env, then the YAML file at path (DASHBOARD_CONFIG or config.yaml
// when empty), then environment overrides, and validates every dashboard.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("DASHBOARD_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// built-in dashboards only
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	applyEnv(cfg)
	cfg.Dashboards = mergeDashboards(DefaultDashboards(), cfg.Dashboards, cfg.ReplaceDashboards)

	var errs []error
	for _, d := range cfg.Dashboards {
		if err := pipeline.ValidateDashboard(d); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Server.OutputDir = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.TTL = (time.Duration(n) * time.Second).String()
		}
	}
	if v := os.Getenv("ENABLE_REDIS"); v != "" {
		cfg.Cache.EnableRedis, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("SHEETS_BASE_URL"); v != "" {
		cfg.Sheets.BaseURL = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Sheets.FetchTimeout = (time.Duration(n) * time.Millisecond).String()
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// mergeDashboards overlays configured dashboards on the built-ins by id
func mergeDashboards(builtin, configured []model.Dashboard, replace bool) []model.Dashboard {
	if replace {
		return configured
	}
	out := make([]model.Dashboard, 0, len(builtin)+len(configured))
	index := make(map[string]int)
	for _, d := range builtin {
		index[d.ID] = len(out)
		out = append(out, d)
	}
	for _, d := range configured {
		if i, ok := index[d.ID]; ok {
			out[i] = d
			continue
		}
		index[d.ID] = len(out)
		out = append(out, d)
	}
	return out
}

// Dashboard looks up a dashboard by id
func (c *Config) Dashboard(id string) (model.Dashboard, error) {
	for _, d := range c.Dashboards {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Dashboard{}, fmt.Errorf("%w: %s", model.ErrUnknownDashboard, id)
}

// SetupLogging configures the global zerolog logger
func (l LogConfig) SetupLogging() {
	SetupLogging(os.Stderr, l)
}

// SetupLogging configures the global zerolog logger to write to w
func SetupLogging(w io.Writer, l LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(l.Format, "json") {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}).With().Timestamp().Logger()
}
