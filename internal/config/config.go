package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Game     GameConfig     `mapstructure:"game"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	HTTP                  HTTPConfig    `mapstructure:"http"`
	GRPC                  GRPCConfig    `mapstructure:"grpc"`
	LogLevel              string        `mapstructure:"log_level"`
	LogFormat             string        `mapstructure:"log_format"`
	GracefulShutdownDelay int           `mapstructure:"graceful_shutdown_delay"`
	IdempotencyTTL        time.Duration `mapstructure:"idempotency_ttl"`
	RequestLogging        bool          `mapstructure:"request_logging"`
}

// HTTPConfig holds the JSON API listener settings
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// GRPCConfig holds the health-check listener settings
type GRPCConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	EnableReflection bool   `mapstructure:"enable_reflection"`
}

// StoreConfig selects and configures the document store
type StoreConfig struct {
	Backend      string      `mapstructure:"backend"`
	SnapshotFile string      `mapstructure:"snapshot_file"`
	Mongo        MongoConfig `mapstructure:"mongo"`
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CatalogConfig points at the static game data
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// GameConfig holds game mechanics configuration
type GameConfig struct {
	Accrual  AccrualConfig  `mapstructure:"accrual"`
	Domains  DomainsConfig  `mapstructure:"domains"`
	Grid     GridConfig     `mapstructure:"grid"`
	Missions MissionsConfig `mapstructure:"missions"`
	Start    StartConfig    `mapstructure:"start"`
}

// AccrualConfig bounds offline production
type AccrualConfig struct {
	MaxHours float64 `mapstructure:"max_hours"`
	MinHours float64 `mapstructure:"min_hours"`
}

// DomainsConfig holds world-map settings
type DomainsConfig struct {
	MaxAccrualHours float64 `mapstructure:"max_accrual_hours"`
	MaxPerPlayer    int     `mapstructure:"max_per_player"`
	WorldWidth      int     `mapstructure:"world_width"`
	WorldHeight     int     `mapstructure:"world_height"`
}

// GridConfig holds the size of each player's mine map
type GridConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// MissionsConfig holds mission rotation settings
type MissionsConfig struct {
	DailyCount  int `mapstructure:"daily_count"`
	WeeklyCount int `mapstructure:"weekly_count"`
}

// StartConfig holds new-player settings not covered by the catalog
type StartConfig struct {
	Workers int `mapstructure:"workers"`
}

// RealtimeConfig holds websocket push settings
type RealtimeConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	SendBuffer int  `mapstructure:"send_buffer"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.grpc.host", "0.0.0.0")
	v.SetDefault("server.grpc.port", 50051)
	v.SetDefault("server.grpc.enable_reflection", true)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "console")
	v.SetDefault("server.graceful_shutdown_delay", 2)
	v.SetDefault("server.idempotency_ttl", 24*time.Hour)
	v.SetDefault("server.request_logging", true)

	// Store defaults
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.snapshot_file", "")
	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.database", "eduland")
	v.SetDefault("store.mongo.timeout", 10*time.Second)

	v.SetDefault("catalog.path", "")

	// Game defaults
	v.SetDefault("game.accrual.max_hours", 24.0)
	v.SetDefault("game.accrual.min_hours", 0.1)
	v.SetDefault("game.domains.max_accrual_hours", 24.0)
	v.SetDefault("game.domains.max_per_player", 3)
	v.SetDefault("game.domains.world_width", 20)
	v.SetDefault("game.domains.world_height", 20)
	v.SetDefault("game.grid.width", 6)
	v.SetDefault("game.grid.height", 6)
	v.SetDefault("game.missions.daily_count", 3)
	v.SetDefault("game.missions.weekly_count", 2)
	v.SetDefault("game.start.workers", 3)

	// Realtime defaults
	v.SetDefault("realtime.enabled", true)
	v.SetDefault("realtime.send_buffer", 32)
}

// Init initializes the configuration
func Init(configPath string) error {
	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading .env: %w", err)
	}

	v = viper.New()
	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/eduland")
	}

	v.SetEnvPrefix("EDU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// defaults only
		case configPath != "" && errors.Is(err, fs.ErrNotExist):
			// a named file that does not exist also falls back to defaults
		default:
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<env>.yaml over the loaded config
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)
	v.SetConfigFile(envFile)
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error merging environment config %s: %w", envFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}
	return Validate(cfg)
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	_ = v.Unmarshal(cfg)
}

// GetString gets a string value from config
func GetString(key string) string {
	return v.GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return v.GetInt(key)
}

// GetFloat64 gets a float64 value from config
func GetFloat64(key string) float64 {
	return v.GetFloat64(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. onChange receives
// the changed file name; invalid edits are ignored.
func WatchConfig(onChange func(name string, err error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		err := v.Unmarshal(next)
		if err == nil {
			err = Validate(next)
		}
		if err == nil {
			*cfg = *next
		}
		if onChange != nil {
			onChange(e.Name, err)
		}
	})
	v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if c.Server.HTTP.Port <= 0 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port must be between 1 and 65535")
	}
	if c.Server.GRPC.Port <= 0 || c.Server.GRPC.Port > 65535 {
		return fmt.Errorf("server.grpc.port must be between 1 and 65535")
	}
	if c.Server.GracefulShutdownDelay < 0 {
		return fmt.Errorf("server.graceful_shutdown_delay must be non-negative")
	}
	if c.Server.IdempotencyTTL <= 0 {
		return fmt.Errorf("server.idempotency_ttl must be positive")
	}

	switch c.Store.Backend {
	case "memory":
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required for the mongo backend")
		}
		if c.Store.Mongo.Database == "" {
			return fmt.Errorf("store.mongo.database is required for the mongo backend")
		}
	default:
		return fmt.Errorf("store.backend must be memory or mongo, got %q", c.Store.Backend)
	}

	a := c.Game.Accrual
	if a.MaxHours <= 0 {
		return fmt.Errorf("game.accrual.max_hours must be positive")
	}
	if a.MinHours < 0 || a.MinHours >= a.MaxHours {
		return fmt.Errorf("game.accrual.min_hours must be in [0, max_hours)")
	}

	d := c.Game.Domains
	if d.MaxAccrualHours <= 0 {
		return fmt.Errorf("game.domains.max_accrual_hours must be positive")
	}
	if d.MaxPerPlayer <= 0 {
		return fmt.Errorf("game.domains.max_per_player must be positive")
	}
	if d.WorldWidth <= 0 || d.WorldHeight <= 0 {
		return fmt.Errorf("game.domains world dimensions must be positive")
	}

	if c.Game.Grid.Width <= 0 || c.Game.Grid.Height <= 0 {
		return fmt.Errorf("game.grid dimensions must be positive")
	}
	if c.Game.Missions.DailyCount < 0 || c.Game.Missions.WeeklyCount < 0 {
		return fmt.Errorf("game.missions counts must be non-negative")
	}
	if c.Game.Start.Workers < 0 {
		return fmt.Errorf("game.start.workers must be non-negative")
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("realtime.send_buffer must be positive")
	}

	return nil
}
