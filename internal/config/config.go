// Package config reads process settings from the environment (optionally
// seeded from a .env file) and game tuning from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"

	WordsFile     = "file"
	WordsPostgres = "postgres"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Store  StoreConfig
	Words  WordsConfig
	Log    LogConfig
	Game   GameConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StoreConfig struct {
	Driver string
}

type WordsConfig struct {
	Source      string
	File        string
	DatabaseURL string
}

type LogConfig struct {
	Level  string
	Format string
}

// GameConfig is the tunable part of the engine. Everything except
// NumberOfRooms may come from the YAML file named by GAME_CONFIG_FILE.
type GameConfig struct {
	NumberOfRooms   int           `yaml:"-"`
	MinPlayers      int           `yaml:"min_players"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"`
	RoomNames       []string      `yaml:"room_names"`
	EventsPerSecond float64       `yaml:"events_per_second"`
	EventBurst      int           `yaml:"event_burst"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Store:  StoreConfig{Driver: StoreRedis},
		Words:  WordsConfig{Source: WordsFile, File: "words.json"},
		Log:    LogConfig{Level: "info", Format: "console"},
		Game: GameConfig{
			NumberOfRooms:   10,
			MinPlayers:      2,
			SweepInterval:   15 * time.Second,
			ProbeTimeout:    5 * time.Second,
			EventsPerSecond: 5,
			EventBurst:      10,
		},
	}
}

// Load reads .env (if present), the environment and the optional game
// YAML file, in that order, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}
	if path := os.Getenv("GAME_CONFIG_FILE"); path != "" {
		if err := cfg.Game.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	var err error
	if c.Server.Port, err = envInt("PORT", c.Server.Port); err != nil {
		return err
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	c.Redis.Addr = envString("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envString("REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = envInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}

	c.Store.Driver = strings.ToLower(envString("STORE_DRIVER", c.Store.Driver))

	c.Words.Source = strings.ToLower(envString("WORDS_SOURCE", c.Words.Source))
	c.Words.File = envString("WORDS_FILE", c.Words.File)
	c.Words.DatabaseURL = envString("DATABASE_URL", c.Words.DatabaseURL)

	c.Log.Level = strings.ToLower(envString("LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(envString("LOG_FORMAT", c.Log.Format))

	if c.Game.NumberOfRooms, err = envInt("NUMBER_OF_ROOMS", c.Game.NumberOfRooms); err != nil {
		return err
	}
	return nil
}

// loadYAML overlays the fields present in the file on g.
func (g *GameConfig) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read game config: %w", err)
	}
	if err := yaml.Unmarshal(data, g); err != nil {
		return fmt.Errorf("parse game config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Server.Port))
	}

	switch c.Store.Driver {
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Words.Source {
	case WordsFile:
		if c.Words.File == "" {
			errs = append(errs, errors.New("WORDS_FILE is required for the file word source"))
		}
	case WordsPostgres:
		if c.Words.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres word source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown WORDS_SOURCE %q", c.Words.Source))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.Log.Format))
	}

	g := c.Game
	if g.NumberOfRooms <= 0 && len(g.RoomNames) == 0 {
		errs = append(errs, errors.New("NUMBER_OF_ROOMS must be positive"))
	}
	if g.MinPlayers < 1 {
		errs = append(errs, fmt.Errorf("min_players must be at least 1, got %d", g.MinPlayers))
	}
	if g.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep_interval must be positive"))
	}
	if g.ProbeTimeout <= 0 || g.ProbeTimeout >= g.SweepInterval {
		errs = append(errs, errors.New("probe_timeout must be positive and shorter than sweep_interval"))
	}
	if g.EventsPerSecond <= 0 || g.EventBurst <= 0 {
		errs = append(errs, errors.New("events_per_second and event_burst must be positive"))
	}

	return errors.Join(errs...)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := envString(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
