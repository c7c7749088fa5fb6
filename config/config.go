package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config filled from configuration file and environment
type Config struct {
	DiscordBotKey string   `yaml:"discord_bot_key"`
	GameMaster    string   `yaml:"game_master"`
	Prefix        string   `yaml:"prefix"`
	Database      Database `yaml:"database"`
	PokeAPI       PokeAPI  `yaml:"pokeapi"`
	Spawn         Spawn    `yaml:"spawn"`
	Trade         Trade    `yaml:"trade"`
	Battle        Battle   `yaml:"battle"`
	Market        Market   `yaml:"market"`
	Log           Log      `yaml:"log"`
}

type Database struct {
	Driver   string `yaml:"driver"` // sqlite or postgres
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type PokeAPI struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// CacheSize is the number of api resources kept in memory
	CacheSize int `yaml:"cache_size"`
}

type Spawn struct {
	SpeciesCount    int           `yaml:"species_count"`
	DefaultCooldown time.Duration `yaml:"default_cooldown"`
}

type Trade struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Battle struct {
	TurnDelay time.Duration `yaml:"turn_delay"`
}

type Market struct {
	ExchangeRateURL string `yaml:"exchange_rate_url"`
	WowTokenURL     string `yaml:"wow_token_url"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

var (
	errMissingBotKey = errors.New("missing discord bot key")
	errBadDriver     = errors.New("unsupported database driver")
	errSpeciesCount  = errors.New("spawn species count must be at least 1")
)

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Prefix: "!",
		Database: Database{
			Driver: "sqlite",
			Path:   "data/pokemon.db",
			Name:   "pokemon",
		},
		PokeAPI: PokeAPI{
			BaseURL:   "https://pokeapi.co/api/v2/",
			Timeout:   10 * time.Second,
			CacheSize: 512,
		},
		Spawn: Spawn{
			SpeciesCount:    1025,
			DefaultCooldown: 15 * time.Minute,
		},
		Trade:  Trade{Timeout: 30 * time.Minute},
		Battle: Battle{TurnDelay: 1500 * time.Millisecond},
		Market: Market{
			ExchangeRateURL: "https://open.exchangerate-api.com/v6/latest",
			WowTokenURL:     "https://wowtokenprices.com/",
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the optional yaml file at path, then .env and the process
// environment, in that order of precedence (environment wins).
func Load(path string) (Config, error) {
	conf := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return conf, fmt.Errorf("read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &conf); err != nil {
				return conf, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := conf.applyEnv(); err != nil {
		return conf, err
	}

	return conf, nil
}

func (c *Config) applyEnv() error {
	for key, dst := range map[string]*string{
		"DISCORD_BOT_KEY": &c.DiscordBotKey,
		"GAME_MASTER":     &c.GameMaster,
		"BOT_PREFIX":      &c.Prefix,
		"DB_DRIVER":       &c.Database.Driver,
		"DB_PATH":         &c.Database.Path,
		"DB_HOST":         &c.Database.Host,
		"DB_USER":         &c.Database.User,
		"DB_PASSWORD":     &c.Database.Password,
		"DB_NAME":         &c.Database.Name,
		"POKEAPI_URL":     &c.PokeAPI.BaseURL,
		"LOG_LEVEL":       &c.Log.Level,
	} {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		c.Log.Pretty = pretty
	}

	if v := os.Getenv("BATTLE_TURN_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BATTLE_TURN_DELAY: %w", err)
		}
		c.Battle.TurnDelay = d
	}

	return nil
}

// Validate checks what is needed to connect to discord
func (c Config) Validate() error {
	if c.DiscordBotKey == "" {
		return errMissingBotKey
	}
	if c.Spawn.SpeciesCount < 1 {
		return fmt.Errorf("%d: %w", c.Spawn.SpeciesCount, errSpeciesCount)
	}
	return c.Database.Validate()
}

func (d Database) Validate() error {
	switch d.Driver {
	case "sqlite", "postgres":
		return nil
	default:
		return fmt.Errorf("%q: %w", d.Driver, errBadDriver)
	}
}
