package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/saravenpi/wavechat/internal/logging"
)

const envPrefix = "WAVECHAT"

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Window   time.Duration `mapstructure:"window"`
}

type ImportConfig struct {
	StartingID int64 `mapstructure:"starting_id"`
}

type ContactsConfig struct {
	DeleteStartID int64 `mapstructure:"delete_start_id"`
}

type MockConfig struct {
	Addr   string `mapstructure:"addr"`
	DBPath string `mapstructure:"db_path"`
}

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	UserID   int64          `mapstructure:"user_id"`
	Poll     PollConfig     `mapstructure:"poll"`
	Import   ImportConfig   `mapstructure:"import"`
	Contacts ContactsConfig `mapstructure:"contacts"`
	DataDir  string         `mapstructure:"data_dir"`
	Log      logging.Config `mapstructure:"log"`
	Mock     MockConfig     `mapstructure:"mock"`
}

// DefaultDataDir returns ~/.wavechat.
func DefaultDataDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".wavechat")
}

// Load reads .env, then config.yaml from the data dir, the working directory
// or ./config, then WAVECHAT_* environment variables. A missing config file
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DefaultDataDir())
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	dataDir := DefaultDataDir()

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("user_id", 0)
	v.SetDefault("poll.interval", 10*time.Second)
	v.SetDefault("poll.window", 19*time.Minute)
	v.SetDefault("import.starting_id", 100)
	v.SetDefault("contacts.delete_start_id", 3)
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")
	v.SetDefault("mock.addr", ":8080")
	v.SetDefault("mock.db_path", "")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "wavechat.log")
	}
	if cfg.Mock.DBPath == "" {
		cfg.Mock.DBPath = filepath.Join(cfg.DataDir, "mock.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the client cannot work with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.Window < c.Poll.Interval {
		return fmt.Errorf("poll.window (%s) must not be shorter than poll.interval (%s)", c.Poll.Window, c.Poll.Interval)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	return nil
}

// StoragePath is the sqlite file backing local storage.
func (c *Config) StoragePath() string {
	return filepath.Join(c.DataDir, "storage.db")
}

// ContactsDir is the directory of the YAML address book.
func (c *Config) ContactsDir() string {
	return filepath.Join(c.DataDir, "contacts")
}
