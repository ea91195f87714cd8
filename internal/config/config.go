package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const appName = "ubilern"

// Config stores runtime configuration loaded from the environment and an
// optional config.yaml in the data directory.
type Config struct {
	DataDir        string `mapstructure:"data_dir" validate:"required"`
	Database       string `mapstructure:"database_path" validate:"required"`
	LogDir         string `mapstructure:"log_dir" validate:"required"`
	LogLevel       string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	MaxLogFiles    int    `mapstructure:"max_log_files" validate:"gte=1"`
	FPS            int    `mapstructure:"fps" validate:"gte=1,lte=240"`
	Seed           uint64 `mapstructure:"seed"`
	OpenAIKey      string `mapstructure:"openai_api_key"`
	OpenAIEndpoint string `mapstructure:"openai_endpoint" validate:"omitempty,url"`
	OpenAIModel    string `mapstructure:"openai_model" validate:"required"`
}

// Load reads configuration from the environment, providing sensible defaults,
// and makes sure the data, database and log directories exist.
func Load() (Config, error) {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataDir := defaultDataDir()
	if dir, ok := os.LookupEnv("UBILERN_DATA_DIR"); ok && dir != "" {
		dataDir = dir
	}

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("database_path", filepath.Join(dataDir, "db", appName+".db"))
	v.SetDefault("log_dir", filepath.Join(dataDir, "logs"))
	v.SetDefault("log_level", "info")
	v.SetDefault("max_log_files", 10)
	v.SetDefault("fps", 30)
	v.SetDefault("seed", 0)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_endpoint", "https://api.openai.com/v1")
	v.SetDefault("openai_model", "gpt-4o-mini")

	if err := v.BindEnv("openai_api_key", "UBILERN_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind openai key: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	for _, dir := range []string{cfg.DataDir, filepath.Dir(cfg.Database), cfg.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure dir %s: %w", dir, err)
		}
	}
	return cfg, nil
}

// Validate checks cfg against its struct constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(".", appName)
}
