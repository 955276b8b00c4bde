package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Player  PlayerConfig  `mapstructure:"player"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the Subsonic server connection settings. The password
// is used only to derive per-request auth tokens and must never be logged.
type ServerConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// PlayerConfig holds audio engine configuration
type PlayerConfig struct {
	Command string `mapstructure:"command"` // mpv binary
	Socket  string `mapstructure:"socket"`  // IPC socket path
	Volume  int    `mapstructure:"volume"`  // initial volume, 0-100
}

// FetchConfig bounds background requests against the server
type FetchConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	ArtSize int `mapstructure:"art_size"` // requested cover art edge in pixels
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			Command: "mpv",
			Socket:  defaultSocketPath(),
			Volume:  80,
		},
		Fetch: FetchConfig{
			MaxConcurrent: 4,
		},
		UI: UIConfig{
			ArtSize: 200,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

func defaultSocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("tonic-mpv-%d.sock", os.Getpid()))
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "tonic", "tonic.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "tonic", "tonic.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "tonic")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "tonic")
	}
}

// LoadConfig loads configuration from file and environment. A tonic.toml in
// the working directory wins over the one under the user config directory.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("tonic")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(defaultConfigPath())

	// Environment variable overrides
	viper.SetEnvPrefix("TONIC")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to the user config directory
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("server.url", cfg.Server.URL)
	viper.Set("server.username", cfg.Server.Username)
	viper.Set("server.password", cfg.Server.Password)

	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.socket", cfg.Player.Socket)
	viper.Set("player.volume", cfg.Player.Volume)

	viper.Set("fetch.max_concurrent", cfg.Fetch.MaxConcurrent)

	viper.Set("ui.art_size", cfg.UI.ArtSize)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "tonic.toml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server connection is fully specified
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Username != "" && c.Server.Password != ""
}
