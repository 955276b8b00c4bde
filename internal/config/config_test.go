package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Player.Command != "mpv" {
		t.Errorf("player command = %q, want mpv", cfg.Player.Command)
	}
	if cfg.Player.Volume != 80 {
		t.Errorf("volume = %d, want 80", cfg.Player.Volume)
	}
	if cfg.Fetch.MaxConcurrent != 4 {
		t.Errorf("max_concurrent = %d, want 4", cfg.Fetch.MaxConcurrent)
	}
	if cfg.UI.ArtSize != 200 {
		t.Errorf("art_size = %d, want 200", cfg.UI.ArtSize)
	}
	if cfg.Player.Socket == "" {
		t.Error("no default socket path")
	}
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		server ServerConfig
		want   bool
	}{
		{"empty", ServerConfig{}, false},
		{"url only", ServerConfig{URL: "https://music.example"}, false},
		{"missing password", ServerConfig{URL: "https://music.example", Username: "admin"}, false},
		{"complete", ServerConfig{URL: "https://music.example", Username: "admin", Password: "hunter2"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Server: tt.server}
			if got := c.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigReadsWorkingDirFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Chdir(dir)

	body := `
[server]
url = "https://music.example"
username = "admin"
password = "hunter2"

[player]
volume = 55
`
	if err := os.WriteFile(filepath.Join(dir, "tonic.toml"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.URL != "https://music.example" || cfg.Server.Username != "admin" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Player.Volume != 55 {
		t.Errorf("volume = %d, want 55 from file", cfg.Player.Volume)
	}
	// Unspecified keys keep their defaults.
	if cfg.Player.Command != "mpv" {
		t.Errorf("command = %q, want default mpv", cfg.Player.Command)
	}
	if cfg.Fetch.MaxConcurrent != 4 {
		t.Errorf("max_concurrent = %d, want default 4", cfg.Fetch.MaxConcurrent)
	}
	if !cfg.IsConfigured() {
		t.Error("fully specified server not reported as configured")
	}
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IsConfigured() {
		t.Error("empty config reported as configured")
	}
	if cfg.Player.Command != "mpv" {
		t.Errorf("command = %q, want default", cfg.Player.Command)
	}
}
