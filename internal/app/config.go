package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/raysh454/formfetch/internal/testbed"
	"github.com/raysh454/formfetch/internal/webclient"
)

// Config is the runtime configuration shared by every command.
type Config struct {
	// Variant selects body and rendering rules: "json" or "text".
	Variant string `mapstructure:"variant"`

	// Ordering decides overlapping writes: "latest" or "last-writer".
	Ordering string `mapstructure:"ordering"`

	// Timeout bounds each dispatch. Zero means none.
	Timeout time.Duration `mapstructure:"timeout"`

	// LogFormat is "json", "zap" or "none".
	LogFormat string `mapstructure:"log_format"`

	// StorageRoot holds the history database.
	StorageRoot string `mapstructure:"storage_root"`

	// History enables recording finished dispatches.
	History bool `mapstructure:"history"`

	WebClient webclient.Config `mapstructure:"webclient"`
	Server    ServerConfig     `mapstructure:"server"`
	Testbed   testbed.Config   `mapstructure:"testbed"`
}

type ServerConfig struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		Variant:     "json",
		Ordering:    "latest",
		LogFormat:   "json",
		StorageRoot: "~/.config/formfetch",
		History:     true,
		WebClient:   webclient.DefaultConfig(),
		Server: ServerConfig{
			ListenAddr: ":8081",
		},
		Testbed: testbed.DefaultConfig(),
	}
}

// LoadConfig reads defaults, then the file at path (YAML, JSON or TOML; skipped
// when path is empty), then FORMFETCH_* environment variables, e.g.
// FORMFETCH_WEBCLIENT_TIMEOUT=5s.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("FORMFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so env overrides apply on Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("variant", d.Variant)
	v.SetDefault("ordering", d.Ordering)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("storage_root", d.StorageRoot)
	v.SetDefault("history", d.History)

	v.SetDefault("webclient.backend", string(d.WebClient.Client))
	v.SetDefault("webclient.timeout", d.WebClient.Timeout)
	v.SetDefault("webclient.headless", d.WebClient.Headless)
	v.SetDefault("webclient.idle_after", d.WebClient.IdleAfter)
	v.SetDefault("webclient.max_body_bytes", d.WebClient.MaxBodyBytes)

	v.SetDefault("server.listen_addr", d.Server.ListenAddr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("testbed.port", d.Testbed.Port)
	v.SetDefault("testbed.document_root", d.Testbed.DocumentRoot)
	v.SetDefault("testbed.uploads_dir", d.Testbed.UploadsDir)
	v.SetDefault("testbed.wasm_dir", d.Testbed.WasmDir)
}
