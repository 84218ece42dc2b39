package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Settings is the full application configuration. Defaults are overridden by
// an optional YAML file, which is in turn overridden by environment variables.
type Settings struct {
	Emby      EmbySettings      `koanf:"emby"`
	TMDB      TMDBSettings      `koanf:"tmdb"`
	Trakt     TraktSettings     `koanf:"trakt"`
	TasteDive TasteDiveSettings `koanf:"tastedive"`
	ComfyUI   ComfyUISettings   `koanf:"comfyui"`
	Sync      SyncSettings      `koanf:"sync"`
	Log       LogSettings       `koanf:"log"`
}

type EmbySettings struct {
	ServerURL string `koanf:"server_url"`
	APIKey    string `koanf:"api_key"`
}

type TMDBSettings struct {
	APIKey          string `koanf:"api_key"`
	ReadAccessToken string `koanf:"read_access_token"`
}

type TraktSettings struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

type TasteDiveSettings struct {
	APIKey string `koanf:"api_key"`
}

type ComfyUISettings struct {
	URL       string `koanf:"url"`
	OutputDir string `koanf:"output_dir"`
}

type SyncSettings struct {
	BatchSize           int  `koanf:"batch_size"`
	QualityFetchWorkers int  `koanf:"quality_fetch_workers"`
	AutoSyncEnabled     bool `koanf:"auto_sync_enabled"`
	AutoSyncIntervalMin int  `koanf:"auto_sync_interval_minutes"`
}

// LogSettings configures file logging with rotation. Stdout is reserved for
// the stdio transport, so logs go to a file (and stderr).
type LogSettings struct {
	File       string `koanf:"file"`
	Level      string `koanf:"level"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxAge     int    `koanf:"max_age"`
	MaxBackups int    `koanf:"max_backups"`
	Compress   bool   `koanf:"compress"`
}

// Defaults returns the baseline configuration before file and env overrides.
func Defaults() Settings {
	return Settings{
		ComfyUI: ComfyUISettings{
			URL:       "http://127.0.0.1:8080",
			OutputDir: "artwork/generated",
		},
		Sync: SyncSettings{
			BatchSize:           200,
			QualityFetchWorkers: 20,
			AutoSyncEnabled:     false,
			AutoSyncIntervalMin: 360,
		},
		Log: LogSettings{
			File:       "logs/boxsetter.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxAge:     7,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// envKeys maps the deployment environment variable names onto config keys.
// The names predate this service and are kept for drop-in compatibility.
var envKeys = map[string]string{
	"EMBY_SERVER_URL":        "emby.server_url",
	"EMBY_SERVER_API":        "emby.api_key",
	"TMDB_API":               "tmdb.api_key",
	"TMDB_READ_ACCESS_TOKEN": "tmdb.read_access_token",
	"TRAKT_CLIENT_ID":        "trakt.client_id",
	"TRAKT_CLIENT_SECRET":    "trakt.client_secret",
	"TASTEDIVE_API":          "tastedive.api_key",
	"COMFYUI_URL":            "comfyui.url",
}

// Load builds Settings from defaults, an optional YAML file at path, and
// environment overrides. A missing file is not an error when path is the
// default location; an explicitly named file must exist.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Validate checks the settings required for the server to function at all.
// Optional integrations (Trakt, TasteDive, ComfyUI) are checked lazily by
// their tools instead.
func (s *Settings) Validate() error {
	if s.Emby.ServerURL == "" {
		return errors.New("emby server URL is required (EMBY_SERVER_URL)")
	}
	if s.Emby.APIKey == "" {
		return errors.New("emby API key is required (EMBY_SERVER_API)")
	}
	return nil
}
