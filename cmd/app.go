package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Tiliavir/ponto/internal/config"
	"github.com/Tiliavir/ponto/internal/remote"
	"github.com/Tiliavir/ponto/internal/storage"
	_ "github.com/Tiliavir/ponto/internal/storage/sqlite"
)

// app bundles what every command needs.
type app struct {
	cfg    config.Config
	loc    *time.Location
	base   string
	store  storage.Store
	logger *zap.Logger
}

// overrides maps viper keys (flags and PONTO_* env vars) onto config fields.
func overrides(cfg *config.Config) {
	for key, field := range map[string]*string{
		"user_id":          &cfg.UserID,
		"timezone":         &cfg.Timezone,
		"storage.driver":   &cfg.Storage.Driver,
		"storage.path":     &cfg.Storage.Path,
		"remote.url":       &cfg.Remote.URL,
		"remote.api_key":   &cfg.Remote.APIKey,
		"remote.client_id": &cfg.Remote.ClientID,
		"remote.token_url": &cfg.Remote.TokenURL,
	} {
		if v := viper.GetString(key); v != "" {
			*field = v
		}
	}
}

// loadSettings reads the config file and applies flag and env overrides.
func loadSettings() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path := viper.GetString("config"); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	overrides(&cfg)
	return cfg, cfg.Validate()
}

// openApp loads settings and opens the configured store. Callers close a.store.
func openApp() (*app, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, systemError(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, systemError(err)
	}

	base := cfg.Storage.Path
	if base == "" {
		base, err = storage.BaseDir()
		if err != nil {
			return nil, systemError(err)
		}
	}

	store, err := storage.Open(cfg.Storage.Driver, base, logger)
	if err != nil {
		return nil, systemError(err)
	}
	logger.Debug("store opened", zap.String("driver", cfg.Storage.Driver), zap.String("path", base))
	return &app{cfg: cfg, loc: loc, base: base, store: store, logger: logger}, nil
}

func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

func (a *app) remoteOptions() remote.Options {
	return remote.Options{
		BaseURL:   a.cfg.Remote.URL,
		APIKey:    a.cfg.Remote.APIKey,
		ClientID:  a.cfg.Remote.ClientID,
		TokenURL:  a.cfg.TokenURL(),
		TokenPath: remote.TokenFilePath(a.base),
	}
}

// remoteClient returns a client authenticated with the stored token.
func (a *app) remoteClient(ctx context.Context) (*remote.Client, error) {
	if !a.cfg.RemoteEnabled() {
		return nil, userError("no backend configured; set remote.url in the config or PONTO_REMOTE_URL")
	}
	opts := a.remoteOptions()
	tok, err := remote.StoredToken(opts)
	if err != nil {
		return nil, userError("%v", err)
	}
	return remote.NewClient(ctx, opts, tok), nil
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	return nil
}

func coords(lat, lng *float64) string {
	if lat == nil || lng == nil {
		return ""
	}
	return fmt.Sprintf("%.5f, %.5f", *lat, *lng)
}
