package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netwatch-io/netwatch/internal/model"
)

// DefaultPath is the config file location relative to the working directory.
const DefaultPath = "config.json"

// Store reads and writes one JSON config file.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore returns a store bound to the given path. An empty path uses
// DefaultPath.
func NewStore(path string, logger *zap.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the config file path.
func (s *Store) Path() string { return s.path }

// Load reads the config file, creating it with defaults when it does not
// exist. A file that exists but cannot be read or parsed is a fatal startup
// condition for the caller.
func (s *Store) Load() (model.AppConfig, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("config file not found, creating default", zap.String("path", s.path))
		cfg := Default()
		if err := s.Save(cfg); err != nil {
			return model.AppConfig{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Decode(data)
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Decode parses a JSON config, applying the same defaults as Load: a missing
// data_retention_days keeps the default while an explicit zero survives,
// protocols default to TCP, webhooks get generated ids. Used for the config
// file and for config replacements arriving over HTTP.
func Decode(data []byte) (model.AppConfig, error) {
	cfg := model.AppConfig{DataRetentionDays: model.DefaultRetentionDays}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.AppConfig{}, err
	}
	if err := normalize(&cfg); err != nil {
		return model.AppConfig{}, err
	}
	return cfg, nil
}

// Save writes the config atomically via a sibling temp file and rename.
func (s *Store) Save(cfg model.AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}

// normalize applies per-field defaults and rejects invalid protocols.
func normalize(cfg *model.AppConfig) error {
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if t.Protocol == "" {
			t.Protocol = model.ProtocolTCP
		}
		if !t.Protocol.Valid() {
			return fmt.Errorf("target %q: unknown protocol %q", t.ID, t.Protocol)
		}
	}
	for i := range cfg.Alert.Webhooks {
		if cfg.Alert.Webhooks[i].ID == "" {
			cfg.Alert.Webhooks[i].ID = uuid.NewString()
		}
	}
	return nil
}

// Default returns the configuration written on first run: a few well-known
// public endpoints so a fresh install shows signal immediately.
func Default() model.AppConfig {
	port := func(p uint16) *uint16 { return &p }
	return model.AppConfig{
		Targets: []model.Target{
			{
				ID:       "1",
				Host:     "8.8.8.8",
				Port:     port(53),
				Name:     "Google DNS (TCP)",
				Protocol: model.ProtocolTCP,
			},
			{
				ID:       "2",
				Host:     "1.1.1.1",
				Name:     "Cloudflare Ping",
				Protocol: model.ProtocolICMP,
			},
			{
				ID:       "3",
				Host:     "8.8.8.8",
				Port:     port(53),
				Name:     "Google DNS Query",
				Protocol: model.ProtocolDNS,
			},
		},
		Alert:             model.AlertConfig{},
		DataRetentionDays: model.DefaultRetentionDays,
	}
}
