package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"lawoffice/pkg/apiclient"
)

type cliConfig struct {
	Server  string `json:"server"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lawoffice", "config.json"), nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{Server: "http://127.0.0.1:3000"}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.Server == "" {
		cfg.Server = "http://127.0.0.1:3000"
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// withClient runs fn with an API client built from the saved config and
// persists the token pair afterwards, so a transparent refresh sticks.
func withClient(ctx context.Context, fn func(ctx context.Context, api *apiclient.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	api := apiclient.New(cfg.Server)
	api.SetTokens(cfg.Access, cfg.Refresh)

	runErr := fn(ctx, api)

	access, refresh := api.Tokens()
	if access != cfg.Access || refresh != cfg.Refresh {
		cfg.Access = access
		cfg.Refresh = refresh
		if err := saveConfig(cfg); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}
