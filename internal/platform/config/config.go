package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server captures process-level configuration for the registry service.
type Server struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`
	// TrigramThreshold overrides the default similarity cutoff for
	// free-text search. Zero means use the matcher default.
	TrigramThreshold float64 `yaml:"trigram_threshold"`
}

// FromEnv builds a Server config from environment variables so main stays
// lean. AFYA_CONFIG may point at a YAML file; file values fill in anything
// the environment leaves unset.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        os.Getenv("AFYA_ADDR"),
		DatabaseURL: os.Getenv("AFYA_DATABASE_URL"),
	}

	if path := os.Getenv("AFYA_CONFIG"); path != "" {
		fileCfg, err := FromFile(path)
		if err != nil {
			return Server{}, err
		}
		if cfg.Addr == "" {
			cfg.Addr = fileCfg.Addr
		}
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = fileCfg.DatabaseURL
		}
		if cfg.TrigramThreshold == 0 {
			cfg.TrigramThreshold = fileCfg.TrigramThreshold
		}
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg, nil
}

// FromFile loads a Server config from a YAML file.
func FromFile(path string) (Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Server{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Server
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Server{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
