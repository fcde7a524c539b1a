package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kysee/zkrawtx/zk-rawtx/merkle"
	"github.com/kysee/zkrawtx/zk-rawtx/prover"
)

// Config holds the settings a command line can override.
type Config struct {
	DBPath   string `json:"db_path"`
	LogLevel string `json:"log_level"`

	// TreeDepth is the height of the ledger's note commitment tree and of
	// the spend circuit.
	TreeDepth int `json:"tree_depth"`
	// Workers bounds parallel witness and proof checks; 0 means one per CPU.
	Workers int `json:"workers"`

	// Unversioned makes blobs without a version byte the default input.
	Unversioned bool `json:"unversioned"`
}

func DefaultConfig() *Config {
	return &Config{
		DBPath:    "rawtx.db",
		LogLevel:  "info",
		TreeDepth: prover.DefaultDepth,
	}
}

// LoadConfig reads a JSON config file. Keys missing from the file keep
// their default values; an empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must be set")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.TreeDepth < 1 || c.TreeDepth > merkle.MaxDepth {
		return fmt.Errorf("tree_depth must be in [1, %d]", merkle.MaxDepth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}
