// Package config loads the service configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"bmipredict/inference"
	"bmipredict/labels"
	"bmipredict/logging"
	"bmipredict/ml"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		Encoding   string `yaml:"encoding"` // "console" or "json"
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Model struct {
		Type        string `yaml:"type"`
		Path        string `yaml:"path"`
		LabelsPath  string `yaml:"labels_path"`
		LabelsTable string `yaml:"labels_table"`
		CacheSize   int    `yaml:"cache_size"`
	} `yaml:"model"`
	Database struct {
		// Empty disables the prediction journal.
		Path string `yaml:"path"`
	} `yaml:"database"`
}

func Default() *Config {
	var c Config
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.MaxBodyBytes = 1 << 16
	c.Http.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Log.Encoding = "console"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	c.Model.Type = ml.ModelRandomForest
	c.Model.Path = "random_forest_model.json"
	c.Model.LabelsPath = "label_mappings.json"
	c.Model.LabelsTable = labels.DefaultTable
	c.Model.CacheSize = 1024
	return &c
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Model.LabelsPath == "" {
		return errors.New("model.labels_path is required")
	}
	switch c.Model.Type {
	case ml.ModelRandomForest, ml.ModelDecisionTree:
	default:
		return fmt.Errorf("model.type %q is not supported", c.Model.Type)
	}
	switch c.Log.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("log.encoding %q is not supported", c.Log.Encoding)
	}
	return nil
}

func (c *Config) Inference() inference.Config {
	return inference.Config{
		ModelType:   c.Model.Type,
		ModelPath:   c.Model.Path,
		LabelsPath:  c.Model.LabelsPath,
		LabelsTable: c.Model.LabelsTable,
		CacheSize:   c.Model.CacheSize,
	}
}

func (c *Config) LogOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Encoding:   c.Log.Encoding,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}
