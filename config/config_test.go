package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
http:
  port: 9090
  timeout: 5s
model:
  path: models/rf.json
  labels_path: models/labels.json
database:
  path: data/predictions.db
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != 9090 || config.Http.Timeout != 5*time.Second {
		t.Fatalf("unexpected http section: %+v", config.Http)
	}
	if config.Model.Type != "random_forest" || config.Model.LabelsTable != "NObeyesdad" {
		t.Fatalf("expected model defaults, got %+v", config.Model)
	}
	if config.Log.Level != "info" || config.Log.Encoding != "console" {
		t.Fatalf("expected log defaults, got %+v", config.Log)
	}

	inf := config.Inference()
	if inf.ModelPath != "models/rf.json" || inf.LabelsPath != "models/labels.json" || inf.CacheSize != 1024 {
		t.Fatalf("unexpected inference config: %+v", inf)
	}
	if config.Database.Path != "data/predictions.db" {
		t.Fatalf("unexpected database path: %s", config.Database.Path)
	}
	if opts := config.LogOptions(); opts.Level != "info" || opts.MaxBackups != 3 {
		t.Fatalf("unexpected log options: %+v", opts)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"port":     "http:\n  port: 70000\n",
		"type":     "model:\n  type: svm\n",
		"encoding": "log:\n  encoding: xml\n",
		"syntax":   "http: [",
	}
	for name, content := range cases {
		path := writeConfig(t, t.TempDir(), content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log:\n  level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	if err := Watch(ctx, path, zap.NewNop(), func(c *Config) { changes <- c }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeConfig(t, dir, "log:\n  level: debug\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if c.Log.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
