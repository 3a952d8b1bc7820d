package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rpki/rrdppub/pkg/logging"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rrdp-publish.yaml")
	writeYAML(t, path, `
source: /data/repo
rsyncBase: rsync://example.org/repo/
httpsBase: https://rrdp.example.org/repo/
baseDir: /data/publish
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxDeltas != defaultMaxDeltas {
		t.Errorf("expected default MaxDeltas %d, got %d", defaultMaxDeltas, c.MaxDeltas)
	}
	if !c.Clean {
		t.Error("expected default Clean to be true")
	}
	if c.LogLevel != defaultLogLevel {
		t.Errorf("expected default LogLevel %q, got %q", defaultLogLevel, c.LogLevel)
	}
	if c.Level() != logging.LevelInfo {
		t.Errorf("expected default Level() LevelInfo, got %v", c.Level())
	}
}

func TestLoadMissingFileStillAppliesDefaultsButFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.yaml")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing required fields")
	}
}

func TestLoadEnvironmentOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rrdp-publish.yaml")
	writeYAML(t, path, `
source: /data/repo
rsyncBase: rsync://example.org/repo/
httpsBase: https://rrdp.example.org/repo/
baseDir: /data/publish
maxDeltas: 10
`)

	t.Setenv("RRDP_MAX_DELTAS", "5")
	t.Setenv("RRDP_CLEAN", "false")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxDeltas != 5 {
		t.Errorf("expected OS environment to override YAML, got MaxDeltas=%d", c.MaxDeltas)
	}
	if c.Clean {
		t.Error("expected RRDP_CLEAN=false to disable cleanup")
	}
}

func TestLoadDotEnvFileOverlaysYAMLButNotOSEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rrdp-publish.yaml")
	writeYAML(t, path, `
source: /data/repo
rsyncBase: rsync://example.org/repo/
httpsBase: https://rrdp.example.org/repo/
baseDir: /data/publish
`)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RRDP_MAX_DELTAS=7\nRRDP_SOURCE=/from/dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("RRDP_SOURCE", "/from/os")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxDeltas != 7 {
		t.Errorf("expected .env to overlay YAML default, got %d", c.MaxDeltas)
	}
	if c.SourceDirectory != "/from/os" {
		t.Errorf("expected OS environment to override .env, got %q", c.SourceDirectory)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	c := &PublishConfiguration{MaxDeltas: 25, Clean: true}
	if err := c.validate(); err == nil {
		t.Fatal("expected validation error for empty required fields")
	}
}

func TestLoadEnvironmentOverlaysLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rrdp-publish.yaml")
	writeYAML(t, path, `
source: /data/repo
rsyncBase: rsync://example.org/repo/
httpsBase: https://rrdp.example.org/repo/
baseDir: /data/publish
`)

	t.Setenv("RRDP_LOG_LEVEL", "debug")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Level() != logging.LevelDebug {
		t.Errorf("expected RRDP_LOG_LEVEL=debug to set LevelDebug, got %v", c.Level())
	}
}

func TestValidateRejectsUnrecognizedLogLevel(t *testing.T) {
	c := &PublishConfiguration{
		SourceDirectory: "/data/repo",
		RsyncBase:       "rsync://example.org/repo/",
		HTTPSBase:       "https://rrdp.example.org/repo/",
		BaseDirectory:   "/data/publish",
		MaxDeltas:       25,
		LogLevel:        "verbose",
	}
	if err := c.validate(); err == nil {
		t.Fatal("expected validation error for unrecognized logLevel")
	}
}

func TestValidateRejectsZeroMaxDeltas(t *testing.T) {
	c := &PublishConfiguration{
		SourceDirectory: "/data/repo",
		RsyncBase:       "rsync://example.org/repo/",
		HTTPSBase:       "https://rrdp.example.org/repo/",
		BaseDirectory:   "/data/publish",
		MaxDeltas:       0,
	}
	if err := c.validate(); err == nil {
		t.Fatal("expected validation error for MaxDeltas < 1")
	}
}

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
