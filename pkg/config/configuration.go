// Package config loads the configuration for one RRDP publish target: the
// source directory to crawl, the rsync and HTTPS base URIs objects are
// named under, the directory artifacts are written to, and the retention
// parameters. Loading follows the same layered shape Mutagen uses for
// project and environment configuration: an optional YAML file provides
// defaults, and environment variables (an optional ".env" file, then the
// OS environment) overlay on top.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/go-rpki/rrdppub/pkg/encoding"
	"github.com/go-rpki/rrdppub/pkg/logging"
)

// defaultMaxDeltas is the retention count-based trimming default.
const defaultMaxDeltas = 25

// defaultLogLevel is the logging verbosity used when neither the
// configuration file nor RRDP_LOG_LEVEL specify one.
const defaultLogLevel = "info"

// PublishConfiguration is the complete, validated configuration for one
// publish cycle.
type PublishConfiguration struct {
	// SourceDirectory is the tree crawl reads objects from.
	SourceDirectory string `yaml:"source"`
	// RsyncBase is the base rsync URI objects are named under.
	RsyncBase string `yaml:"rsyncBase"`
	// HTTPSBase is the base HTTPS URI artifacts are published under.
	HTTPSBase string `yaml:"httpsBase"`
	// BaseDirectory is the directory save writes artifacts into.
	BaseDirectory string `yaml:"baseDir"`
	// MaxDeltas is the maximum number of deltas retention keeps.
	MaxDeltas int `yaml:"maxDeltas"`
	// Clean indicates whether save should garbage-collect stale artifacts.
	Clean bool `yaml:"clean"`
	// LogLevel is the name of the logging.Level that governs what the
	// pkg/logging logger tree emits: one of "disabled", "error", "warn",
	// "info", "debug", or "trace".
	LogLevel string `yaml:"logLevel"`
}

// Level parses c.LogLevel, falling back to logging.LevelInfo if it is empty
// or unrecognized.
func (c *PublishConfiguration) Level() logging.Level {
	if level, ok := logging.NameToLevel(c.LogLevel); ok {
		return level
	}
	return logging.LevelInfo
}

// Load reads path as a YAML PublishConfiguration (if it exists), then
// overlays RRDP_*-prefixed variables from an optional ".env" file
// (in the same directory as path) and finally the OS
// environment, matching the file < .env < OS environment precedence
// Mutagen's compose environment loader uses. It validates that every
// required field is non-empty and that MaxDeltas is at least 1.
func Load(path string) (*PublishConfiguration, error) {
	result := &PublishConfiguration{
		MaxDeltas: defaultMaxDeltas,
		Clean:     true,
		LogLevel:  defaultLogLevel,
	}

	if err := encoding.LoadAndUnmarshalYAML(path, result); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	environment, err := loadEnvironment(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	applyOverlay(result, environment)

	if err := result.validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// loadEnvironment computes the effective environment: the contents of
// envFilePath (if present), with the OS environment overlaid on top.
func loadEnvironment(envFilePath string) (map[string]string, error) {
	environment := make(map[string]string)

	fileEnvironment, err := godotenv.Read(envFilePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, errLoadEnvironmentFailed(envFilePath, err)
	}
	for key, value := range fileEnvironment {
		environment[key] = value
	}

	for _, specification := range os.Environ() {
		keyValue := strings.SplitN(specification, "=", 2)
		if len(keyValue) == 2 {
			environment[keyValue[0]] = keyValue[1]
		}
	}

	return environment, nil
}

// applyOverlay overwrites c's fields with any RRDP_* values present in
// environment.
func applyOverlay(c *PublishConfiguration, environment map[string]string) {
	if v, ok := environment["RRDP_SOURCE"]; ok {
		c.SourceDirectory = v
	}
	if v, ok := environment["RRDP_RSYNC_BASE"]; ok {
		c.RsyncBase = v
	}
	if v, ok := environment["RRDP_HTTPS_BASE"]; ok {
		c.HTTPSBase = v
	}
	if v, ok := environment["RRDP_BASE_DIR"]; ok {
		c.BaseDirectory = v
	}
	if v, ok := environment["RRDP_MAX_DELTAS"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxDeltas = n
		}
	}
	if v, ok := environment["RRDP_CLEAN"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Clean = b
		}
	}
	if v, ok := environment["RRDP_LOG_LEVEL"]; ok {
		c.LogLevel = v
	}
}

// validate enforces the fields required for a publish cycle to make sense.
func (c *PublishConfiguration) validate() error {
	if c.SourceDirectory == "" {
		return errMissingField("source")
	}
	if c.RsyncBase == "" {
		return errMissingField("rsyncBase")
	}
	if c.HTTPSBase == "" {
		return errMissingField("httpsBase")
	}
	if c.BaseDirectory == "" {
		return errMissingField("baseDir")
	}
	if c.MaxDeltas < 1 {
		return errInvalidMaxDeltas(c.MaxDeltas)
	}
	if _, ok := logging.NameToLevel(c.LogLevel); !ok {
		return errInvalidLogLevel(c.LogLevel)
	}
	return nil
}
