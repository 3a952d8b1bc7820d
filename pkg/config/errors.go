package config

import "fmt"

func errMissingField(name string) error {
	return fmt.Errorf("missing required configuration field: %s", name)
}

func errInvalidMaxDeltas(value int) error {
	return fmt.Errorf("invalid maxDeltas: must be at least 1, got %d", value)
}

func errInvalidLogLevel(value string) error {
	return fmt.Errorf("invalid logLevel: %q is not a recognized logging.Level name", value)
}

func errLoadEnvironmentFailed(path string, cause error) error {
	return fmt.Errorf("unable to load environment file (%s): %w", path, cause)
}
