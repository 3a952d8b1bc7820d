package store

import "fmt"

func errStoreFailed(path string, cause error) error {
	return fmt.Errorf("unable to access %s: %w", path, cause)
}
