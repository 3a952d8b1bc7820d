package digest

import "fmt"

func errInvalidHashLength(n int) error {
	return fmt.Errorf("invalid hash: expected 64 hex characters, got %d", n)
}

func errInvalidHashCharacter(r rune) error {
	return fmt.Errorf("invalid hash: unexpected character %q", r)
}
