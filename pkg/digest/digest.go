// Package digest provides the two content digests used throughout the RRDP
// repository: a standard Base64 encoding of an object's bytes (used as
// publish/update element text) and a lower-case hex SHA-256 digest of an
// object's bytes (used to identify and verify objects).
package digest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Base64 is an immutable standard Base64 encoding (RFC 4648 §4, with
// padding, no line breaks) of some content.
type Base64 struct {
	encoded string
}

// EncodeBase64 computes the Base64 encoding of content.
func EncodeBase64(content []byte) Base64 {
	return Base64{encoded: base64.StdEncoding.EncodeToString(content)}
}

// Base64FromEncoded wraps an already-encoded Base64 string without
// re-encoding it, for use when decoding content read back from disk.
func Base64FromEncoded(encoded string) Base64 {
	return Base64{encoded: encoded}
}

// String returns the encoded text verbatim.
func (b Base64) String() string {
	return b.encoded
}

// Decode returns the original bytes represented by the encoding.
func (b Base64) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(b.encoded)
}

// Equal reports whether two Base64 values encode identically.
func (b Base64) Equal(other Base64) bool {
	return b.encoded == other.encoded
}

// Hash is an immutable lower-case hex-encoded SHA-256 digest (64
// characters) of some content. Equality is plain string equality.
type Hash struct {
	hex string
}

// HashContent computes the SHA-256 digest of content and returns it as a
// lower-case hex string.
func HashContent(content []byte) Hash {
	sum := sha256.Sum256(content)
	return Hash{hex: hex.EncodeToString(sum[:])}
}

// HashFromHex wraps an already hex-encoded digest string, for use when
// parsing a hash attribute read back from XML. It does not validate that
// the string is well-formed hex; callers that need that guarantee should
// use ParseHash.
func HashFromHex(value string) Hash {
	return Hash{hex: value}
}

// ParseHash validates that value is a 64-character lower-case hex string
// and wraps it as a Hash.
func ParseHash(value string) (Hash, error) {
	if len(value) != sha256.Size*2 {
		return Hash{}, errInvalidHashLength(len(value))
	}
	if _, err := hex.DecodeString(value); err != nil {
		return Hash{}, err
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return Hash{}, errInvalidHashCharacter(r)
		}
	}
	return Hash{hex: value}, nil
}

// String returns the hex digest verbatim.
func (h Hash) String() string {
	return h.hex
}

// Equal reports whether two hashes are the same string.
func (h Hash) Equal(other Hash) bool {
	return h.hex == other.hex
}
