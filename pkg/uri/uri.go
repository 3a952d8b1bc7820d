// Package uri provides the two base URI types used to name RRDP repository
// content: rsync URIs (where objects are virtually available for rsync
// fetch) and HTTPS URIs (where RRDP artifacts are published).
//
// Both types are immutable, byte-exact string wrappers. No URL
// normalization is ever performed, because these values appear verbatim
// inside hashed XML documents; normalizing them would silently change the
// hash that peer artifacts reference.
package uri

import (
	"strings"

	"github.com/pkg/errors"
)

// RsyncBase is an immutable base URI of the form "rsync://host/path/",
// used to name the virtual rsync-fetch location of published content.
type RsyncBase struct {
	value string
}

// NewRsyncBase validates and constructs an RsyncBase from a raw string. The
// string must begin with "rsync://" and end with "/".
func NewRsyncBase(raw string) (RsyncBase, error) {
	if !strings.HasPrefix(raw, "rsync://") {
		return RsyncBase{}, errors.New("invalid rsync base: must start with \"rsync://\"")
	}
	if !strings.HasSuffix(raw, "/") {
		return RsyncBase{}, errors.New("invalid rsync base: must end with \"/\"")
	}
	return RsyncBase{value: raw}, nil
}

// String returns the base URI verbatim.
func (b RsyncBase) String() string {
	return b.value
}

// Resolve returns the URI formed by concatenating the base with a relative
// path. The caller is responsible for ensuring rel does not begin with "/"
// and uses forward slashes.
func (b RsyncBase) Resolve(rel string) string {
	return b.value + rel
}

// Equal reports whether two rsync bases are byte-for-byte identical.
func (b RsyncBase) Equal(other RsyncBase) bool {
	return b.value == other.value
}

// HTTPSBase is an immutable base URI of the form "https://host/path/", used
// to name the location where RRDP artifacts are published over HTTPS.
type HTTPSBase struct {
	value string
}

// NewHTTPSBase validates and constructs an HTTPSBase from a raw string. The
// string must begin with "https://" and end with "/".
func NewHTTPSBase(raw string) (HTTPSBase, error) {
	if !strings.HasPrefix(raw, "https://") {
		return HTTPSBase{}, errors.New("invalid https base: must start with \"https://\"")
	}
	if !strings.HasSuffix(raw, "/") {
		return HTTPSBase{}, errors.New("invalid https base: must end with \"/\"")
	}
	return HTTPSBase{value: raw}, nil
}

// String returns the base URI verbatim.
func (b HTTPSBase) String() string {
	return b.value
}

// Resolve returns the URI formed by concatenating the base with a relative
// path. The caller is responsible for ensuring rel does not begin with "/"
// and uses forward slashes.
func (b HTTPSBase) Resolve(rel string) string {
	return b.value + rel
}

// RelativeTo returns the suffix of abs following the base, and true, if abs
// begins with the base. Otherwise it returns false. Matching is by literal
// prefix; no URL normalization is performed.
func (b HTTPSBase) RelativeTo(abs string) (string, bool) {
	if !strings.HasPrefix(abs, b.value) {
		return "", false
	}
	return abs[len(b.value):], true
}

// Equal reports whether two https bases are byte-for-byte identical.
func (b HTTPSBase) Equal(other HTTPSBase) bool {
	return b.value == other.value
}
