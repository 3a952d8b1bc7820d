// Package rrdp implements the RRDP content-addressed data model: the
// current-file records that make up a snapshot, the snapshot and delta
// artifact types, the notification document that ties them together, and
// the diff operation that computes a delta between two snapshots.
//
// This package mirrors the role that pkg/synchronization/core plays in our
// teacher repository: it is the in-memory representation that the crawler
// populates, that gets diffed between generations, and that gets
// serialized to and parsed back from disk.
package rrdp

import "github.com/go-rpki/rrdppub/pkg/digest"

// CurrentFile is one object currently published under a repository: the
// rsync URI at which it is virtually available, and the Base64 encoding and
// SHA-256 hash of the same underlying content bytes.
type CurrentFile struct {
	// URI is the fully resolved rsync URI (rsync_base.Resolve(relativePath)).
	URI string
	// Base64 is the standard Base64 encoding of the file's content.
	Base64 digest.Base64
	// Hash is the SHA-256 digest of the file's content.
	Hash digest.Hash
}

// NewCurrentFile constructs a CurrentFile from the raw content bytes found
// at uri, deriving both the Base64 encoding and the hash from content.
func NewCurrentFile(uri string, content []byte) CurrentFile {
	return CurrentFile{
		URI:    uri,
		Base64: digest.EncodeBase64(content),
		Hash:   digest.HashContent(content),
	}
}

// sameContent reports whether two current files represent identical
// content, using hash equality. SHA-256 collisions are not a concern at
// the scale this tool operates at, so hash equality is sufficient and much
// cheaper than comparing full buffers.
func sameContent(a, b CurrentFile) bool {
	return a.Hash.Equal(b.Hash)
}
