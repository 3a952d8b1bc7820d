package rrdp

import (
	"github.com/google/uuid"

	"github.com/go-rpki/rrdppub/pkg/digest"
)

// FileRef identifies a persisted artifact by the HTTPS URI clients fetch it
// from, the SHA-256 hash of the exact bytes persisted there, and their
// size. SnapshotRef and DeltaRef are both built from FileRef.
type FileRef struct {
	URI  string
	Hash digest.Hash
	Size int
}

// SnapshotRef identifies the single current snapshot artifact.
type SnapshotRef = FileRef

// DeltaRef identifies one delta artifact alongside the serial it advances
// to.
type DeltaRef struct {
	Serial uint64
	FileRef
}

// Notification is the RRDP entry-point document: the current snapshot plus
// the available deltas, newest first. Deltas is ordered newest-first (the
// highest serial at index 0); if non-empty, the invariant is that serials
// decrease by exactly one starting from Serial.
type Notification struct {
	Session  uuid.UUID
	Serial   uint64
	Snapshot SnapshotRef
	Deltas   []DeltaRef
}
