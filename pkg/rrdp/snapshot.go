package rrdp

import "github.com/google/uuid"

// Snapshot is the complete set of currently-published objects at one
// (session, serial) point. Within one snapshot, URIs are unique, which is
// guaranteed by the crawler sourcing them from a filesystem tree.
type Snapshot struct {
	Session        uuid.UUID
	Serial         uint64
	CurrentObjects []CurrentFile
}

// NewSnapshot constructs the first snapshot of a fresh session: serial 1,
// with a newly generated session identifier.
func NewSnapshot(currentObjects []CurrentFile) (Snapshot, error) {
	session, err := uuid.NewRandom()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Session:        session,
		Serial:         1,
		CurrentObjects: currentObjects,
	}, nil
}

// index builds a URI-keyed view of the snapshot's current objects, used by
// diffing and by lookups during reconstitution.
func (s Snapshot) index() map[string]CurrentFile {
	result := make(map[string]CurrentFile, len(s.CurrentObjects))
	for _, f := range s.CurrentObjects {
		result[f.URI] = f
	}
	return result
}
