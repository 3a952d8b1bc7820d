// Package state implements the repository state machine: the in-memory
// session/serial/snapshot/delta bundle a publisher carries between
// publication cycles, together with the operations that load it from disk,
// advance it to a new snapshot, and persist it back with retention applied.
// Its construction/reconstitute/apply/save shape mirrors the role Mutagen's
// session controller plays for synchronization sessions, adapted to RRDP's
// much simpler single-writer, single-endpoint model.
package state

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/go-rpki/rrdppub/pkg/digest"
	"github.com/go-rpki/rrdppub/pkg/logging"
	"github.com/go-rpki/rrdppub/pkg/rrdp"
	"github.com/go-rpki/rrdppub/pkg/store"
	"github.com/go-rpki/rrdppub/pkg/uri"
)

// logger is this package's sublogger. A nil *logging.Logger is legal and
// silently discards, so every call site below can log unconditionally.
var logger = logging.RootLogger.Sublogger("state")

// RepoState is the durable state of one RRDP repository: its session and
// serial, the current snapshot, an optional delta pending persistence, and
// the deltas already published, newest first.
type RepoState struct {
	Session uuid.UUID
	Serial  uint64

	Snapshot rrdp.Snapshot
	NewDelta *rrdp.Delta
	Deltas   []rrdp.DeltaRef

	baseURI uri.HTTPSBase
	baseDir string
}

// New constructs the state for a brand new session. snapshot must have
// serial 1; callers that build it via rrdp.NewSnapshot already satisfy
// this.
func New(snapshot rrdp.Snapshot, baseURI uri.HTTPSBase, baseDir string) (*RepoState, error) {
	if snapshot.Serial != 1 {
		return nil, fmt.Errorf("invalid initial snapshot: serial must be 1, got %d", snapshot.Serial)
	}
	return &RepoState{
		Session:  snapshot.Session,
		Serial:   1,
		Snapshot: snapshot,
		baseURI:  baseURI,
		baseDir:  baseDir,
	}, nil
}

// Reconstitute loads and validates the state published under baseDir, by
// reading notification.xml and every artifact it references and verifying
// that each artifact's bytes hash to the value the notification claims for
// it. Any failure at any step collapses to ErrInvalidRepoState: the caller
// has no finer-grained recovery available than falling back to a fresh
// session.
func Reconstitute(baseURI uri.HTTPSBase, baseDir string) (*RepoState, error) {
	notificationPath := filepath.Join(baseDir, "notification.xml")
	notificationBytes, err := store.Read(notificationPath)
	if err != nil {
		return nil, errInvalidRepoState("unable to read notification.xml", err)
	}
	notification, err := rrdp.ParseNotification(notificationBytes)
	if err != nil {
		return nil, errInvalidRepoState("malformed notification.xml", err)
	}

	snapshot, err := loadAndVerifySnapshot(baseURI, baseDir, notification)
	if err != nil {
		return nil, err
	}

	deltas := make([]rrdp.DeltaRef, 0, len(notification.Deltas))
	for _, ref := range notification.Deltas {
		size, err := verifyArtifact(baseURI, baseDir, ref.FileRef)
		if err != nil {
			return nil, err
		}
		ref.Size = size
		deltas = append(deltas, ref)
	}

	logger.Printf("reconstituted session %s at serial %d (%d deltas)", notification.Session, notification.Serial, len(deltas))
	return &RepoState{
		Session:  notification.Session,
		Serial:   notification.Serial,
		Snapshot: snapshot,
		Deltas:   deltas,
		baseURI:  baseURI,
		baseDir:  baseDir,
	}, nil
}

// loadAndVerifySnapshot resolves, reads, hash-verifies, and parses the
// snapshot artifact a notification refers to. Unlike delta refs, the
// reconstituted snapshot's FileRef is not carried forward anywhere: Save
// always recomputes a fresh snapshotRef (hash and size alike) from the
// in-memory Snapshot it serializes, so there is no stale-size field for
// this one to backfill.
func loadAndVerifySnapshot(baseURI uri.HTTPSBase, baseDir string, notification rrdp.Notification) (rrdp.Snapshot, error) {
	if _, err := verifyArtifact(baseURI, baseDir, notification.Snapshot); err != nil {
		return rrdp.Snapshot{}, err
	}
	path, err := resolveArtifactPath(baseURI, baseDir, notification.Snapshot.URI)
	if err != nil {
		return rrdp.Snapshot{}, err
	}
	data, err := store.Read(path)
	if err != nil {
		return rrdp.Snapshot{}, errInvalidRepoState("unable to read snapshot", err)
	}
	snapshot, err := rrdp.ParseSnapshot(data)
	if err != nil {
		return rrdp.Snapshot{}, errInvalidRepoState("malformed snapshot.xml", err)
	}
	if snapshot.Session != notification.Session || snapshot.Serial != notification.Serial {
		return rrdp.Snapshot{}, errInvalidRepoState("snapshot session/serial does not match notification", nil)
	}
	return snapshot, nil
}

// verifyArtifact resolves ref's URI to a path under baseDir, confirms that
// the file there exists and hashes to ref.Hash, and returns the size of the
// bytes it read. The notification wire format carries only a hash, never a
// size, for both the snapshot and delta refs (spec.md §4.E), so this is the
// only place a reconstituted FileRef/DeltaRef can recover its real size;
// callers must backfill it onto the ref they keep, or it silently reads as
// zero for the lifetime of the process (defeating size-based delta
// trimming on every cycle after the first).
func verifyArtifact(baseURI uri.HTTPSBase, baseDir string, ref rrdp.FileRef) (int, error) {
	path, err := resolveArtifactPath(baseURI, baseDir, ref.URI)
	if err != nil {
		return 0, err
	}
	data, err := store.Read(path)
	if err != nil {
		return 0, errInvalidRepoState(fmt.Sprintf("unable to read %s", ref.URI), err)
	}
	if !digest.HashContent(data).Equal(ref.Hash) {
		return 0, errInvalidRepoState(fmt.Sprintf("hash mismatch for %s", ref.URI), nil)
	}
	return len(data), nil
}

// resolveArtifactPath converts a published HTTPS URI into the local path
// it was written to, failing if the URI does not lie under baseURI.
func resolveArtifactPath(baseURI uri.HTTPSBase, baseDir, artifactURI string) (string, error) {
	rel, ok := baseURI.RelativeTo(artifactURI)
	if !ok {
		return "", errInvalidRepoState(fmt.Sprintf("uri %s is not under the configured base", artifactURI), nil)
	}
	return filepath.Join(baseDir, filepath.FromSlash(rel)), nil
}

// Apply advances the state to newSnapshot. If the resulting delta carries
// no changes, Apply is a no-op: the serial is not bumped and no delta is
// queued, so that a no-op crawl can never produce a published delta.
func (s *RepoState) Apply(newSnapshot rrdp.Snapshot) error {
	if s.NewDelta != nil {
		return errInvalidDelta("a delta is already pending persistence")
	}
	if newSnapshot.Session != s.Session {
		return errInvalidDelta("session mismatch")
	}
	if newSnapshot.Serial != s.Serial+1 {
		return errInvalidDelta(fmt.Sprintf("serial %d does not directly follow %d", newSnapshot.Serial, s.Serial))
	}

	delta, err := s.Snapshot.To(newSnapshot)
	if err != nil {
		return errInvalidDelta(err.Error())
	}
	if delta.Empty() {
		logger.Printf("apply at serial %d is a no-op, source unchanged", s.Serial)
		return nil
	}

	s.Snapshot = newSnapshot
	s.NewDelta = &delta
	s.Serial++
	logger.Printf("apply advanced serial %d to %d (%d publish, %d update, %d withdraw)",
		s.Serial-1, s.Serial, len(delta.Elements.Publishes), len(delta.Elements.Updates), len(delta.Elements.Withdraws))
	return nil
}

// Save writes the current snapshot (and pending delta, if any) to disk,
// applies retention, and rewrites notification.xml to reference the
// result. Artifacts are written before the notification that references
// them, and the notification is written before retention runs, so that a
// crash at any point leaves either the old notification (still fully
// valid) or the new one (whose referenced artifacts are already on disk)
// authoritative.
func (s *RepoState) Save(maxDeltas int, clean bool) error {
	sessionDir := filepath.Join(s.baseDir, s.Session.String(), strconv.FormatUint(s.Serial, 10))

	snapshotBytes := s.Snapshot.WriteXML()
	snapshotPath := filepath.Join(sessionDir, "snapshot.xml")
	if err := store.Save(snapshotPath, snapshotBytes); err != nil {
		return err
	}
	snapshotRef := rrdp.FileRef{
		URI:  s.baseURI.Resolve(fmt.Sprintf("%s/%d/snapshot.xml", s.Session, s.Serial)),
		Hash: digest.HashContent(snapshotBytes),
		Size: len(snapshotBytes),
	}

	if s.NewDelta != nil {
		deltaBytes := s.NewDelta.WriteXML()
		deltaPath := filepath.Join(sessionDir, "delta.xml")
		if err := store.Save(deltaPath, deltaBytes); err != nil {
			return err
		}
		deltaRef := rrdp.DeltaRef{
			Serial: s.Serial,
			FileRef: rrdp.FileRef{
				URI:  s.baseURI.Resolve(fmt.Sprintf("%s/%d/delta.xml", s.Session, s.Serial)),
				Hash: digest.HashContent(deltaBytes),
				Size: len(deltaBytes),
			},
		}
		s.Deltas = append([]rrdp.DeltaRef{deltaRef}, s.Deltas...)
		s.NewDelta = nil
	}

	s.Deltas = trimBySize(s.Deltas, snapshotRef.Size)
	if maxDeltas < len(s.Deltas) {
		s.Deltas = s.Deltas[:maxDeltas]
	}

	notification := rrdp.Notification{
		Session:  s.Session,
		Serial:   s.Serial,
		Snapshot: snapshotRef,
		Deltas:   s.Deltas,
	}
	notificationPath := filepath.Join(s.baseDir, "notification.xml")
	if err := store.Save(notificationPath, notification.WriteXML()); err != nil {
		return err
	}

	if clean {
		s.cleanup()
	}
	logger.Printf("saved serial %d (%d deltas retained, clean=%t)", s.Serial, len(s.Deltas), clean)
	return nil
}

// trimBySize retains, from the front (newest first), as many deltas as fit
// under a cumulative size strictly less than snapshotSize: once the running
// total reaches or exceeds it, that delta and every older one are dropped.
func trimBySize(deltas []rrdp.DeltaRef, snapshotSize int) []rrdp.DeltaRef {
	var running int
	kept := make([]rrdp.DeltaRef, 0, len(deltas))
	for _, d := range deltas {
		running += d.Size
		if running >= snapshotSize {
			break
		}
		kept = append(kept, d)
	}
	return kept
}

// cleanup removes everything under baseDir except the current session
// directory and notification.xml, then removes any per-serial directory in
// the current session older than the oldest surviving delta.
func (s *RepoState) cleanup() {
	sessionName := s.Session.String()
	store.Retain(s.baseDir, func(name string) bool {
		return name == sessionName || name == "notification.xml"
	})

	if len(s.Deltas) == 0 {
		return
	}
	minSerial := s.Deltas[len(s.Deltas)-1].Serial
	store.Retain(filepath.Join(s.baseDir, sessionName), func(name string) bool {
		n, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			return true
		}
		return n >= minSerial
	})
}
