package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-rpki/rrdppub/pkg/rrdp"
	"github.com/go-rpki/rrdppub/pkg/uri"
)

func mustHTTPSBase(t *testing.T) uri.HTTPSBase {
	t.Helper()
	base, err := uri.NewHTTPSBase("https://rrdp.example.org/repo/")
	if err != nil {
		t.Fatalf("NewHTTPSBase: %v", err)
	}
	return base
}

func TestNewRejectsNonInitialSerial(t *testing.T) {
	snapshot, err := rrdp.NewSnapshot(nil)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	snapshot.Serial = 2
	if _, err := New(snapshot, mustHTTPSBase(t), t.TempDir()); err == nil {
		t.Fatal("expected error for non-initial serial")
	}
}

func TestSaveThenReconstituteRoundTrips(t *testing.T) {
	baseDir := t.TempDir()
	baseURI := mustHTTPSBase(t)

	snapshot, err := rrdp.NewSnapshot([]rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("alpha")),
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}

	s, err := New(snapshot, baseURI, baseDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Save(25, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reconstituted, err := Reconstitute(baseURI, baseDir)
	if err != nil {
		t.Fatalf("Reconstitute: %v", err)
	}
	if reconstituted.Session != s.Session || reconstituted.Serial != s.Serial {
		t.Fatalf("session/serial mismatch: %+v vs %+v", reconstituted, s)
	}
	if len(reconstituted.Snapshot.CurrentObjects) != 1 {
		t.Fatalf("expected 1 current object, got %d", len(reconstituted.Snapshot.CurrentObjects))
	}
}

func TestReconstituteFailsOnMissingNotification(t *testing.T) {
	if _, err := Reconstitute(mustHTTPSBase(t), t.TempDir()); err == nil {
		t.Fatal("expected error for missing notification.xml")
	}
}

func TestReconstituteFailsOnHashMismatch(t *testing.T) {
	baseDir := t.TempDir()
	baseURI := mustHTTPSBase(t)

	snapshot, err := rrdp.NewSnapshot([]rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("alpha")),
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	s, err := New(snapshot, baseURI, baseDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Save(25, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	snapshotPath := filepath.Join(baseDir, s.Session.String(), "1", "snapshot.xml")
	if err := os.WriteFile(snapshotPath, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("corrupt snapshot: %v", err)
	}

	if _, err := Reconstitute(baseURI, baseDir); err == nil {
		t.Fatal("expected error for tampered snapshot content")
	}
}

func TestApplyIsNoOpWhenUnchanged(t *testing.T) {
	baseDir := t.TempDir()
	baseURI := mustHTTPSBase(t)

	files := []rrdp.CurrentFile{rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("alpha"))}
	snapshot, err := rrdp.NewSnapshot(files)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	s, err := New(snapshot, baseURI, baseDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	unchanged := snapshot
	unchanged.Serial = snapshot.Serial + 1
	unchanged.CurrentObjects = files

	if err := s.Apply(unchanged); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Serial != 1 || s.NewDelta != nil {
		t.Fatalf("expected no-op apply to leave state unchanged, got serial=%d newDelta=%v", s.Serial, s.NewDelta)
	}
}

func TestApplyRejectsSecondPendingDelta(t *testing.T) {
	baseDir := t.TempDir()
	baseURI := mustHTTPSBase(t)

	snapshot, err := rrdp.NewSnapshot([]rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("alpha")),
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	s, err := New(snapshot, baseURI, baseDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	next := snapshot
	next.Serial = snapshot.Serial + 1
	next.CurrentObjects = []rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("changed")),
	}
	if err := s.Apply(next); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	another := next
	another.Serial = next.Serial + 1
	if err := s.Apply(another); err == nil {
		t.Fatal("expected error applying a second pending delta")
	}
}

func TestSaveTrimsDeltasByCountAndSize(t *testing.T) {
	baseDir := t.TempDir()
	baseURI := mustHTTPSBase(t)

	snapshot, err := rrdp.NewSnapshot([]rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("alpha")),
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	s, err := New(snapshot, baseURI, baseDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Save(1, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	content := "alpha"
	for i := 0; i < 3; i++ {
		content += content // grow so withdraw/update churn keeps delta sizes non-trivial
		next := s.Snapshot
		next.Serial = s.Serial + 1
		next.CurrentObjects = []rrdp.CurrentFile{
			rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte(content)),
		}
		if err := s.Apply(next); err != nil {
			t.Fatalf("Apply %d: %v", i, err)
		}
		if err := s.Save(1, true); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	if len(s.Deltas) > 1 {
		t.Fatalf("expected count-based trimming to cap deltas at 1, got %d", len(s.Deltas))
	}
}

// TestReconstituteBackfillsDeltaSizeForSizeBasedTrimming guards against a
// delta's Size silently reading as zero after a reconstitution: the
// notification wire format never carries a size attribute (spec.md §4.E), so
// Reconstitute has to recover it from the bytes it reads back, or every
// delta that survives a reconstitution stops contributing to trimBySize's
// cumulative total for the rest of the process's life.
func TestReconstituteBackfillsDeltaSizeForSizeBasedTrimming(t *testing.T) {
	baseDir := t.TempDir()
	baseURI := mustHTTPSBase(t)

	snapshot, err := rrdp.NewSnapshot([]rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("a")),
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	s, err := New(snapshot, baseURI, baseDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Save(25, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	grown := s.Snapshot
	grown.Serial = s.Serial + 1
	grown.CurrentObjects = []rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte(strings.Repeat("b", 256))),
	}
	if err := s.Apply(grown); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.Save(25, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deltaPath := filepath.Join(baseDir, s.Session.String(), "2", "delta.xml")
	deltaBytes, err := os.ReadFile(deltaPath)
	if err != nil {
		t.Fatalf("reading persisted delta: %v", err)
	}
	wantSize := len(deltaBytes)
	if wantSize == 0 {
		t.Fatal("test setup produced an empty delta")
	}

	reconstituted, err := Reconstitute(baseURI, baseDir)
	if err != nil {
		t.Fatalf("Reconstitute: %v", err)
	}
	if len(reconstituted.Deltas) != 1 {
		t.Fatalf("expected 1 reconstituted delta, got %d", len(reconstituted.Deltas))
	}
	if reconstituted.Deltas[0].Size != wantSize {
		t.Fatalf("reconstituted delta size = %d, want %d (size-based retention silently breaks if this reads 0)",
			reconstituted.Deltas[0].Size, wantSize)
	}

	// trimBySize is what Save actually runs retention through; confirm the
	// backfilled size is what it sees, by handing it a snapshot size no
	// larger than the delta itself and checking that the delta is dropped
	// rather than kept forever, as it would be if Size had come back zero.
	if trimmed := trimBySize(reconstituted.Deltas, wantSize); len(trimmed) != 0 {
		t.Fatalf("expected trimBySize to drop a delta at least as large as the snapshot, got %+v", trimmed)
	}

	// Continue the cycle past the reconstitution boundary: apply a further
	// change and save, exercising the same trimBySize call Save makes on a
	// repo state that was reconstituted rather than built fresh in-process.
	shrunk := reconstituted.Snapshot
	shrunk.Serial = reconstituted.Serial + 1
	shrunk.CurrentObjects = []rrdp.CurrentFile{
		rrdp.NewCurrentFile("rsync://example.org/repo/a.cer", []byte("c")),
	}
	if err := reconstituted.Apply(shrunk); err != nil {
		t.Fatalf("Apply after reconstitute: %v", err)
	}
	if err := reconstituted.Save(25, true); err != nil {
		t.Fatalf("Save after reconstitute: %v", err)
	}
	for _, d := range reconstituted.Deltas {
		if d.Serial == 2 {
			t.Fatalf("expected the oversized reconstituted delta (serial 2) to be trimmed by size, but it survived: %+v", reconstituted.Deltas)
		}
	}
}
