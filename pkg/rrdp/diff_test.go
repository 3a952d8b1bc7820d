package rrdp

import "testing"

func TestSnapshotToRejectsSessionMismatch(t *testing.T) {
	a, err := NewSnapshot(nil)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	b, err := NewSnapshot(nil)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	b.Serial = a.Serial + 1

	if _, err := a.To(b); err == nil {
		t.Fatal("expected error for mismatched sessions")
	}
}

func TestSnapshotToRejectsNonConsecutiveSerial(t *testing.T) {
	a, err := NewSnapshot(nil)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	b := a
	b.Serial = a.Serial + 2

	if _, err := a.To(b); err == nil {
		t.Fatal("expected error for non-consecutive serial")
	}
}

func TestSnapshotToComputesPublishUpdateWithdraw(t *testing.T) {
	a, err := NewSnapshot([]CurrentFile{
		NewCurrentFile("rsync://example.org/repo/unchanged.cer", []byte("same")),
		NewCurrentFile("rsync://example.org/repo/changed.cer", []byte("old")),
		NewCurrentFile("rsync://example.org/repo/removed.cer", []byte("gone")),
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}

	b := a
	b.Serial = a.Serial + 1
	b.CurrentObjects = []CurrentFile{
		NewCurrentFile("rsync://example.org/repo/unchanged.cer", []byte("same")),
		NewCurrentFile("rsync://example.org/repo/changed.cer", []byte("new")),
		NewCurrentFile("rsync://example.org/repo/added.cer", []byte("fresh")),
	}

	delta, err := a.To(b)
	if err != nil {
		t.Fatalf("To: %v", err)
	}
	if len(delta.Elements.Publishes) != 1 || delta.Elements.Publishes[0].URI != "rsync://example.org/repo/added.cer" {
		t.Fatalf("unexpected publishes: %+v", delta.Elements.Publishes)
	}
	if len(delta.Elements.Updates) != 1 || delta.Elements.Updates[0].URI != "rsync://example.org/repo/changed.cer" {
		t.Fatalf("unexpected updates: %+v", delta.Elements.Updates)
	}
	if len(delta.Elements.Withdraws) != 1 || delta.Elements.Withdraws[0].URI != "rsync://example.org/repo/removed.cer" {
		t.Fatalf("unexpected withdraws: %+v", delta.Elements.Withdraws)
	}
}

func TestSnapshotToIdenticalContentIsEmpty(t *testing.T) {
	a, err := NewSnapshot([]CurrentFile{
		NewCurrentFile("rsync://example.org/repo/a.cer", []byte("a")),
	})
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	b := a
	b.Serial = a.Serial + 1

	delta, err := a.To(b)
	if err != nil {
		t.Fatalf("To: %v", err)
	}
	if !delta.Empty() {
		t.Fatalf("expected empty delta, got %+v", delta.Elements)
	}
}
