package uri

import "testing"

func TestNewRsyncBaseRejectsMissingPrefix(t *testing.T) {
	if _, err := NewRsyncBase("http://example.com/repo/"); err == nil {
		t.Fatal("expected error for non-rsync scheme")
	}
}

func TestNewRsyncBaseRejectsMissingTrailingSlash(t *testing.T) {
	if _, err := NewRsyncBase("rsync://example.com/repo"); err == nil {
		t.Fatal("expected error for missing trailing slash")
	}
}

func TestRsyncBaseResolve(t *testing.T) {
	base, err := NewRsyncBase("rsync://example.com/repo/")
	if err != nil {
		t.Fatal(err)
	}
	if got := base.Resolve("a/b.cer"); got != "rsync://example.com/repo/a/b.cer" {
		t.Error("unexpected resolved URI:", got)
	}
}

func TestNewHTTPSBaseRejectsMissingPrefix(t *testing.T) {
	if _, err := NewHTTPSBase("rsync://example.com/repo/"); err == nil {
		t.Fatal("expected error for non-https scheme")
	}
}

func TestHTTPSBaseRelativeTo(t *testing.T) {
	base, err := NewHTTPSBase("https://example.com/rrdp/")
	if err != nil {
		t.Fatal(err)
	}
	if rel, ok := base.RelativeTo("https://example.com/rrdp/session/1/snapshot.xml"); !ok {
		t.Error("expected match")
	} else if rel != "session/1/snapshot.xml" {
		t.Error("unexpected relative path:", rel)
	}
	if _, ok := base.RelativeTo("https://other.example.com/rrdp/x"); ok {
		t.Error("expected no match for foreign base")
	}
}

func TestHTTPSBaseEqual(t *testing.T) {
	a, _ := NewHTTPSBase("https://example.com/rrdp/")
	b, _ := NewHTTPSBase("https://example.com/rrdp/")
	c, _ := NewHTTPSBase("https://example.com/other/")
	if !a.Equal(b) {
		t.Error("expected equal bases to compare equal")
	}
	if a.Equal(c) {
		t.Error("expected differing bases to compare unequal")
	}
}
