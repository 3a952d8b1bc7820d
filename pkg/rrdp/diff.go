package rrdp

import (
	"fmt"
	"sort"
)

// differ accumulates the elements of a delta while comparing two
// snapshots. It plays the same role here that Mutagen's differ plays for
// entry trees, but RRDP's model is a flat, URI-keyed set rather than a
// directory tree, so there is no recursion: every URI is compared once.
type differ struct {
	elements DeltaElements
}

func (d *differ) diff(old, new map[string]CurrentFile) {
	for uri, oldFile := range old {
		newFile, stillPresent := new[uri]
		if !stillPresent {
			d.elements.Withdraws = append(d.elements.Withdraws, WithdrawElement{
				URI:     uri,
				OldHash: oldFile.Hash,
			})
			continue
		}
		if !sameContent(oldFile, newFile) {
			d.elements.Updates = append(d.elements.Updates, UpdateElement{
				URI:       uri,
				OldHash:   oldFile.Hash,
				NewBase64: newFile.Base64,
			})
		}
	}
	for uri, newFile := range new {
		if _, existedBefore := old[uri]; !existedBefore {
			d.elements.Publishes = append(d.elements.Publishes, PublishElement{
				URI:    uri,
				Base64: newFile.Base64,
			})
		}
	}
}

// To computes the delta that, if applied to s, would transform it into
// other. It requires that other directly extend s: same session, serial
// exactly one higher.
func (s Snapshot) To(other Snapshot) (Delta, error) {
	if other.Session != s.Session {
		return Delta{}, fmt.Errorf("invalid delta: session mismatch")
	}
	if other.Serial != s.Serial+1 {
		return Delta{}, fmt.Errorf("invalid delta: serial %d does not directly follow %d", other.Serial, s.Serial)
	}

	d := &differ{}
	d.diff(s.index(), other.index())
	d.elements.sort()

	return Delta{
		Session:  other.Session,
		Serial:   other.Serial,
		Elements: d.elements,
	}, nil
}

// sort orders each element list by URI so that diffing the same pair of
// snapshots twice (map iteration order is randomized per run) always
// yields byte-identical delta XML.
func (e *DeltaElements) sort() {
	sort.Slice(e.Publishes, func(i, j int) bool { return e.Publishes[i].URI < e.Publishes[j].URI })
	sort.Slice(e.Updates, func(i, j int) bool { return e.Updates[i].URI < e.Updates[j].URI })
	sort.Slice(e.Withdraws, func(i, j int) bool { return e.Withdraws[i].URI < e.Withdraws[j].URI })
}
