package rrdp

import (
	"github.com/google/uuid"

	"github.com/go-rpki/rrdppub/pkg/digest"
)

// PublishElement records a newly-added object: it had no prior content at
// this URI.
type PublishElement struct {
	URI    string
	Base64 digest.Base64
}

// UpdateElement records a changed object: content at this URI existed
// before (with OldHash) and has been replaced (with NewBase64).
type UpdateElement struct {
	URI       string
	OldHash   digest.Hash
	NewBase64 digest.Base64
}

// WithdrawElement records a removed object: content at this URI existed
// before (with OldHash) and is no longer published.
type WithdrawElement struct {
	URI     string
	OldHash digest.Hash
}

// DeltaElements is the ordered set of changes carried by one delta. It is
// empty precisely when all three lists are empty.
type DeltaElements struct {
	Publishes []PublishElement
	Updates   []UpdateElement
	Withdraws []WithdrawElement
}

// Empty reports whether the delta carries no changes at all.
func (e DeltaElements) Empty() bool {
	return len(e.Publishes) == 0 && len(e.Updates) == 0 && len(e.Withdraws) == 0
}

// Delta is the difference between serial-1 and serial within one session.
type Delta struct {
	Session  uuid.UUID
	Serial   uint64
	Elements DeltaElements
}

// Empty reports whether the delta is the empty delta (see DeltaElements.Empty).
func (d Delta) Empty() bool {
	return d.Elements.Empty()
}
