package rrdp

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/go-rpki/rrdppub/pkg/digest"
	"github.com/go-rpki/rrdppub/pkg/xmlcodec"
)

const (
	// namespace is the XML namespace shared by every RRDP document.
	namespace = "http://www.ripe.net/rpki/rrdp"
	// schemaVersion is the only version attribute value this package
	// produces or accepts.
	schemaVersion = "1"
)

// WriteXML serializes the snapshot as a <snapshot> document: one <publish>
// element per current object, in the order the objects are stored.
func (s Snapshot) WriteXML() []byte {
	return xmlcodec.Encode(func(w *xmlcodec.Writer) {
		w.PutElement("snapshot", []xmlcodec.Attr{
			xmlcodec.A("xmlns", namespace),
			xmlcodec.A("version", schemaVersion),
			xmlcodec.A("session_id", s.Session.String()),
			xmlcodec.A("serial", strconv.FormatUint(s.Serial, 10)),
		}, func(w *xmlcodec.Writer) {
			for _, f := range s.CurrentObjects {
				w.PutElement("publish", []xmlcodec.Attr{
					xmlcodec.A("uri", f.URI),
				}, func(w *xmlcodec.Writer) {
					w.PutText(f.Base64.String())
				})
			}
		})
	})
}

// ParseSnapshot parses a <snapshot> document previously produced by
// WriteXML.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var result Snapshot
	err := xmlcodec.Decode(data, func(r *xmlcodec.Reader) error {
		return r.TakeNamedElement("snapshot", func(attrs *xmlcodec.Attributes, r *xmlcodec.Reader) error {
			session, serial, err := takeSessionAndSerial(attrs)
			if err != nil {
				return err
			}
			if err := attrs.Exhausted(); err != nil {
				return err
			}

			items, err := r.TakeOptElements(func(tag string, attrs *xmlcodec.Attributes, r *xmlcodec.Reader) (interface{}, error) {
				if tag != "publish" {
					return nil, fmt.Errorf("invalid xml: unexpected tag: %s", tag)
				}
				uri, err := attrs.TakeRequired("uri")
				if err != nil {
					return nil, err
				}
				if err := attrs.Exhausted(); err != nil {
					return nil, err
				}
				text, err := r.TakeChars()
				if err != nil {
					return nil, err
				}
				encoded := digest.Base64FromEncoded(text)
				content, err := encoded.Decode()
				if err != nil {
					return nil, fmt.Errorf("invalid xml: malformed base64: %w", err)
				}
				return CurrentFile{
					URI:    uri,
					Base64: encoded,
					Hash:   digest.HashContent(content),
				}, nil
			})
			if err != nil {
				return err
			}

			currentObjects := make([]CurrentFile, 0, len(items))
			for _, item := range items {
				currentObjects = append(currentObjects, item.(CurrentFile))
			}

			result = Snapshot{Session: session, Serial: serial, CurrentObjects: currentObjects}
			return nil
		})
	})
	return result, err
}

// WriteXML serializes the delta as a <delta> document: pure publishes
// first, then updates (also <publish>, but carrying a hash attribute), then
// withdraws, in that order.
func (d Delta) WriteXML() []byte {
	return xmlcodec.Encode(func(w *xmlcodec.Writer) {
		w.PutElement("delta", []xmlcodec.Attr{
			xmlcodec.A("xmlns", namespace),
			xmlcodec.A("version", schemaVersion),
			xmlcodec.A("session_id", d.Session.String()),
			xmlcodec.A("serial", strconv.FormatUint(d.Serial, 10)),
		}, func(w *xmlcodec.Writer) {
			for _, p := range d.Elements.Publishes {
				w.PutElement("publish", []xmlcodec.Attr{
					xmlcodec.A("uri", p.URI),
				}, func(w *xmlcodec.Writer) {
					w.PutText(p.Base64.String())
				})
			}
			for _, u := range d.Elements.Updates {
				w.PutElement("publish", []xmlcodec.Attr{
					xmlcodec.A("uri", u.URI),
					xmlcodec.A("hash", u.OldHash.String()),
				}, func(w *xmlcodec.Writer) {
					w.PutText(u.NewBase64.String())
				})
			}
			for _, wd := range d.Elements.Withdraws {
				w.PutElement("withdraw", []xmlcodec.Attr{
					xmlcodec.A("uri", wd.URI),
					xmlcodec.A("hash", wd.OldHash.String()),
				}, nil)
			}
		})
	})
}

// ParseDelta parses a <delta> document previously produced by WriteXML.
// <publish> elements without a hash attribute are treated as pure
// publishes; those with one are treated as updates, matching the writer's
// attribute-presence convention.
func ParseDelta(data []byte) (Delta, error) {
	var result Delta
	err := xmlcodec.Decode(data, func(r *xmlcodec.Reader) error {
		return r.TakeNamedElement("delta", func(attrs *xmlcodec.Attributes, r *xmlcodec.Reader) error {
			session, serial, err := takeSessionAndSerial(attrs)
			if err != nil {
				return err
			}
			if err := attrs.Exhausted(); err != nil {
				return err
			}

			var elements DeltaElements
			_, err = r.TakeOptElements(func(tag string, attrs *xmlcodec.Attributes, r *xmlcodec.Reader) (interface{}, error) {
				switch tag {
				case "publish":
					uri, err := attrs.TakeRequired("uri")
					if err != nil {
						return nil, err
					}
					hashText, hasHash := attrs.TakeOptional("hash")
					if err := attrs.Exhausted(); err != nil {
						return nil, err
					}
					text, err := r.TakeChars()
					if err != nil {
						return nil, err
					}
					base64 := digest.Base64FromEncoded(text)
					if hasHash {
						oldHash, err := digest.ParseHash(hashText)
						if err != nil {
							return nil, fmt.Errorf("invalid xml: %w", err)
						}
						elements.Updates = append(elements.Updates, UpdateElement{
							URI:       uri,
							OldHash:   oldHash,
							NewBase64: base64,
						})
					} else {
						elements.Publishes = append(elements.Publishes, PublishElement{
							URI:    uri,
							Base64: base64,
						})
					}
					return nil, nil
				case "withdraw":
					uri, err := attrs.TakeRequired("uri")
					if err != nil {
						return nil, err
					}
					hashText, err := attrs.TakeRequired("hash")
					if err != nil {
						return nil, err
					}
					if err := attrs.Exhausted(); err != nil {
						return nil, err
					}
					oldHash, err := digest.ParseHash(hashText)
					if err != nil {
						return nil, fmt.Errorf("invalid xml: %w", err)
					}
					elements.Withdraws = append(elements.Withdraws, WithdrawElement{URI: uri, OldHash: oldHash})
					return nil, nil
				default:
					return nil, fmt.Errorf("invalid xml: unexpected tag: %s", tag)
				}
			})
			if err != nil {
				return err
			}

			result = Delta{Session: session, Serial: serial, Elements: elements}
			return nil
		})
	})
	return result, err
}

// WriteXML serializes the notification as a <notification> document.
func (n Notification) WriteXML() []byte {
	return xmlcodec.Encode(func(w *xmlcodec.Writer) {
		w.PutElement("notification", []xmlcodec.Attr{
			xmlcodec.A("xmlns", namespace),
			xmlcodec.A("version", schemaVersion),
			xmlcodec.A("session_id", n.Session.String()),
			xmlcodec.A("serial", strconv.FormatUint(n.Serial, 10)),
		}, func(w *xmlcodec.Writer) {
			w.PutElement("snapshot", []xmlcodec.Attr{
				xmlcodec.A("uri", n.Snapshot.URI),
				xmlcodec.A("hash", n.Snapshot.Hash.String()),
			}, nil)
			for _, d := range n.Deltas {
				w.PutElement("delta", []xmlcodec.Attr{
					xmlcodec.A("serial", strconv.FormatUint(d.Serial, 10)),
					xmlcodec.A("uri", d.URI),
					xmlcodec.A("hash", d.Hash.String()),
				}, nil)
			}
		})
	})
}

// ParseNotification parses a <notification> document previously produced by
// WriteXML.
func ParseNotification(data []byte) (Notification, error) {
	var result Notification
	err := xmlcodec.Decode(data, func(r *xmlcodec.Reader) error {
		return r.TakeNamedElement("notification", func(attrs *xmlcodec.Attributes, r *xmlcodec.Reader) error {
			session, serial, err := takeSessionAndSerial(attrs)
			if err != nil {
				return err
			}
			if err := attrs.Exhausted(); err != nil {
				return err
			}

			var snapshotRef SnapshotRef
			var sawSnapshot bool
			var deltas []DeltaRef

			_, err = r.TakeOptElements(func(tag string, attrs *xmlcodec.Attributes, r *xmlcodec.Reader) (interface{}, error) {
				switch tag {
				case "snapshot":
					if sawSnapshot {
						return nil, fmt.Errorf("invalid xml: duplicate snapshot element")
					}
					uri, err := attrs.TakeRequired("uri")
					if err != nil {
						return nil, err
					}
					hashText, err := attrs.TakeRequired("hash")
					if err != nil {
						return nil, err
					}
					if err := attrs.Exhausted(); err != nil {
						return nil, err
					}
					hash, err := digest.ParseHash(hashText)
					if err != nil {
						return nil, fmt.Errorf("invalid xml: %w", err)
					}
					snapshotRef = FileRef{URI: uri, Hash: hash}
					sawSnapshot = true
					return nil, nil
				case "delta":
					deltaSerialText, err := attrs.TakeRequired("serial")
					if err != nil {
						return nil, err
					}
					deltaSerial, err := strconv.ParseUint(deltaSerialText, 10, 64)
					if err != nil {
						return nil, fmt.Errorf("invalid xml: malformed delta serial: %w", err)
					}
					uri, err := attrs.TakeRequired("uri")
					if err != nil {
						return nil, err
					}
					hashText, err := attrs.TakeRequired("hash")
					if err != nil {
						return nil, err
					}
					if err := attrs.Exhausted(); err != nil {
						return nil, err
					}
					hash, err := digest.ParseHash(hashText)
					if err != nil {
						return nil, fmt.Errorf("invalid xml: %w", err)
					}
					deltas = append(deltas, DeltaRef{Serial: deltaSerial, FileRef: FileRef{URI: uri, Hash: hash}})
					return nil, nil
				default:
					return nil, fmt.Errorf("invalid xml: unexpected tag: %s", tag)
				}
			})
			if err != nil {
				return err
			}
			if !sawSnapshot {
				return fmt.Errorf("invalid xml: missing snapshot element")
			}

			result = Notification{Session: session, Serial: serial, Snapshot: snapshotRef, Deltas: deltas}
			return nil
		})
	})
	return result, err
}

// takeSessionAndSerial consumes the version, session_id, and serial
// attributes shared by all three document types, in that order, validating
// the version along the way.
func takeSessionAndSerial(attrs *xmlcodec.Attributes) (uuid.UUID, uint64, error) {
	// The root element carries xmlns as a namespace declaration rather than
	// a semantic attribute; consume it so Exhausted doesn't reject it.
	attrs.TakeOptional("xmlns")
	version, err := attrs.TakeRequired("version")
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	if version != schemaVersion {
		return uuid.UUID{}, 0, fmt.Errorf("invalid xml: unsupported version: %s", version)
	}
	sessionText, err := attrs.TakeRequired("session_id")
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	session, err := uuid.Parse(sessionText)
	if err != nil {
		return uuid.UUID{}, 0, fmt.Errorf("invalid xml: malformed session_id: %w", err)
	}
	serialText, err := attrs.TakeRequired("serial")
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	serial, err := strconv.ParseUint(serialText, 10, 64)
	if err != nil {
		return uuid.UUID{}, 0, fmt.Errorf("invalid xml: malformed serial: %w", err)
	}
	return session, serial, nil
}
