package xmlcodec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// Reader provides pull-style traversal of an XML document. It wraps a
// standard library decoder but adds a single token of lookahead, which is
// what lets TakeOptElements determine whether another child element follows
// without consuming it first.
type Reader struct {
	dec        *xml.Decoder
	pending    xml.Token
	hasPending bool
}

// Decode parses data as an XML document and invokes handler with a Reader
// positioned before the root element. handler is expected to consume the
// root element with a single call to TakeNamedElement.
func Decode(data []byte, handler func(r *Reader) error) error {
	r := &Reader{dec: xml.NewDecoder(bytes.NewReader(data))}
	return handler(r)
}

// rawToken returns the next token, transparently skipping processing
// instructions, directives, and comments, none of which RRDP documents
// contain meaningfully (the leading XML declaration is a processing
// instruction and is always skipped here).
func (r *Reader) rawToken() (xml.Token, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("xml: %w", err)
		}
		switch tok.(type) {
		case xml.ProcInst, xml.Directive, xml.Comment:
			continue
		default:
			return tok, nil
		}
	}
}

// peek returns the next meaningful token without consuming it. Whitespace-
// only character data between elements is skipped transparently.
func (r *Reader) peek() (xml.Token, error) {
	for {
		if r.hasPending {
			return r.pending, nil
		}
		tok, err := r.rawToken()
		if err != nil {
			return nil, err
		}
		if cd, ok := tok.(xml.CharData); ok && isWhitespace(cd) {
			continue
		}
		r.pending = tok
		r.hasPending = true
		return tok, nil
	}
}

// next consumes and returns the next meaningful token.
func (r *Reader) next() (xml.Token, error) {
	tok, err := r.peek()
	if err != nil {
		return nil, err
	}
	r.hasPending = false
	r.pending = nil
	return tok, nil
}

func isWhitespace(data []byte) bool {
	return len(strings.TrimSpace(string(data))) == 0
}

// TakeNamedElement consumes the next element, requiring that its tag equal
// name. It passes the element's attributes and a Reader scoped to its
// content to f, then consumes the matching end tag.
func (r *Reader) TakeNamedElement(name string, f func(attrs *Attributes, r *Reader) error) error {
	tok, err := r.next()
	if err != nil {
		return err
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return fmt.Errorf("invalid xml: expected element <%s>", name)
	}
	if start.Name.Local != name {
		return fmt.Errorf("invalid xml: unexpected tag: %s", start.Name.Local)
	}
	attrs := newAttributes(start.Attr)
	if err := f(attrs, r); err != nil {
		return err
	}
	return r.takeEnd(start.Name)
}

// TakeOptElements repeatedly peeks the next child. As long as it is an
// element, f is invoked with its tag, attributes, and a Reader scoped to its
// content; the value f returns is accumulated. Traversal stops as soon as
// the next child is not an element (i.e. the enclosing element's end tag
// has been reached).
func (r *Reader) TakeOptElements(f func(tag string, attrs *Attributes, r *Reader) (interface{}, error)) ([]interface{}, error) {
	var results []interface{}
	for {
		tok, err := r.peek()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			return results, nil
		}
		if _, err := r.next(); err != nil {
			return nil, err
		}
		attrs := newAttributes(start.Attr)
		value, err := f(start.Name.Local, attrs, r)
		if err != nil {
			return nil, err
		}
		if err := r.takeEnd(start.Name); err != nil {
			return nil, err
		}
		results = append(results, value)
	}
}

// TakeChars returns the concatenated character data at the current position,
// un-escaped, consuming it in the process.
func (r *Reader) TakeChars() (string, error) {
	var sb strings.Builder
	for {
		tok, err := r.peek()
		if err != nil {
			return "", err
		}
		cd, ok := tok.(xml.CharData)
		if !ok {
			return sb.String(), nil
		}
		sb.Write(cd)
		if _, err := r.next(); err != nil {
			return "", err
		}
	}
}

// takeEnd consumes the next token, requiring it to be the end tag for name.
func (r *Reader) takeEnd(name xml.Name) error {
	tok, err := r.next()
	if err != nil {
		return err
	}
	end, ok := tok.(xml.EndElement)
	if !ok || end.Name.Local != name.Local {
		return fmt.Errorf("invalid xml: expected end of <%s>", name.Local)
	}
	return nil
}

// Attributes is a bag of an element's attributes. TakeRequired consumes a
// named attribute; Exhausted then verifies that every attribute the element
// carried has been consumed, which is what enforces RRDP's closed attribute
// sets.
type Attributes struct {
	values map[string]string
	taken  map[string]bool
}

func newAttributes(raw []xml.Attr) *Attributes {
	values := make(map[string]string, len(raw))
	for _, a := range raw {
		values[a.Name.Local] = a.Value
	}
	return &Attributes{values: values, taken: make(map[string]bool, len(raw))}
}

// TakeRequired consumes and returns the named attribute's value, or fails if
// it was not present.
func (a *Attributes) TakeRequired(name string) (string, error) {
	value, ok := a.values[name]
	if !ok {
		return "", fmt.Errorf("invalid xml: missing attribute: %s", name)
	}
	a.taken[name] = true
	return value, nil
}

// TakeOptional consumes and returns the named attribute's value and true, or
// ("", false) if it was not present.
func (a *Attributes) TakeOptional(name string) (string, bool) {
	value, ok := a.values[name]
	if ok {
		a.taken[name] = true
	}
	return value, ok
}

// Exhausted fails if any attribute remains that was not consumed by
// TakeRequired or TakeOptional.
func (a *Attributes) Exhausted() error {
	for name := range a.values {
		if !a.taken[name] {
			return fmt.Errorf("invalid xml: unexpected attribute: %s", name)
		}
	}
	return nil
}
