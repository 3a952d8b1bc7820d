// Package xmlcodec implements the minimal, deterministic XML 1.0 writer and
// pull-style reader that the RRDP artifact types are built on. It supports
// exactly what RRDP needs: namespaced elements, ordered attributes, and
// plain character data. There is no support for DTDs, processing
// instructions (beyond the leading declaration), comments, or mixed
// content, because RRDP documents never use any of those constructs.
//
// The writer is deterministic because its output is hashed and that hash is
// published inside peer artifacts: the same logical document must always
// serialize to the same bytes.
package xmlcodec

import (
	"bytes"
	"strings"
)

// declaration is the single XML declaration emitted at the start of every
// document produced by Encode.
const declaration = `<?xml version="1.0" encoding="UTF-8"?>`

// Attr is a single ordered attribute. Attributes are represented as a slice,
// rather than a map, because their order must be preserved exactly as the
// caller supplies it.
type Attr struct {
	Name  string
	Value string
}

// A constructs an Attr. It exists purely to keep call sites for
// Writer.PutElement compact.
func A(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// Writer accumulates the bytes of an XML document as elements are put to
// it.
type Writer struct {
	buf *bytes.Buffer
}

// Encode produces a complete XML document: the declaration followed by one
// root element, which writeRoot is responsible for emitting via PutElement.
func Encode(writeRoot func(w *Writer)) []byte {
	w := &Writer{buf: &bytes.Buffer{}}
	w.buf.WriteString(declaration)
	writeRoot(w)
	return w.buf.Bytes()
}

// PutElement writes a single element: a start tag carrying attrs in the
// given order, the content written by body (which may itself call
// PutElement to nest children, or PutText to write character data), and a
// matching end tag. If body is nil, or writes no content, the element is
// emitted in self-closing form instead of with a separate end tag.
func (w *Writer) PutElement(name string, attrs []Attr, body func(w *Writer)) {
	var start bytes.Buffer
	start.WriteByte('<')
	start.WriteString(name)
	for _, attr := range attrs {
		start.WriteByte(' ')
		start.WriteString(attr.Name)
		start.WriteString(`="`)
		start.WriteString(escapeAttribute(attr.Value))
		start.WriteByte('"')
	}

	if body == nil {
		w.buf.Write(start.Bytes())
		w.buf.WriteString("/>")
		return
	}

	inner := &Writer{buf: &bytes.Buffer{}}
	body(inner)

	if inner.buf.Len() == 0 {
		w.buf.Write(start.Bytes())
		w.buf.WriteString("/>")
		return
	}

	w.buf.Write(start.Bytes())
	w.buf.WriteByte('>')
	w.buf.Write(inner.buf.Bytes())
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
}

// PutText writes escaped character data as the content of the current
// element.
func (w *Writer) PutText(s string) {
	w.buf.WriteString(escapeText(s))
}

// escapeAttribute escapes the five XML predefined entities for use inside a
// double-quoted attribute value.
func escapeAttribute(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}

// escapeText escapes character data. Quotes need no escaping outside of
// attribute values, so only the three structural entities are replaced.
func escapeText(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}
