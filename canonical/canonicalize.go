// Package canonical maps a loaded schema tree onto its canonical form and
// encodes that form deterministically.
//
// Two trees that differ only in inter-tag whitespace, comments, processing
// instructions, annotation subtrees, attribute order or sibling order map to
// byte-identical encodings. Any other difference (names, namespace URIs,
// attribute values, character data) changes the encoding.
package canonical

import (
	"bytes"
	"slices"
	"strings"

	"xdao.co/xsdhash/xsdtree"
)

// AnnotationName is the element whose subtree never contributes to the
// canonical form.
var AnnotationName = xsdtree.Name{Space: xsdtree.XSDNamespace, Local: "annotation"}

// Form is a canonical tree together with its encoding.
type Form struct {
	doc     *xsdtree.Document
	encoded []byte
}

// Document returns the canonical tree. It is a fresh arena that shares
// nothing with the input of Canonicalize.
func (f *Form) Document() *xsdtree.Document {
	if f == nil {
		return nil
	}
	return f.doc
}

// Bytes returns a copy of the canonical encoding.
func (f *Form) Bytes() []byte {
	if f == nil {
		return nil
	}
	return append([]byte(nil), f.encoded...)
}

// Len returns the size of the canonical encoding in bytes.
func (f *Form) Len() int {
	if f == nil {
		return 0
	}
	return len(f.encoded)
}

// Canonicalize builds the canonical form of doc. It never fails and never
// mutates doc, so a loaded tree may be shared between concurrent callers.
//
// Per element, bottom-up:
//   - xs:annotation subtrees, comments and processing instructions are dropped;
//     character data that followed a dropped node joins the preceding text.
//   - text and tails consisting only of XML whitespace are dropped; any other
//     character data is kept byte-for-byte.
//   - attributes are ordered by (namespace URI, local name).
//   - children are ordered by their own canonical encoding (byte-wise, stable).
//
// Each child is encoded once; the parent encoding is assembled from the cached
// child encodings.
func Canonicalize(doc *xsdtree.Document) *Form {
	root := doc.Root()
	if root == xsdtree.InvalidNode || !kept(doc, root) {
		return &Form{doc: xsdtree.NewBuilder(0).Build(xsdtree.InvalidNode)}
	}
	c := &canonicalizer{src: doc, b: xsdtree.NewBuilder(doc.Len())}
	id, enc := c.element(root, "")
	return &Form{doc: c.b.Build(id), encoded: enc}
}

type canonicalizer struct {
	src *xsdtree.Document
	b   *xsdtree.Builder
}

type encodedChild struct {
	id  xsdtree.NodeID
	enc []byte
}

func (c *canonicalizer) element(id xsdtree.NodeID, tail string) (xsdtree.NodeID, []byte) {
	src := c.src
	name := src.Name(id)

	attrs := slices.Clone(src.Attrs(id))
	slices.SortStableFunc(attrs, func(a, b xsdtree.Attr) int {
		switch {
		case a.Name.Less(b.Name):
			return -1
		case b.Name.Less(a.Name):
			return 1
		default:
			return 0
		}
	})

	// Character data following a dropped node is merged into the text that
	// precedes it, as if the dropped node had never been there.
	var text strings.Builder
	text.WriteString(src.Text(id))
	var keptIDs []xsdtree.NodeID
	var tails []*strings.Builder
	for _, child := range src.Children(id) {
		if kept(src, child) {
			keptIDs = append(keptIDs, child)
			tb := &strings.Builder{}
			tb.WriteString(src.Tail(child))
			tails = append(tails, tb)
			continue
		}
		if len(tails) == 0 {
			text.WriteString(src.Tail(child))
		} else {
			tails[len(tails)-1].WriteString(src.Tail(child))
		}
	}

	children := make([]encodedChild, 0, len(keptIDs))
	for i, child := range keptIDs {
		cid, enc := c.element(child, significant(tails[i].String()))
		children = append(children, encodedChild{id: cid, enc: enc})
	}
	slices.SortStableFunc(children, func(a, b encodedChild) int {
		return bytes.Compare(a.enc, b.enc)
	})

	ownText := significant(text.String())
	size := len(name.Space) + len(name.Local) + len(ownText) + len(tail) + 16
	ids := make([]xsdtree.NodeID, len(children))
	for i, ch := range children {
		ids[i] = ch.id
		size += len(ch.enc)
	}

	enc := make([]byte, 0, size)
	enc = appendOpen(enc, name, attrs)
	enc = appendEscaped(enc, ownText)
	for _, ch := range children {
		enc = append(enc, ch.enc...)
	}
	enc = appendClose(enc, name)
	enc = appendEscaped(enc, tail)

	return c.b.Element(name, attrs, ownText, tail, ids), enc
}

// kept reports whether a node survives canonicalization.
func kept(doc *xsdtree.Document, id xsdtree.NodeID) bool {
	if doc.Kind(id) != xsdtree.KindElement {
		return false
	}
	return doc.Name(id) != AnnotationName
}

// significant returns s, or "" when s only exists for source formatting.
func significant(s string) string {
	if isXMLSpace(s) {
		return ""
	}
	return s
}

func isXMLSpace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
