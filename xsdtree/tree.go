// Package xsdtree holds the immutable node tree the fingerprint pipeline
// operates on, and the loader that builds it from document text.
package xsdtree

// Well-known namespaces.
const (
	XSDNamespace   = "http://www.w3.org/2001/XMLSchema"
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// NodeID identifies a node in the document arena.
type NodeID int32

// InvalidNode represents an invalid node reference.
const InvalidNode NodeID = -1

// Kind distinguishes elements from the non-structural node kinds that the
// canonicalizer filters out.
type Kind uint8

const (
	KindElement Kind = iota
	KindComment
	KindProcInst
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindComment:
		return "comment"
	case KindProcInst:
		return "procinst"
	default:
		return "unknown"
	}
}

// Name is a qualified name: namespace URI plus local name.
type Name struct {
	Space string
	Local string
}

// Less orders names by (namespace URI, local name).
func (n Name) Less(o Name) bool {
	if n.Space != o.Space {
		return n.Space < o.Space
	}
	return n.Local < o.Local
}

// Attr is a single attribute. Namespace declarations are attributes in
// XMLNSNamespace.
type Attr struct {
	Name  Name
	Value string
}

// Document is an immutable arena of nodes. Child lists are contiguous ranges
// of the children slice, so a document never aliases another one.
type Document struct {
	nodes    []node
	attrs    []Attr
	children []NodeID
	root     NodeID
}

type node struct {
	kind        Kind
	name        Name
	text        string
	tail        string
	attrsOff    int
	attrsLen    int
	childrenOff int
	childrenLen int
	parent      NodeID
}

func (d *Document) valid(id NodeID) bool {
	return d != nil && id >= 0 && int(id) < len(d.nodes)
}

// Root returns the document element, or InvalidNode for an empty document.
func (d *Document) Root() NodeID {
	if d == nil {
		return InvalidNode
	}
	return d.root
}

// Len returns the number of nodes in the arena.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.nodes)
}

func (d *Document) Kind(id NodeID) Kind {
	if !d.valid(id) {
		return KindElement
	}
	return d.nodes[id].kind
}

// Name returns the qualified name of an element. For processing instructions
// Local holds the target; comments have an empty name.
func (d *Document) Name(id NodeID) Name {
	if !d.valid(id) {
		return Name{}
	}
	return d.nodes[id].name
}

// Text returns the character data preceding the first child. For comments and
// processing instructions it is the node content.
func (d *Document) Text(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].text
}

// Tail returns the character data following the node inside its parent.
func (d *Document) Tail(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].tail
}

// Parent returns the parent node of id, or InvalidNode for the root.
func (d *Document) Parent(id NodeID) NodeID {
	if !d.valid(id) {
		return InvalidNode
	}
	return d.nodes[id].parent
}

// Attrs returns a read-only view of the node attributes.
// The returned slice aliases the arena; do not modify or retain it.
func (d *Document) Attrs(id NodeID) []Attr {
	if !d.valid(id) {
		return nil
	}
	n := d.nodes[id]
	if n.attrsLen == 0 {
		return nil
	}
	return d.attrs[n.attrsOff : n.attrsOff+n.attrsLen : n.attrsOff+n.attrsLen]
}

// Children returns a read-only view of the node children.
// The returned slice aliases the arena; do not modify or retain it.
func (d *Document) Children(id NodeID) []NodeID {
	if !d.valid(id) {
		return nil
	}
	n := d.nodes[id]
	if n.childrenLen == 0 {
		return nil
	}
	return d.children[n.childrenOff : n.childrenOff+n.childrenLen : n.childrenOff+n.childrenLen]
}

// Attr returns the value of the attribute with the given name.
func (d *Document) Attr(id NodeID, name Name) (string, bool) {
	for _, a := range d.Attrs(id) {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
