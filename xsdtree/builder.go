package xsdtree

// Builder assembles a Document bottom-up: children are added before their
// parent, which then claims them. A Builder must not be reused after Build.
type Builder struct {
	doc *Document
}

// NewBuilder returns a Builder with capacity hints for n nodes.
func NewBuilder(n int) *Builder {
	return &Builder{doc: &Document{
		nodes:    make([]node, 0, n),
		children: make([]NodeID, 0, n),
		root:     InvalidNode,
	}}
}

// Element adds an element owning the given children. Attribute and child
// slices are copied into the arena.
func (b *Builder) Element(name Name, attrs []Attr, text, tail string, children []NodeID) NodeID {
	id := NodeID(len(b.doc.nodes))
	n := node{
		kind:        KindElement,
		name:        name,
		text:        text,
		tail:        tail,
		attrsOff:    len(b.doc.attrs),
		attrsLen:    len(attrs),
		childrenOff: len(b.doc.children),
		childrenLen: len(children),
		parent:      InvalidNode,
	}
	b.doc.attrs = append(b.doc.attrs, attrs...)
	b.doc.children = append(b.doc.children, children...)
	for _, c := range children {
		b.doc.nodes[c].parent = id
	}
	b.doc.nodes = append(b.doc.nodes, n)
	return id
}

// Comment adds a comment node.
func (b *Builder) Comment(data, tail string) NodeID {
	return b.leaf(KindComment, Name{}, data, tail)
}

// ProcInst adds a processing instruction node.
func (b *Builder) ProcInst(target, inst, tail string) NodeID {
	return b.leaf(KindProcInst, Name{Local: target}, inst, tail)
}

func (b *Builder) leaf(kind Kind, name Name, text, tail string) NodeID {
	id := NodeID(len(b.doc.nodes))
	b.doc.nodes = append(b.doc.nodes, node{
		kind:   kind,
		name:   name,
		text:   text,
		tail:   tail,
		parent: InvalidNode,
	})
	return id
}

// Build finalizes the document with root as its document element.
func (b *Builder) Build(root NodeID) *Document {
	d := b.doc
	b.doc = nil
	if d.valid(root) {
		d.root = root
	}
	return d
}
