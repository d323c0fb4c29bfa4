package canonical

import (
	"xdao.co/xsdhash/xsdtree"
)

// Serialize encodes doc depth-first into a deterministic byte sequence.
//
// Element layout:
//
//	<{ns}local {ans}alocal="value" ...>text children...</{ns}local>tail
//
// Names, values and character data are escaped so that none of & < > " { }
// occurs literally inside them; the encoding is therefore injective. Node
// order and attribute order are emitted as stored: call Canonicalize first to
// obtain the canonical encoding.
func Serialize(doc *xsdtree.Document) []byte {
	root := doc.Root()
	if root == xsdtree.InvalidNode {
		return nil
	}
	return appendNode(nil, doc, root)
}

func appendNode(dst []byte, doc *xsdtree.Document, id xsdtree.NodeID) []byte {
	switch doc.Kind(id) {
	case xsdtree.KindComment:
		dst = append(dst, "<!--"...)
		dst = appendEscaped(dst, doc.Text(id))
		dst = append(dst, "-->"...)
		return appendEscaped(dst, doc.Tail(id))
	case xsdtree.KindProcInst:
		dst = append(dst, "<?"...)
		dst = appendEscaped(dst, doc.Name(id).Local)
		dst = append(dst, ' ')
		dst = appendEscaped(dst, doc.Text(id))
		dst = append(dst, "?>"...)
		return appendEscaped(dst, doc.Tail(id))
	}
	dst = appendOpen(dst, doc.Name(id), doc.Attrs(id))
	dst = appendEscaped(dst, doc.Text(id))
	for _, c := range doc.Children(id) {
		dst = appendNode(dst, doc, c)
	}
	dst = appendClose(dst, doc.Name(id))
	return appendEscaped(dst, doc.Tail(id))
}

func appendOpen(dst []byte, name xsdtree.Name, attrs []xsdtree.Attr) []byte {
	dst = append(dst, '<')
	dst = appendName(dst, name)
	for _, a := range attrs {
		dst = append(dst, ' ')
		dst = appendName(dst, a.Name)
		dst = append(dst, '=', '"')
		dst = appendEscaped(dst, a.Value)
		dst = append(dst, '"')
	}
	return append(dst, '>')
}

func appendClose(dst []byte, name xsdtree.Name) []byte {
	dst = append(dst, '<', '/')
	dst = appendName(dst, name)
	return append(dst, '>')
}

func appendName(dst []byte, name xsdtree.Name) []byte {
	dst = append(dst, '{')
	dst = appendEscaped(dst, name.Space)
	dst = append(dst, '}')
	return appendEscaped(dst, name.Local)
}

func appendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			dst = append(dst, "&amp;"...)
		case '<':
			dst = append(dst, "&lt;"...)
		case '>':
			dst = append(dst, "&gt;"...)
		case '"':
			dst = append(dst, "&quot;"...)
		case '{':
			dst = append(dst, "&#123;"...)
		case '}':
			dst = append(dst, "&#125;"...)
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
