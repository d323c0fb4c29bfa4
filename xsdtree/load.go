package xsdtree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"xdao.co/xsdhash/xsderr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load parses document text into a Document rooted at the document element.
//
// Namespaces, attribute order, child order, comments, processing instructions
// and character data are preserved as written. Load fails with a ParseError
// (xsderr.KindParse) when the input is not well-formed namespace-aware XML.
func Load(text string) (*Document, error) {
	return LoadBytes([]byte(text))
}

// LoadBytes is Load over raw UTF-8 bytes.
func LoadBytes(data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, xsderr.Parse(xsderr.RuleInvalidUTF8, "input is not valid UTF-8", nil)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	entities, err := checkWellFormed(data)
	if err != nil {
		return nil, err
	}

	src := etree.NewDocument()
	src.ReadSettings.Entity = entities
	// Input is already UTF-8 text; a declared encoding label does not change it.
	src.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := src.ReadFromBytes(data); err != nil {
		return nil, xsderr.Parse(xsderr.RuleMalformed, "malformed XML", err).WithInput(string(data))
	}
	root := src.Root()
	if root == nil {
		return nil, xsderr.Parse(xsderr.RuleNoRoot, "document has no root element", nil).WithInput(string(data))
	}

	l := &loader{b: NewBuilder(len(data)/32 + 1)}
	id, err := l.element(root, "", &scope{bindings: map[string]string{"xml": XMLNamespace}})
	if err != nil {
		return nil, err
	}
	return l.b.Build(id), nil
}

// checkWellFormed runs the strict tokenizer over the whole input so that tag
// mismatches, unclosed elements and stray top-level content are rejected
// before a tree is built. It returns the general entities declared in the
// internal DTD subset, if any.
func checkWellFormed(data []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	var entities map[string]string
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, xsderr.Parse(xsderr.RuleMalformed, "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.Directive:
			if depth == 0 && roots == 0 {
				entities = internalEntities(t)
				dec.Entity = entities
			}
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return nil, xsderr.Parse(xsderr.RuleMalformed, "multiple root elements", nil)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, xsderr.Parse(xsderr.RuleMalformed, "character data outside the root element", nil).
					WithInput(string(t))
			}
		}
	}
	if roots == 0 {
		return nil, xsderr.Parse(xsderr.RuleNoRoot, "document has no root element", nil)
	}
	return entities, nil
}

var entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"'<>]+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// internalEntities collects internal general entity declarations from a
// DOCTYPE directive. Parameter and external entities are ignored, and
// replacement text is substituted as character data.
func internalEntities(d xml.Directive) map[string]string {
	if !bytes.HasPrefix(d, []byte("DOCTYPE")) {
		return nil
	}
	var out map[string]string
	for _, m := range entityDecl.FindAllSubmatch(d, -1) {
		name := string(m[1])
		if _, dup := out[name]; dup {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[name] = string(m[2]) + string(m[3])
	}
	return out
}

type scope struct {
	parent   *scope
	bindings map[string]string
}

func (s *scope) lookup(prefix string) (string, bool) {
	for c := s; c != nil; c = c.parent {
		if uri, ok := c.bindings[prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

type loader struct {
	b *Builder
}

type pending struct {
	tok  etree.Token
	tail strings.Builder
}

func (l *loader) element(e *etree.Element, tail string, parent *scope) (NodeID, error) {
	sc := &scope{parent: parent}
	for _, a := range e.Attr {
		switch {
		case a.Space == "xmlns":
			if a.Value == "" {
				return InvalidNode, undeclared(a.Space + ":" + a.Key)
			}
			if sc.bindings == nil {
				sc.bindings = make(map[string]string)
			}
			sc.bindings[a.Key] = a.Value
		case a.Space == "" && a.Key == "xmlns":
			if sc.bindings == nil {
				sc.bindings = make(map[string]string)
			}
			sc.bindings[""] = a.Value
		}
	}

	name, err := resolveElement(e, sc)
	if err != nil {
		return InvalidNode, err
	}
	attrs, err := resolveAttrs(e, sc)
	if err != nil {
		return InvalidNode, err
	}

	var text strings.Builder
	var items []*pending
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if len(items) == 0 {
				text.WriteString(t.Data)
			} else {
				items[len(items)-1].tail.WriteString(t.Data)
			}
		case *etree.Element, *etree.Comment, *etree.ProcInst:
			items = append(items, &pending{tok: tok})
		}
	}

	children := make([]NodeID, 0, len(items))
	for _, it := range items {
		var id NodeID
		switch t := it.tok.(type) {
		case *etree.Element:
			id, err = l.element(t, it.tail.String(), sc)
			if err != nil {
				return InvalidNode, err
			}
		case *etree.Comment:
			id = l.b.Comment(t.Data, it.tail.String())
		case *etree.ProcInst:
			id = l.b.ProcInst(t.Target, t.Inst, it.tail.String())
		}
		children = append(children, id)
	}
	return l.b.Element(name, attrs, text.String(), tail, children), nil
}

func resolveElement(e *etree.Element, sc *scope) (Name, error) {
	if e.Space == "xmlns" {
		return Name{}, xsderr.Parse(xsderr.RuleUndeclaredNS, "reserved prefix xmlns used on element", nil).
			WithInput(e.FullTag())
	}
	uri, ok := sc.lookup(e.Space)
	if !ok && e.Space != "" {
		return Name{}, undeclared(e.FullTag())
	}
	return Name{Space: uri, Local: e.Tag}, nil
}

func resolveAttrs(e *etree.Element, sc *scope) ([]Attr, error) {
	if len(e.Attr) == 0 {
		return nil, nil
	}
	out := make([]Attr, 0, len(e.Attr))
	seen := make(map[Name]struct{}, len(e.Attr))
	for _, a := range e.Attr {
		var n Name
		switch {
		case a.Space == "xmlns":
			n = Name{Space: XMLNSNamespace, Local: a.Key}
		case a.Space == "" && a.Key == "xmlns":
			n = Name{Space: XMLNSNamespace, Local: "xmlns"}
		case a.Space == "":
			// Unprefixed attributes are in no namespace.
			n = Name{Local: a.Key}
		default:
			uri, ok := sc.lookup(a.Space)
			if !ok {
				return nil, undeclared(a.Space + ":" + a.Key)
			}
			n = Name{Space: uri, Local: a.Key}
		}
		if _, dup := seen[n]; dup {
			return nil, xsderr.Parse(xsderr.RuleMalformed,
				fmt.Sprintf("duplicate attribute {%s}%s", n.Space, n.Local), nil).WithInput(e.FullTag())
		}
		seen[n] = struct{}{}
		out = append(out, Attr{Name: n, Value: a.Value})
	}
	return out, nil
}

func undeclared(qname string) error {
	return xsderr.Parse(xsderr.RuleUndeclaredNS, "undeclared namespace prefix", nil).WithInput(qname)
}
