// Package appinfo edits application metadata stored inside the
// xs:annotation/xs:appinfo blocks of schema components.
//
// Metadata lives in annotation subtrees, which never contribute to a schema's
// fingerprint, so edits made here leave the fingerprint unchanged.
package appinfo

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"

	"xdao.co/xsdhash/xsderr"
	"xdao.co/xsdhash/xsdtree"
)

// AddMetadata sets key to value in the appinfo of every element matched by
// locator and returns the updated document.
//
// The locator is an etree path evaluated relative to the root element, using
// the prefixes as written in the document (for example "xs:element" or
// "xs:complexType[@name='T']"). Per matched element:
//   - the key already present under exactly one appinfo is updated in place;
//   - a key present under several appinfo blocks is ambiguous and fails;
//   - otherwise the key is appended to the first appinfo, creating the
//     annotation and appinfo wrappers when missing.
//
// Every match is checked before the document is touched, so a failing call
// never leaves a partial edit.
func AddMetadata(text, locator, key, value string) (string, error) {
	return edit(text, locator, key, func(t *target) {
		t.set(key, value)
	})
}

// DeleteMetadata removes key from the appinfo of every element matched by
// locator. A missing key is not an error; emptied appinfo wrappers are kept.
func DeleteMetadata(text, locator, key string) (string, error) {
	return edit(text, locator, key, func(t *target) {
		t.remove(key)
	})
}

func edit(text, locator, key string, apply func(*target)) (string, error) {
	if _, err := xsdtree.Load(text); err != nil {
		return "", err
	}
	if !isNCName(key) {
		return "", xsderr.New(xsderr.KindInvalidKey, xsderr.RuleInvalidKey,
			fmt.Sprintf("metadata key %q is not an XML NCName", key))
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := doc.ReadFromString(text); err != nil {
		return "", xsderr.Parse(xsderr.RuleMalformed, "malformed XML", err).WithInput(text)
	}
	root := doc.Root()

	matches, err := locate(root, locator)
	if err != nil {
		return "", err
	}

	targets := make([]*target, 0, len(matches))
	for _, e := range matches {
		t := newTarget(e)
		if n := t.containersWith(key); n > 1 {
			return "", xsderr.AmbiguousMetadata(locator, key, n)
		}
		targets = append(targets, t)
	}
	for _, t := range targets {
		apply(t)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", xsderr.Wrap(xsderr.KindInternal, xsderr.RuleInternalFailure, "serialize document", err)
	}
	return out, nil
}

func locate(root *etree.Element, locator string) ([]*etree.Element, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, xsderr.Locator(xsderr.RuleInvalidPath, locator, "empty locator", nil)
	}
	path, err := etree.CompilePath(locator)
	if err != nil {
		return nil, xsderr.Locator(xsderr.RuleInvalidPath, locator, "invalid locator", err)
	}
	var matches []*etree.Element
	for _, m := range root.FindElementsPath(path) {
		if within(m, root) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return nil, xsderr.Locator(xsderr.RuleNoMatch, locator, "locator matched no element", nil)
	}
	return matches, nil
}

// target is one matched schema component and its existing appinfo blocks.
type target struct {
	elem     *etree.Element
	appinfos []*etree.Element
}

func newTarget(e *etree.Element) *target {
	t := &target{elem: e}
	for _, ann := range xsdChildren(e, "annotation") {
		t.appinfos = append(t.appinfos, xsdChildren(ann, "appinfo")...)
	}
	return t
}

func (t *target) containersWith(key string) int {
	n := 0
	for _, ai := range t.appinfos {
		if len(keyChildren(ai, key)) > 0 {
			n++
		}
	}
	return n
}

func (t *target) set(key, value string) {
	for _, ai := range t.appinfos {
		if kids := keyChildren(ai, key); len(kids) > 0 {
			kids[0].SetText(value)
			return
		}
	}
	var ai *etree.Element
	if len(t.appinfos) > 0 {
		ai = t.appinfos[0]
	} else {
		ai = t.createAppinfo()
	}
	ai.CreateElement(key).SetText(value)
}

func (t *target) remove(key string) {
	for _, ai := range t.appinfos {
		for _, k := range keyChildren(ai, key) {
			ai.RemoveChild(k)
		}
	}
}

// createAppinfo adds an appinfo wrapper, and the annotation around it when
// the element has none. An annotation must be the first child of a schema
// component.
func (t *target) createAppinfo() *etree.Element {
	prefix, declare := xsdPrefix(t.elem)

	anns := xsdChildren(t.elem, "annotation")
	var ann *etree.Element
	if len(anns) > 0 {
		ann = anns[0]
	} else {
		ann = etree.NewElement(qualify(prefix, "annotation"))
		if declare {
			ann.CreateAttr("xmlns:"+prefix, xsdtree.XSDNamespace)
		}
		t.elem.InsertChildAt(0, ann)
	}

	ai := ann.CreateElement(qualify(prefix, "appinfo"))
	if declare && len(anns) > 0 {
		ai.CreateAttr("xmlns:"+prefix, xsdtree.XSDNamespace)
	}
	t.appinfos = append(t.appinfos, ai)
	return ai
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// xsdPrefix returns the prefix bound to the XSD namespace at e. When none is
// bound it returns a free prefix and declare=true.
func xsdPrefix(e *etree.Element) (prefix string, declare bool) {
	seen := map[string]bool{}
	for c := e; c != nil; c = c.Parent() {
		for _, a := range c.Attr {
			var p string
			switch {
			case a.Space == "xmlns":
				p = a.Key
			case a.Space == "" && a.Key == "xmlns":
				p = ""
			default:
				continue
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			if a.Value == xsdtree.XSDNamespace {
				return p, false
			}
		}
	}
	for _, p := range []string{"xs", "xsd"} {
		if !seen[p] {
			return p, true
		}
	}
	for i := 0; ; i++ {
		p := fmt.Sprintf("xs%d", i)
		if !seen[p] {
			return p, true
		}
	}
}

// within reports whether e is root or one of its descendants.
func within(e, root *etree.Element) bool {
	for c := e; c != nil; c = c.Parent() {
		if c == root {
			return true
		}
	}
	return false
}

func xsdChildren(e *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == local && c.NamespaceURI() == xsdtree.XSDNamespace {
			out = append(out, c)
		}
	}
	return out
}

// keyChildren returns the unprefixed children of appinfo named key.
func keyChildren(appinfo *etree.Element, key string) []*etree.Element {
	var out []*etree.Element
	for _, c := range appinfo.ChildElements() {
		if c.Space == "" && c.Tag == key {
			out = append(out, c)
		}
	}
	return out
}

func isNCName(s string) bool {
	if s == "" || !utf8.ValidString(s) {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)):
		default:
			return false
		}
	}
	return true
}
