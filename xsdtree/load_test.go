package xsdtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/xsdhash/xsderr"
)

const sampleSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" elementFormDefault="qualified">
  <!-- leading comment -->
  <xs:element name="root" type="xs:string"/>
  <?app keep?>
  <xs:simpleType name="color">
    <xs:restriction base="xs:string">
      <xs:enumeration value="red"/>
    </xs:restriction>
  </xs:simpleType>
</xs:schema>`

func TestLoad_PreservesStructure(t *testing.T) {
	doc, err := Load(sampleSchema)
	require.NoError(t, err)

	root := doc.Root()
	require.NotEqual(t, InvalidNode, root)
	assert.Equal(t, Name{Space: XSDNamespace, Local: "schema"}, doc.Name(root))

	attrs := doc.Attrs(root)
	require.Len(t, attrs, 2)
	assert.Equal(t, Attr{Name: Name{Space: XMLNSNamespace, Local: "xs"}, Value: XSDNamespace}, attrs[0])
	assert.Equal(t, Attr{Name: Name{Local: "elementFormDefault"}, Value: "qualified"}, attrs[1])

	kids := doc.Children(root)
	require.Len(t, kids, 4)
	assert.Equal(t, KindComment, doc.Kind(kids[0]))
	assert.Equal(t, " leading comment ", doc.Text(kids[0]))
	assert.Equal(t, KindElement, doc.Kind(kids[1]))
	assert.Equal(t, "element", doc.Name(kids[1]).Local)
	assert.Equal(t, KindProcInst, doc.Kind(kids[2]))
	assert.Equal(t, "app", doc.Name(kids[2]).Local)
	assert.Equal(t, "keep", doc.Text(kids[2]))
	assert.Equal(t, "simpleType", doc.Name(kids[3]).Local)

	assert.Equal(t, "\n  ", doc.Text(root))
	assert.Equal(t, "\n  ", doc.Tail(kids[1]))
	assert.Equal(t, root, doc.Parent(kids[3]))
	assert.Equal(t, InvalidNode, doc.Parent(root))

	v, ok := doc.Attr(kids[1], Name{Local: "type"})
	assert.True(t, ok)
	assert.Equal(t, "xs:string", v)
}

func TestLoad_DefaultNamespaceAndNesting(t *testing.T) {
	doc, err := Load(`<schema xmlns="http://www.w3.org/2001/XMLSchema"><element xmlns:t="urn:t" t:x="1">a<b/>tail</element></schema>`)
	require.NoError(t, err)

	root := doc.Root()
	el := doc.Children(root)[0]
	assert.Equal(t, Name{Space: XSDNamespace, Local: "element"}, doc.Name(el))
	assert.Equal(t, "a", doc.Text(el))

	b := doc.Children(el)[0]
	assert.Equal(t, Name{Space: XSDNamespace, Local: "b"}, doc.Name(b))
	assert.Equal(t, "tail", doc.Tail(b))

	v, ok := doc.Attr(el, Name{Space: "urn:t", Local: "x"})
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestLoad_XMLPrefixIsPredeclared(t *testing.T) {
	doc, err := Load(`<a xml:lang="en"/>`)
	require.NoError(t, err)
	v, ok := doc.Attr(doc.Root(), Name{Space: XMLNamespace, Local: "lang"})
	assert.True(t, ok)
	assert.Equal(t, "en", v)
}

func TestLoad_EntitiesAndCDATA(t *testing.T) {
	doc, err := Load(`<a v="x &amp; y">1 &lt; 2<![CDATA[ <raw> ]]></a>`)
	require.NoError(t, err)
	v, _ := doc.Attr(doc.Root(), Name{Local: "v"})
	assert.Equal(t, "x & y", v)
	assert.Equal(t, "1 < 2 <raw> ", doc.Text(doc.Root()))
}

func TestLoad_InternalSubsetEntities(t *testing.T) {
	doc, err := Load(`<!DOCTYPE a [<!ENTITY e "v"><!ENTITY e "w"><!ENTITY q 'x'>]><a k="&q;">&e;&amp;</a>`)
	require.NoError(t, err)
	assert.Equal(t, "v&", doc.Text(doc.Root()))
	v, _ := doc.Attr(doc.Root(), Name{Local: "k"})
	assert.Equal(t, "x", v)
}

func TestLoad_ParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		rule  string
	}{
		{"not xml", "invalid", xsderr.RuleMalformed},
		{"empty", "", xsderr.RuleNoRoot},
		{"unterminated", "<a><b></a>", xsderr.RuleMalformed},
		{"unclosed", "<a><b/>", xsderr.RuleMalformed},
		{"two roots", "<a/><b/>", xsderr.RuleMalformed},
		{"trailing text", "<a/>junk", xsderr.RuleMalformed},
		{"undeclared element prefix", "<p:a/>", xsderr.RuleUndeclaredNS},
		{"undeclared attribute prefix", `<a q:x="1"/>`, xsderr.RuleUndeclaredNS},
		{"prefix out of scope", `<a><b xmlns:p="urn:p"/><p:c/></a>`, xsderr.RuleUndeclaredNS},
		{"undeclared entity", "<a>&e;</a>", xsderr.RuleMalformed},
		{"invalid utf8", "<a>\xff</a>", xsderr.RuleInvalidUTF8},
		{"duplicate expanded attribute", `<a xmlns:p="urn:x" xmlns:q="urn:x" p:v="1" q:v="2"/>`, xsderr.RuleMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Load(tc.input)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, xsderr.IsParse(err), "expected ParseError, got %v", err)
			assert.Equal(t, tc.rule, xsderr.RuleID(err))
		})
	}
}

func TestLoad_BOMTolerated(t *testing.T) {
	doc, err := LoadBytes(append([]byte{0xEF, 0xBB, 0xBF}, []byte("<a/>")...))
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Name(doc.Root()).Local)
}

func TestDocument_NilAndInvalidAccess(t *testing.T) {
	var d *Document
	assert.Equal(t, InvalidNode, d.Root())
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Children(0))
	assert.Nil(t, d.Attrs(0))
	assert.Equal(t, Name{}, d.Name(InvalidNode))
	assert.Equal(t, InvalidNode, d.Parent(3))
}
