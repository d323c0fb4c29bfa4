package appinfo

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/xsdhash"
	"xdao.co/xsdhash/xsderr"
)

// normalize re-serializes text without whitespace-only character data so that
// documents can be compared structurally.
func normalize(t *testing.T, text string) string {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(text))
	stripSpace(&doc.Element)
	out, err := doc.WriteToString()
	require.NoError(t, err)
	return out
}

func stripSpace(e *etree.Element) {
	kept := e.Child[:0]
	for _, tok := range e.Child {
		if cd, ok := tok.(*etree.CharData); ok && strings.TrimSpace(cd.Data) == "" {
			continue
		}
		kept = append(kept, tok)
	}
	e.Child = kept
	for _, c := range e.ChildElements() {
		stripSpace(c)
	}
}

func assertSameDoc(t *testing.T, want, got string) {
	t.Helper()
	assert.Equal(t, normalize(t, want), normalize(t, got))
}

const withAppinfo = `
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="root">
		<xs:annotation>
			<xs:appinfo><attribute>value</attribute></xs:appinfo>
		</xs:annotation>
	</xs:element>
</xs:schema>`

func TestAddMetadata(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		value string
		want  string
	}{
		{
			name:  "no annotation",
			in:    `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"/></xs:schema>`,
			value: "value",
			want:  withAppinfo,
		},
		{
			name:  "empty annotation",
			in:    `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation></xs:annotation></xs:element></xs:schema>`,
			value: "value",
			want:  withAppinfo,
		},
		{
			name: "empty appinfo",
			in: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:element name="root"><xs:annotation>
			<xs:appinfo></xs:appinfo></xs:annotation></xs:element>
			</xs:schema>`,
			value: "value",
			want:  withAppinfo,
		},
		{
			name:  "key present",
			in:    strings.Replace(withAppinfo, ">value<", ">old<", 1),
			value: "value",
			want:  withAppinfo,
		},
		{
			name: "absent from two appinfo",
			in: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo></xs:appinfo><xs:appinfo></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
			value: "new",
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo><attribute>new</attribute></xs:appinfo><xs:appinfo/></xs:annotation></xs:element></xs:schema>`,
		},
		{
			name: "present in first of two appinfo",
			in: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo><attribute>old</attribute></xs:appinfo><xs:appinfo></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
			value: "new",
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo><attribute>new</attribute></xs:appinfo><xs:appinfo/></xs:annotation></xs:element></xs:schema>`,
		},
		{
			name: "present in second of two appinfo",
			in: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo></xs:appinfo><xs:appinfo><attribute>old</attribute></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
			value: "new",
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo/><xs:appinfo><attribute>new</attribute></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AddMetadata(tc.in, "xs:element", "attribute", tc.value)
			require.NoError(t, err)
			assertSameDoc(t, tc.want, got)
		})
	}
}

func TestDeleteMetadata(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "present",
			in:   withAppinfo,
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation><xs:appinfo/></xs:annotation></xs:element></xs:schema>`,
		},
		{
			name: "absent",
			in:   `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation><xs:appinfo></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation><xs:appinfo/></xs:annotation></xs:element></xs:schema>`,
		},
		{
			name: "absent from two appinfo",
			in: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo></xs:appinfo><xs:appinfo></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation><xs:appinfo/><xs:appinfo/></xs:annotation></xs:element></xs:schema>`,
		},
		{
			name: "present in first of two appinfo",
			in: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo><attribute>old</attribute></xs:appinfo><xs:appinfo></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation><xs:appinfo/><xs:appinfo/></xs:annotation></xs:element></xs:schema>`,
		},
		{
			name: "present in second of two appinfo",
			in: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
				<xs:appinfo></xs:appinfo><xs:appinfo><attribute>old</attribute></xs:appinfo></xs:annotation></xs:element></xs:schema>`,
			want: `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation><xs:appinfo/><xs:appinfo/></xs:annotation></xs:element></xs:schema>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeleteMetadata(tc.in, "xs:element", "attribute")
			require.NoError(t, err)
			assertSameDoc(t, tc.want, got)
		})
	}
}

const ambiguous = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="root"><xs:annotation>
	<xs:appinfo><attribute>old</attribute></xs:appinfo>
	<xs:appinfo><attribute>old</attribute></xs:appinfo>
</xs:annotation></xs:element></xs:schema>`

func TestEditor_Errors(t *testing.T) {
	plain := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><root><test></test></root></xs:schema>`

	_, err := AddMetadata("invalid", "", "", "")
	assert.True(t, xsderr.IsParse(err), "got %v", err)
	_, err = DeleteMetadata("invalid", "", "")
	assert.True(t, xsderr.IsParse(err), "got %v", err)

	_, err = AddMetadata(plain, "invalid", "attribute", "value")
	assert.True(t, xsderr.IsLocator(err), "got %v", err)
	assert.Equal(t, xsderr.RuleNoMatch, xsderr.RuleID(err))

	_, err = DeleteMetadata(plain, "invalid", "attribute")
	assert.True(t, xsderr.IsLocator(err), "got %v", err)

	for _, loc := range []string{"..", "../.."} {
		_, err = AddMetadata(plain, loc, "attribute", "value")
		assert.True(t, xsderr.IsLocator(err), "locator %q: got %v", loc, err)
		assert.Equal(t, xsderr.RuleNoMatch, xsderr.RuleID(err), "locator %q", loc)
		_, err = DeleteMetadata(plain, loc, "attribute")
		assert.True(t, xsderr.IsLocator(err), "locator %q: got %v", loc, err)
	}

	_, err = AddMetadata(plain, "", "attribute", "value")
	assert.True(t, xsderr.IsLocator(err), "got %v", err)
	assert.Equal(t, xsderr.RuleInvalidPath, xsderr.RuleID(err))

	_, err = AddMetadata(ambiguous, "xs:element", "attribute", "new")
	assert.True(t, xsderr.IsAmbiguousMetadata(err), "got %v", err)
	_, err = DeleteMetadata(ambiguous, "xs:element", "attribute")
	assert.True(t, xsderr.IsAmbiguousMetadata(err), "got %v", err)

	for _, key := range []string{"", "1st", "a:b", "has space"} {
		_, err = AddMetadata(plain, "root", key, "v")
		assert.True(t, xsderr.IsKind(err, xsderr.KindInvalidKey), "key %q: got %v", key, err)
	}
}

func TestAddMetadata_AllOrNothing(t *testing.T) {
	in := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
		<xs:element name="a"/>
		<xs:element name="b"><xs:annotation>
			<xs:appinfo><k>1</k></xs:appinfo><xs:appinfo><k>2</k></xs:appinfo>
		</xs:annotation></xs:element>
	</xs:schema>`
	out, err := AddMetadata(in, "xs:element", "k", "v")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestAddMetadata_EveryMatch(t *testing.T) {
	in := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"/><xs:element name="b"/></xs:schema>`
	out, err := AddMetadata(in, "xs:element", "owner", "team")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "<owner>team</owner>"))

	out, err = AddMetadata(in, "xs:element[@name='b']", "owner", "team")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "<owner>team</owner>"))
}

func TestAddMetadata_AnnotationIsFirstChild(t *testing.T) {
	in := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:complexType name="T"><xs:sequence/></xs:complexType></xs:schema>`
	out, err := AddMetadata(in, "xs:complexType", "k", "v")
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	ct := doc.Root().SelectElement("xs:complexType")
	require.NotNil(t, ct)
	kids := ct.ChildElements()
	require.Len(t, kids, 2)
	assert.Equal(t, "annotation", kids[0].Tag)
	assert.Equal(t, "sequence", kids[1].Tag)
}

func TestAddMetadata_Prefixes(t *testing.T) {
	t.Run("default namespace", func(t *testing.T) {
		in := `<schema xmlns="http://www.w3.org/2001/XMLSchema"><element name="a"/></schema>`
		out, err := AddMetadata(in, "element", "k", "v")
		require.NoError(t, err)
		assert.Contains(t, out, "<annotation><appinfo><k>v</k></appinfo></annotation>")
	})
	t.Run("other prefix", func(t *testing.T) {
		in := `<xsd:schema xmlns:xsd="http://www.w3.org/2001/XMLSchema"><xsd:element name="a"/></xsd:schema>`
		out, err := AddMetadata(in, "xsd:element", "k", "v")
		require.NoError(t, err)
		assert.Contains(t, out, "<xsd:annotation><xsd:appinfo><k>v</k></xsd:appinfo></xsd:annotation>")
	})
	t.Run("inherited binding", func(t *testing.T) {
		in := `<r xmlns:x="http://www.w3.org/2001/XMLSchema"><a><annotation/><x:annotation><x:appinfo><k>1</k></x:appinfo></x:annotation></a></r>`
		out, err := AddMetadata(in, "a", "k", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "<annotation/><x:annotation><x:appinfo><k>2</k></x:appinfo></x:annotation>")
	})
	t.Run("undeclared", func(t *testing.T) {
		in := `<r><a/></r>`
		out, err := AddMetadata(in, "a", "k", "v")
		require.NoError(t, err)
		assert.Contains(t, out, `<xs:annotation xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:appinfo><k>v</k></xs:appinfo></xs:annotation>`)

		// The created annotation is recognized as such.
		canon, err := xsdhash.Canonical(out)
		require.NoError(t, err)
		assert.Equal(t, "<{}r><{}a></{}a></{}r>", string(canon))
	})
}

func TestEditor_PreservesFingerprint(t *testing.T) {
	in := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
		<xs:element name="root" type="T"/>
		<xs:simpleType name="T"><xs:restriction base="xs:string"><xs:enumeration value="a"/></xs:restriction></xs:simpleType>
	</xs:schema>`
	before, err := xsdhash.Fingerprint(in)
	require.NoError(t, err)

	added, err := AddMetadata(in, "xs:simpleType", "label", "Letters")
	require.NoError(t, err)
	afterAdd, err := xsdhash.Fingerprint(added)
	require.NoError(t, err)
	assert.Equal(t, before, afterAdd)

	updated, err := AddMetadata(added, "xs:simpleType", "label", "Other")
	require.NoError(t, err)
	afterUpdate, err := xsdhash.Fingerprint(updated)
	require.NoError(t, err)
	assert.Equal(t, before, afterUpdate)

	deleted, err := DeleteMetadata(updated, "xs:simpleType", "label")
	require.NoError(t, err)
	afterDelete, err := xsdhash.Fingerprint(deleted)
	require.NoError(t, err)
	assert.Equal(t, before, afterDelete)
}
