package xsdhash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/xsderr"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func fixtureHash(t *testing.T, name string) string {
	t.Helper()
	fp, err := Fingerprint(readFixture(t, name))
	require.NoError(t, err, name)
	return fp
}

func TestFingerprint_Shape(t *testing.T) {
	fp := fixtureHash(t, "chemical-element.xsd")
	assert.Len(t, fp, 40)
	assert.True(t, digest.ValidHex(digest.SHA1, fp))
}

func TestFingerprint_Equivalent(t *testing.T) {
	cases := []struct {
		base    string
		variant string
	}{
		{"chemical-element.xsd", "chemical-element.xsd"},
		{"chemical-element.xsd", "chemical-element-spaces-01.xsd"},
		{"chemical-element.xsd", "chemical-element-spaces-02.xsd"},
		{"chemical-element.xsd", "chemical-element-documentation.xsd"},
		{"chemical-element.xsd", "chemical-element-annot-01.xsd"},
		{"chemical-element.xsd", "chemical-element-annot-02.xsd"},
		{"composition.xsd", "composition.xsd"},
		{"composition.xsd", "composition-mixed.xsd"},
	}
	for _, tc := range cases {
		t.Run(tc.variant, func(t *testing.T) {
			assert.Equal(t, fixtureHash(t, tc.base), fixtureHash(t, tc.variant))
		})
	}
}

func TestFingerprint_Sensitive(t *testing.T) {
	cases := []struct {
		base    string
		variant string
	}{
		{"chemical-element.xsd", "chemical-element-namespace.xsd"},
		{"chemical-element.xsd", "chemical-element-enum.xsd"},
		{"composition.xsd", "composition-root-name.xsd"},
		{"composition.xsd", "composition-type-name.xsd"},
	}
	for _, tc := range cases {
		t.Run(tc.variant, func(t *testing.T) {
			assert.NotEqual(t, fixtureHash(t, tc.base), fixtureHash(t, tc.variant))
		})
	}
}

func TestFingerprint_GoldenVectors(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"res-md.xsd", "4735069b4332ee196e95b4db7877b6dcea9692ec"},
		{"ammd-r2018a.xsd", "b056869f2e87adbf6b56b0ec19e65f9761cc6826"},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join("testdata", "golden", tc.file))
			if os.IsNotExist(err) {
				t.Skipf("reference schema %s not present", tc.file)
			}
			require.NoError(t, err)
			got, err := FingerprintBytes(b)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFingerprint_Idempotent(t *testing.T) {
	text := readFixture(t, "composition-mixed.xsd")
	canon, err := Canonical(text)
	require.NoError(t, err)

	// The canonical form of a canonical tree is itself, so hashing twice
	// through the pipeline is stable.
	again, err := Canonical(text)
	require.NoError(t, err)
	assert.Equal(t, canon, again)

	fp1, err := Fingerprint(text)
	require.NoError(t, err)
	fp2, err := FingerprintBytes([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprint_ParseErrors(t *testing.T) {
	cases := []string{
		"",
		"not xml at all",
		"<xs:schema>",
		"<a><b></a></b>",
		"<p:a/>",
		"<a/><b/>",
	}
	for _, in := range cases {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			fp, err := Fingerprint(in)
			require.Error(t, err)
			assert.Empty(t, fp)
			assert.True(t, xsderr.IsParse(err), "got %v", err)
		})
	}
}

func TestFingerprintWith_Algorithms(t *testing.T) {
	text := readFixture(t, "chemical-element.xsd")
	seen := map[string]bool{}
	for _, alg := range digest.Algorithms() {
		fp, err := FingerprintWith(text, Options{Algorithm: alg})
		require.NoError(t, err)
		assert.Len(t, fp, alg.HexLen())
		assert.False(t, seen[fp])
		seen[fp] = true
	}

	_, err := FingerprintWith(text, Options{Algorithm: "md5"})
	assert.Error(t, err)
}

func TestCID_RoundTrip(t *testing.T) {
	text := readFixture(t, "composition.xsd")
	fp, err := Fingerprint(text)
	require.NoError(t, err)

	id, err := CID(text, Options{})
	require.NoError(t, err)

	back, alg, err := CIDToFingerprint(id)
	require.NoError(t, err)
	assert.Equal(t, digest.SHA1, alg)
	assert.Equal(t, fp, back)

	fromFP, err := FingerprintToCID(fp, Options{})
	require.NoError(t, err)
	assert.True(t, id.Equals(fromFP))
}

func TestEquivalent(t *testing.T) {
	ok, err := Equivalent(readFixture(t, "composition.xsd"), readFixture(t, "composition-mixed.xsd"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Equivalent(readFixture(t, "composition.xsd"), readFixture(t, "composition-root-name.xsd"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Equivalent("<a/>", "<a>")
	assert.True(t, xsderr.IsParse(err))
	assert.Contains(t, err.Error(), "second document")
}

func TestFingerprint_ConcurrentUse(t *testing.T) {
	text := readFixture(t, "composition.xsd")
	want, err := Fingerprint(text)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Fingerprint(text)
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- fmt.Errorf("got %s want %s", got, want)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestBatch(t *testing.T) {
	names := []string{"chemical-element.xsd", "composition.xsd", "composition-mixed.xsd"}
	var inputs []Input
	for _, n := range names {
		inputs = append(inputs, Input{Name: n, Data: []byte(readFixture(t, n))})
	}
	inputs = append(inputs, Input{Name: "broken", Data: []byte("<a>")})

	results, err := Batch(context.Background(), inputs, Options{}, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, n := range names {
		assert.Equal(t, n, results[i].Name)
		assert.NoError(t, results[i].Err)
		assert.Equal(t, fixtureHash(t, n), results[i].Fingerprint)
	}
	assert.Equal(t, results[1].Fingerprint, results[2].Fingerprint)
	assert.True(t, xsderr.IsParse(results[3].Err))
}

func TestBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Batch(ctx, []Input{{Name: "a", Data: []byte("<a/>")}}, Options{}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCanonical_ReadableForm(t *testing.T) {
	canon, err := Canonical(`<r b="2" a="1"><!-- c --><x/></r>`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(canon), `<{}r {}a="1" {}b="2">`))
}
