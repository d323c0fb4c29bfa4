package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/xsdhash/digest"
)

var fixtures = filepath.Join("..", "..", "..", "testdata")

func TestGenerate(t *testing.T) {
	vectors, err := generate(context.Background(), fixtures)
	require.NoError(t, err)

	byFile := map[string]vector{}
	for _, v := range vectors {
		assert.Empty(t, v.Error, v.File)
		assert.Len(t, v.Fingerprints, len(digest.Algorithms()), v.File)
		assert.NotEmpty(t, v.CID, v.File)
		byFile[v.File] = v
	}
	require.Contains(t, byFile, "composition.xsd")
	require.Contains(t, byFile, "composition-mixed.xsd")
	assert.Equal(t, byFile["composition.xsd"].Fingerprints, byFile["composition-mixed.xsd"].Fingerprints)
	assert.NotEqual(t, byFile["composition.xsd"].CID, byFile["composition-root-name.xsd"].CID)
}

func TestRun_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.Equal(t, 0, run([]string{"-dir", fixtures}, &a, &bytes.Buffer{}))
	require.Equal(t, 0, run([]string{"-dir", fixtures}, &b, &bytes.Buffer{}))
	assert.Equal(t, a.String(), b.String())

	var decoded []vector
	require.NoError(t, json.Unmarshal(a.Bytes(), &decoded))
	assert.NotEmpty(t, decoded)
}

func TestRun_Errors(t *testing.T) {
	var errOut bytes.Buffer
	assert.Equal(t, 1, run([]string{"-dir", t.TempDir()}, &bytes.Buffer{}, &errOut))
	assert.Equal(t, 2, run([]string{"-nope"}, &bytes.Buffer{}, &errOut))
}
