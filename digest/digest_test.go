package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHex_KnownVectors(t *testing.T) {
	cases := []struct {
		alg  Algorithm
		want string
	}{
		{SHA1, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{SHA256, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{SHA3256, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
	}
	for _, tc := range cases {
		t.Run(tc.alg.String(), func(t *testing.T) {
			got, err := Hex(tc.alg, []byte("abc"))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got, tc.alg.HexLen())
			assert.True(t, ValidHex(tc.alg, got))
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, SHA1, a)

	a, err = ParseAlgorithm("SHA-256")
	require.NoError(t, err)
	assert.Equal(t, SHA256, a)

	_, err = ParseAlgorithm("md5")
	assert.Error(t, err)
}

func TestMultihashRoundTrip(t *testing.T) {
	for _, a := range Algorithms() {
		code, err := a.Multihash()
		require.NoError(t, err)
		back, err := FromMultihash(code)
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
	_, err := FromMultihash(0xdead)
	assert.Error(t, err)
}

func TestValidHex(t *testing.T) {
	assert.False(t, ValidHex(SHA1, "A9993E364706816ABA3E25717850C26C9CD0D89D"))
	assert.False(t, ValidHex(SHA1, "abc"))
	assert.False(t, ValidHex(Algorithm("nope"), ""))
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := Sum(Algorithm("md5"), nil)
	assert.Error(t, err)
	assert.Equal(t, 0, Algorithm("md5").Size())
}
