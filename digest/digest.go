// Package digest hashes canonical encodings into fixed-length fingerprints.
package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a supported digest.
type Algorithm string

const (
	// SHA1 is the reference fingerprint algorithm: 160 bits, 40 hex characters.
	SHA1    Algorithm = "sha1"
	SHA256  Algorithm = "sha256"
	SHA512  Algorithm = "sha512"
	SHA3256 Algorithm = "sha3-256"
)

// Default is the algorithm used when none is configured.
const Default = SHA1

// Algorithms lists the supported algorithms in a stable order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA1, SHA256, SHA512, SHA3256}
}

// ParseAlgorithm parses a case-insensitive algorithm name. The empty string
// selects Default.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Default, nil
	case "sha1", "sha-1":
		return SHA1, nil
	case "sha256", "sha2-256", "sha-256":
		return SHA256, nil
	case "sha512", "sha2-512", "sha-512":
		return SHA512, nil
	case "sha3-256", "sha3_256":
		return SHA3256, nil
	default:
		return "", fmt.Errorf("digest: unsupported algorithm %q", s)
	}
}

func (a Algorithm) String() string { return string(a) }

// Size returns the digest length in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Size() int {
	switch a {
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	case SHA3256:
		return 32
	default:
		return 0
	}
}

// HexLen returns the length of the rendered fingerprint.
func (a Algorithm) HexLen() int { return 2 * a.Size() }

// Multihash returns the multihash code identifying the algorithm.
func (a Algorithm) Multihash() (uint64, error) {
	switch a {
	case SHA1:
		return multihash.SHA1, nil
	case SHA256:
		return multihash.SHA2_256, nil
	case SHA512:
		return multihash.SHA2_512, nil
	case SHA3256:
		return multihash.SHA3_256, nil
	default:
		return 0, fmt.Errorf("digest: unsupported algorithm %q", string(a))
	}
}

// FromMultihash maps a multihash code back to an Algorithm.
func FromMultihash(code uint64) (Algorithm, error) {
	for _, a := range Algorithms() {
		c, _ := a.Multihash()
		if c == code {
			return a, nil
		}
	}
	return "", fmt.Errorf("digest: unsupported multihash code 0x%x", code)
}

// New returns a fresh hash.Hash for a.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case SHA3256:
		return sha3.New256(), nil
	default:
		return nil, fmt.Errorf("digest: unsupported algorithm %q", string(a))
	}
}

// Sum returns the raw digest of data.
func Sum(a Algorithm, data []byte) ([]byte, error) {
	h, err := a.New()
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// Hex returns the lowercase hexadecimal digest of data.
func Hex(a Algorithm, data []byte) (string, error) {
	sum, err := Sum(a, data)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

// ValidHex reports whether s is a well-formed fingerprint for a.
func ValidHex(a Algorithm, s string) bool {
	if len(s) != a.HexLen() || len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
