package cidutil

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/xsdhash/digest"
)

// Sum returns a CIDv1 (raw) whose multihash is alg applied to data.
func Sum(data []byte, alg digest.Algorithm) (cid.Cid, error) {
	sum, err := digest.Sum(alg, data)
	if err != nil {
		return cid.Undef, err
	}
	return FromDigest(alg, sum)
}

// FromDigest wraps an already computed digest into a CIDv1 (raw).
func FromDigest(alg digest.Algorithm, sum []byte) (cid.Cid, error) {
	code, err := alg.Multihash()
	if err != nil {
		return cid.Undef, err
	}
	if len(sum) != alg.Size() {
		return cid.Undef, fmt.Errorf("cidutil: %s digest must be %d bytes, got %d", alg, alg.Size(), len(sum))
	}
	mh, err := multihash.Encode(sum, code)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// FromHex wraps a hex fingerprint into a CIDv1 (raw).
func FromHex(alg digest.Algorithm, fingerprint string) (cid.Cid, error) {
	if !digest.ValidHex(alg, fingerprint) {
		return cid.Undef, fmt.Errorf("cidutil: invalid %s fingerprint %q", alg, fingerprint)
	}
	sum, err := hex.DecodeString(fingerprint)
	if err != nil {
		return cid.Undef, err
	}
	return FromDigest(alg, sum)
}

// Digest extracts the algorithm and raw digest carried by id.
func Digest(id cid.Cid) (digest.Algorithm, []byte, error) {
	if !id.Defined() {
		return "", nil, fmt.Errorf("cidutil: undefined cid")
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return "", nil, err
	}
	alg, err := digest.FromMultihash(dec.Code)
	if err != nil {
		return "", nil, err
	}
	return alg, dec.Digest, nil
}

// Verify re-derives the digest of data with id's own hash function and
// reports whether it matches.
func Verify(id cid.Cid, data []byte) (bool, error) {
	alg, want, err := Digest(id)
	if err != nil {
		return false, err
	}
	got, err := digest.Sum(alg, data)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}
