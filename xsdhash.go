// Package xsdhash computes content fingerprints of XML Schema documents.
//
// A fingerprint is the digest of a schema's canonical form: two documents
// that differ only in formatting, comments, annotations, attribute order or
// sibling order share a fingerprint, while any change to names, namespace
// URIs, attribute values or character data yields a different one.
//
// All functions are stateless and safe for concurrent use.
package xsdhash

import (
	"context"
	"encoding/hex"
	"fmt"
	"runtime"

	"github.com/ipfs/go-cid"
	"golang.org/x/sync/errgroup"

	"xdao.co/xsdhash/canonical"
	"xdao.co/xsdhash/cidutil"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/xsdtree"
)

// Options tunes the pipeline. The zero value selects sha1.
type Options struct {
	Algorithm digest.Algorithm
}

func (o Options) algorithm() digest.Algorithm {
	if o.Algorithm == "" {
		return digest.Default
	}
	return o.Algorithm
}

// Fingerprint returns the 40-character lowercase sha1 fingerprint of text.
// It fails with an xsderr parse error when text is not well-formed XML.
func Fingerprint(text string) (string, error) {
	return FingerprintWith(text, Options{})
}

// FingerprintBytes is Fingerprint for raw document bytes.
func FingerprintBytes(data []byte) (string, error) {
	return fingerprintBytes(data, Options{})
}

// FingerprintBytesWith is FingerprintWith for raw document bytes.
func FingerprintBytesWith(data []byte, opts Options) (string, error) {
	return fingerprintBytes(data, opts)
}

// FingerprintWith is Fingerprint with a configurable digest.
func FingerprintWith(text string, opts Options) (string, error) {
	return fingerprintBytes([]byte(text), opts)
}

func fingerprintBytes(data []byte, opts Options) (string, error) {
	sum, err := sumBytes(data, opts)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}

func sumBytes(data []byte, opts Options) ([]byte, error) {
	form, err := canonicalForm(data)
	if err != nil {
		return nil, err
	}
	return digest.Sum(opts.algorithm(), form.Bytes())
}

func canonicalForm(data []byte) (*canonical.Form, error) {
	doc, err := xsdtree.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return canonical.Canonicalize(doc), nil
}

// Canonical returns the canonical encoding of text, the exact bytes that are
// digested to form the fingerprint.
func Canonical(text string) ([]byte, error) {
	return CanonicalBytes([]byte(text))
}

// CanonicalBytes is Canonical for raw document bytes.
func CanonicalBytes(data []byte) ([]byte, error) {
	form, err := canonicalForm(data)
	if err != nil {
		return nil, err
	}
	return form.Bytes(), nil
}

// CID returns a CIDv1 (raw codec) whose multihash digest is the fingerprint
// of text.
func CID(text string, opts Options) (cid.Cid, error) {
	sum, err := sumBytes([]byte(text), opts)
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.FromDigest(opts.algorithm(), sum)
}

// FingerprintToCID converts a hex fingerprint into the matching CID.
func FingerprintToCID(fingerprint string, opts Options) (cid.Cid, error) {
	return cidutil.FromHex(opts.algorithm(), fingerprint)
}

// CIDToFingerprint extracts the hex fingerprint and its algorithm from id.
func CIDToFingerprint(id cid.Cid) (string, digest.Algorithm, error) {
	alg, sum, err := cidutil.Digest(id)
	if err != nil {
		return "", "", err
	}
	return hex.EncodeToString(sum), alg, nil
}

// Equivalent reports whether a and b have the same canonical form.
func Equivalent(a, b string) (bool, error) {
	ca, err := Canonical(a)
	if err != nil {
		return false, fmt.Errorf("first document: %w", err)
	}
	cb, err := Canonical(b)
	if err != nil {
		return false, fmt.Errorf("second document: %w", err)
	}
	return string(ca) == string(cb), nil
}

// Input is one document submitted to Batch.
type Input struct {
	Name string
	Data []byte
}

// Result is the outcome for the Input at the same index.
type Result struct {
	Name        string
	Fingerprint string
	Err         error
}

// Batch fingerprints inputs concurrently with at most workers goroutines
// (GOMAXPROCS when workers <= 0). Per-input failures are reported in the
// matching Result; the returned error is non-nil only when ctx is done.
func Batch(ctx context.Context, inputs []Input, opts Options, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		i, in := i, in
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := fingerprintBytes(in.Data, opts)
			results[i] = Result{Name: in.Name, Fingerprint: fp, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
