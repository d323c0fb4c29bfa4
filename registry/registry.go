// Package registry stores canonical schemas in a CAS keyed by their
// fingerprint, so that equivalent uploads collapse onto one object.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ipfs/go-cid"

	"xdao.co/xsdhash"
	"xdao.co/xsdhash/cidutil"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/storage"
)

// ErrInvalidFingerprint is returned for lookups with a malformed fingerprint.
var ErrInvalidFingerprint = errors.New("registry: invalid fingerprint")

// Registry deduplicates schemas by fingerprint.
//
// The CAS must derive CIDs with the same Algorithm; Register rejects a store
// that addresses objects differently.
type Registry struct {
	CAS       storage.CAS
	Algorithm digest.Algorithm
	Logger    *slog.Logger
}

// Entry describes a registered schema.
type Entry struct {
	Fingerprint string
	Algorithm   digest.Algorithm
	CID         cid.Cid
	// Size is the length of the stored canonical encoding.
	Size int
	// Duplicate is true when an equivalent schema was already stored.
	Duplicate bool
}

// New returns a Registry over cas. A nil logger discards output.
func New(cas storage.CAS, alg digest.Algorithm, logger *slog.Logger) *Registry {
	if alg == "" {
		alg = digest.Default
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{CAS: cas, Algorithm: alg, Logger: logger}
}

func (r *Registry) alg() digest.Algorithm {
	if r.Algorithm == "" {
		return digest.Default
	}
	return r.Algorithm
}

func (r *Registry) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Register canonicalizes text and stores the canonical encoding.
func (r *Registry) Register(ctx context.Context, text []byte) (Entry, error) {
	canon, err := xsdhash.CanonicalBytes(text)
	if err != nil {
		return Entry{}, err
	}
	alg := r.alg()
	want, err := cidutil.Sum(canon, alg)
	if err != nil {
		return Entry{}, err
	}
	fp, _, err := xsdhash.CIDToFingerprint(want)
	if err != nil {
		return Entry{}, err
	}

	dup, err := r.CAS.Has(ctx, want)
	if err != nil {
		return Entry{}, fmt.Errorf("registry: has %s: %w", fp, err)
	}
	if !dup {
		got, err := r.CAS.Put(ctx, canon)
		if err != nil {
			return Entry{}, fmt.Errorf("registry: put %s: %w", fp, err)
		}
		if !got.Equals(want) {
			return Entry{}, fmt.Errorf("registry: store returned %s for %s: %w", got, fp, storage.ErrCIDMismatch)
		}
	}

	r.logger().InfoContext(ctx, "schema registered",
		slog.String("fingerprint", fp),
		slog.String("cid", want.String()),
		slog.Int("size", len(canon)),
		slog.Bool("duplicate", dup))

	return Entry{Fingerprint: fp, Algorithm: alg, CID: want, Size: len(canon), Duplicate: dup}, nil
}

// CID maps a fingerprint onto the CID the schema is stored under.
func (r *Registry) CID(fingerprint string) (cid.Cid, error) {
	id, err := cidutil.FromHex(r.alg(), fingerprint)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %q", ErrInvalidFingerprint, fingerprint)
	}
	return id, nil
}

// Lookup returns the canonical encoding stored for fingerprint.
func (r *Registry) Lookup(ctx context.Context, fingerprint string) ([]byte, error) {
	id, err := r.CID(fingerprint)
	if err != nil {
		return nil, err
	}
	b, err := r.CAS.Get(ctx, id)
	if err != nil {
		if !storage.IsNotFound(err) {
			r.logger().ErrorContext(ctx, "schema lookup failed",
				slog.String("fingerprint", fingerprint),
				slog.Any("error", err))
		}
		return nil, err
	}
	return b, nil
}

// Has reports whether a schema with fingerprint is stored.
func (r *Registry) Has(ctx context.Context, fingerprint string) (bool, error) {
	id, err := r.CID(fingerprint)
	if err != nil {
		return false, err
	}
	return r.CAS.Has(ctx, id)
}
