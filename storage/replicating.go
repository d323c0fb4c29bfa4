package storage

import (
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/xsdhash/cidutil"
	"xdao.co/xsdhash/digest"
)

// NamedCAS associates a CAS with a stable backend name.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require every
// returned CID to match the one derived locally with Algorithm (otherwise
// ErrCIDMismatch is returned).
type ReplicatingCAS struct {
	Backends  []NamedCAS
	Algorithm digest.Algorithm
}

var _ CAS = ReplicatingCAS{}

// PutAll writes the same bytes to all backends.
//
// It returns the CID computed from data and a map of backend name to the CID
// that backend reported.
func (r ReplicatingCAS) PutAll(ctx context.Context, data []byte) (cid.Cid, map[string]cid.Cid, error) {
	alg := r.Algorithm
	if alg == "" {
		alg = digest.Default
	}
	want, err := cidutil.Sum(data, alg)
	if err != nil {
		return cid.Undef, nil, err
	}
	if len(r.Backends) == 0 {
		return cid.Undef, nil, ErrNoBackends
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, b := range r.Backends {
		if b.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(ctx, data)
		if err != nil {
			return cid.Undef, nil, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if !got.Equals(want) {
			return cid.Undef, out, fmt.Errorf("backend %q returned %s, want %s: %w", b.Name, got, want, ErrCIDMismatch)
		}
	}
	return want, out, nil
}

func (r ReplicatingCAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(ctx, data)
	return id, err
}

func (r ReplicatingCAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	for _, b := range r.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(ctx, id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingCAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	for _, b := range r.Backends {
		if b.CAS == nil {
			continue
		}
		ok, err := b.CAS.Has(ctx, id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
