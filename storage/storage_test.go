package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/storage/memory"
)

func TestMultiCAS_FallbackOrder(t *testing.T) {
	ctx := context.Background()
	a, b := memory.New(digest.SHA1), memory.New(digest.SHA1)
	id, err := b.Put(ctx, []byte("only in b"))
	require.NoError(t, err)

	m := storage.MultiCAS{Adapters: []storage.CAS{a, b}}
	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "only in b", string(got))

	ok, err := m.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	id2, err := m.Put(ctx, []byte("new"))
	require.NoError(t, err)
	ok, _ = a.Has(ctx, id2)
	assert.True(t, ok)
	ok, _ = b.Has(ctx, id2)
	assert.False(t, ok)

	_, err = storage.MultiCAS{}.Put(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrNoBackends)
}

func TestMultiCAS_NotFound(t *testing.T) {
	ctx := context.Background()
	other := memory.New(digest.SHA1)
	id, err := other.Put(ctx, []byte("x"))
	require.NoError(t, err)

	m := storage.MultiCAS{Adapters: []storage.CAS{memory.New(digest.SHA1)}}
	_, err = m.Get(ctx, id)
	assert.True(t, storage.IsNotFound(err))
}

func TestReplicatingCAS_WritesEverywhere(t *testing.T) {
	ctx := context.Background()
	a, b := memory.New(digest.SHA256), memory.New(digest.SHA256)
	r := storage.ReplicatingCAS{
		Backends:  []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}},
		Algorithm: digest.SHA256,
	}
	id, per, err := r.PutAll(ctx, []byte("payload"))
	require.NoError(t, err)
	assert.Len(t, per, 2)
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestReplicatingCAS_DetectsAlgorithmSkew(t *testing.T) {
	r := storage.ReplicatingCAS{
		Backends:  []storage.NamedCAS{{Name: "skewed", CAS: memory.New(digest.SHA256)}},
		Algorithm: digest.SHA1,
	}
	_, per, err := r.PutAll(context.Background(), []byte("payload"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrCIDMismatch))
	assert.Contains(t, per, "skewed")
}
