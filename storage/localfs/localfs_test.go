package localfs

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/xsdhash/cidutil"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	for _, alg := range []digest.Algorithm{digest.SHA1, digest.SHA3256} {
		t.Run(string(alg), func(t *testing.T) {
			testkit.RunCASConformance(t, alg, func(t *testing.T) storage.CAS {
				t.Helper()
				cas, err := New(t.TempDir(), alg)
				if err != nil {
					t.Fatalf("New failed: %v", err)
				}
				return cas
			})
		})
	}
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	ctx := context.Background()
	cas, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orig := []byte("original")
	id, err := cas.Put(ctx, orig)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the stored object out-of-band.
	path := cas.pathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err = cas.Get(ctx, id)
	if !errors.Is(err, storage.ErrCIDMismatch) {
		t.Fatalf("Get mismatch: got %v want %v", err, storage.ErrCIDMismatch)
	}

	// Put must not repair or overwrite the corrupted object.
	_, err = cas.Put(ctx, orig)
	if !errors.Is(err, storage.ErrImmutable) {
		t.Fatalf("Put after corruption: got %v want %v", err, storage.ErrImmutable)
	}

	wantID, err := cidutil.Sum(orig, digest.SHA1)
	if err != nil {
		t.Fatalf("cidutil.Sum failed: %v", err)
	}
	if !id.Equals(wantID) {
		t.Fatalf("unexpected CID: got %s want %s", id, wantID)
	}
}

func TestLocalFS_Walk(t *testing.T) {
	ctx := context.Background()
	cas, err := New(t.TempDir(), digest.SHA1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	want := map[string]bool{}
	for _, s := range []string{"a", "b", "c"} {
		id, err := cas.Put(ctx, []byte(s))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		want[id.String()] = true
	}

	got := map[string]bool{}
	if err := cas.Walk(ctx, func(id cid.Cid) error {
		got[id.String()] = true
		return nil
	}); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Walk saw %d objects, want %d", len(got), len(want))
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("Walk missed %s", k)
		}
	}
}

func TestLocalFS_RejectsUnknownAlgorithm(t *testing.T) {
	if _, err := New(t.TempDir(), digest.Algorithm("md5")); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
}
