// Package bundle moves stored canonical schemas between stores as a
// deterministic TAR archive.
//
// Layout:
//
//	schemas/<cid>   canonical encoding, one entry per schema
//	index.json      optional, non-authoritative: fingerprints and labels
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/xsdhash/cidutil"
	"xdao.co/xsdhash/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

const schemaDir = "schemas/"

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional metadata mapping names (file names, registry keys) to CIDs.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
}

// Export writes a deterministic TAR bundle containing the schemas for ids.
//
// Entry order is lexicographic by CID string and TAR headers are normalized,
// so the same set of schemas always produces the same bytes. Every exported
// object is verified against its CID.
func Export(ctx context.Context, w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return errors.New("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	keys := make([]string, 0, len(uniq))
	for s := range uniq {
		keys = append(keys, s)
	}
	sort.Strings(keys)

	tw := tar.NewWriter(w)
	fail := func(err error) error {
		_ = tw.Close()
		return err
	}

	entries := make([]indexEntry, 0, len(keys))
	for _, s := range keys {
		id := uniq[s]
		b, err := cas.Get(ctx, id)
		if err != nil {
			return fail(fmt.Errorf("bundle: %s: %w", s, err))
		}
		ok, err := cidutil.Verify(id, b)
		if err != nil {
			return fail(err)
		}
		if !ok {
			return fail(storage.ErrCIDMismatch)
		}
		if err := writeFile(tw, schemaDir+s, b); err != nil {
			return fail(err)
		}
		alg, sum, err := cidutil.Digest(id)
		if err != nil {
			return fail(err)
		}
		entries = append(entries, indexEntry{
			CID:         s,
			Algorithm:   string(alg),
			Fingerprint: hex.EncodeToString(sum),
			Size:        len(b),
		})
	}

	if opts.IncludeIndex {
		idx := index{Version: FormatVersion, CIDCodec: "raw", Schemas: entries}
		names := make([]string, 0, len(opts.Labels))
		for k := range opts.Labels {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if k == "" {
				return fail(errors.New("bundle: empty label key"))
			}
			v := opts.Labels[k]
			if !v.Defined() {
				return fail(storage.ErrInvalidCID)
			}
			idx.Labels = append(idx.Labels, indexLabel{Name: k, CID: v.String()})
		}

		b, err := json.Marshal(idx)
		if err != nil {
			return fail(err)
		}
		if err := writeFile(tw, "index.json", append(b, '\n')); err != nil {
			return fail(err)
		}
	}

	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown skips unknown TAR entries instead of failing.
	IgnoreUnknown bool
}

// Import reads a bundle from r and stores every schema into cas. It returns
// the imported CIDs in archive order.
//
// Each entry's bytes must match both its file name CID and the CID cas
// assigns on Put.
func Import(ctx context.Context, r io.Reader, cas storage.CAS, opts ImportOptions) ([]cid.Cid, error) {
	if cas == nil {
		return nil, errors.New("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var out []cid.Cid

	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return out, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == "index.json" {
			continue
		}
		if !strings.HasPrefix(name, schemaDir) {
			if opts.IgnoreUnknown {
				continue
			}
			return out, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, err := cid.Decode(strings.TrimPrefix(name, schemaDir))
		if err != nil || !id.Defined() {
			return out, storage.ErrInvalidCID
		}

		payload, err := io.ReadAll(tr)
		if err != nil {
			return out, err
		}
		ok, err := cidutil.Verify(id, payload)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, storage.ErrCIDMismatch
		}

		key := id.String()
		if _, dup := seen[key]; dup {
			return out, fmt.Errorf("bundle: duplicate schema entry: %s", key)
		}
		seen[key] = struct{}{}

		putID, err := cas.Put(ctx, payload)
		if err != nil {
			return out, err
		}
		if !putID.Equals(id) {
			return out, storage.ErrCIDMismatch
		}
		out = append(out, id)
	}
}

// ReadIndex extracts index.json from a bundle. It returns ok=false when the
// bundle carries no index.
func ReadIndex(r io.Reader) (Index, bool, error) {
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return Index{}, false, nil
		}
		if err != nil {
			return Index{}, false, err
		}
		if cleanTarPath(h.Name) != "index.json" {
			continue
		}
		var idx index
		if err := json.NewDecoder(tr).Decode(&idx); err != nil {
			return Index{}, false, fmt.Errorf("bundle: index.json: %w", err)
		}
		return Index(idx), true, nil
	}
}

// Index is the decoded index.json.
type Index index

type index struct {
	Version  int          `json:"version"`
	CIDCodec string       `json:"cidCodec"`
	Schemas  []indexEntry `json:"schemas"`
	Labels   []indexLabel `json:"labels,omitempty"`
}

type indexEntry struct {
	CID         string `json:"cid"`
	Algorithm   string `json:"algorithm"`
	Fingerprint string `json:"fingerprint"`
	Size        int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
