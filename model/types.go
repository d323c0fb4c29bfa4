package model

import (
	"xdao.co/xsdhash"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/registry"
)

// Fingerprint is the result for one input document.
type Fingerprint struct {
	Name        string      `json:"name,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	Algorithm   string      `json:"algorithm"`
	CID         string      `json:"cid,omitempty"`
	Error       *CodedError `json:"error,omitempty"`
}

// SchemaEntry describes a schema held by the registry.
type SchemaEntry struct {
	Fingerprint string `json:"fingerprint"`
	Algorithm   string `json:"algorithm"`
	CID         string `json:"cid"`
	Size        int    `json:"size"`
	Duplicate   bool   `json:"duplicate"`
}

// MetadataRequest edits appinfo metadata. Value is ignored on delete.
type MetadataRequest struct {
	Document string `json:"document"`
	Locator  string `json:"locator"`
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
}

// MetadataResponse carries the edited document. Fingerprint is that of the
// edited document, which equals the fingerprint of the input.
type MetadataResponse struct {
	Document    string `json:"document"`
	Fingerprint string `json:"fingerprint"`
}

// Equivalence compares two documents.
type Equivalence struct {
	Equivalent bool     `json:"equivalent"`
	Algorithm  string   `json:"algorithm"`
	Left       string   `json:"left"`
	Right      string   `json:"right"`
	Names      []string `json:"names,omitempty"`
}

// Health is the liveness payload.
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Algorithm string `json:"algorithm"`
}

// FromEntry projects a registry entry.
func FromEntry(e registry.Entry) SchemaEntry {
	return SchemaEntry{
		Fingerprint: e.Fingerprint,
		Algorithm:   string(e.Algorithm),
		CID:         e.CID.String(),
		Size:        e.Size,
		Duplicate:   e.Duplicate,
	}
}

// FromResult projects one Batch result.
func FromResult(r xsdhash.Result, opts xsdhash.Options) Fingerprint {
	alg := opts.Algorithm
	if alg == "" {
		alg = digest.Default
	}
	out := Fingerprint{Name: r.Name, Algorithm: string(alg)}
	if r.Err != nil {
		out.Error = FromError(r.Err)
		return out
	}
	out.Fingerprint = r.Fingerprint
	if id, err := xsdhash.FingerprintToCID(r.Fingerprint, opts); err == nil {
		out.CID = id.String()
	}
	return out
}
