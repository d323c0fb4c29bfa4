// Package memory is an in-process CAS. Objects live as long as the process.
package memory

import (
	"bytes"
	"context"
	"flag"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/xsdhash/cidutil"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/storage/casregistry"
)

// CAS keeps objects in a map keyed by CID string.
type CAS struct {
	alg digest.Algorithm

	mu   sync.RWMutex
	objs map[string][]byte
}

var _ storage.CAS = (*CAS)(nil)

// New returns an empty CAS. An empty alg selects digest.Default.
func New(alg digest.Algorithm) *CAS {
	if alg == "" {
		alg = digest.Default
	}
	return &CAS{alg: alg, objs: map[string][]byte{}}
}

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data, c.alg)
	if err != nil {
		return cid.Undef, err
	}
	key := id.KeyString()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.objs[key]; ok {
		if !bytes.Equal(existing, data) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}
	c.objs[key] = bytes.Clone(data)
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	c.mu.RLock()
	b, ok := c.objs[id.KeyString()]
	c.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(b), nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !id.Defined() {
		return false, nil
	}
	c.mu.RLock()
	_, ok := c.objs[id.KeyString()]
	c.mu.RUnlock()
	return ok, nil
}

// Len returns the number of stored objects.
func (c *CAS) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.objs)
}

var flagMemoryAlg string

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "memory",
		Description: "In-process CAS (lost on exit)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagMemoryAlg, "memory-alg", string(digest.Default), "Memory CAS CID digest algorithm")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagMemoryAlg)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			return open(cfg["memory-alg"])
		},
	})
}

func open(algName string) (storage.CAS, func() error, error) {
	alg, err := digest.ParseAlgorithm(algName)
	if err != nil {
		return nil, nil, err
	}
	return New(alg), nil, nil
}
