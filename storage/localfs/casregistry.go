package localfs

import (
	"flag"
	"fmt"

	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/storage/casregistry"
)

var (
	flagLocalDir string
	flagLocalAlg string
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem CAS (directory)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagLocalDir, "localfs-dir", "", "LocalFS CAS directory (for --backend=localfs)")
			fs.StringVar(&flagLocalAlg, "localfs-alg", string(digest.Default), "LocalFS CID digest algorithm")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagLocalDir, flagLocalAlg)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			return open(cfg["localfs-dir"], cfg["localfs-alg"])
		},
	})
}

func open(dir, algName string) (storage.CAS, func() error, error) {
	if dir == "" {
		return nil, nil, fmt.Errorf("missing localfs-dir")
	}
	alg, err := digest.ParseAlgorithm(algName)
	if err != nil {
		return nil, nil, err
	}
	cas, err := New(dir, alg)
	if err != nil {
		return nil, nil, err
	}
	return cas, nil, nil
}
