package grpccas

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/storage/casregistry"
)

var (
	flagTarget      string
	flagTimeout     time.Duration
	flagMaxMsgBytes int
	flagAlg         string
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "gRPC CAS client (talks to the CAS service of `xsdhash serve`)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagTarget, "grpc-target", "", "gRPC target host:port (for --backend=grpc)")
			fs.DurationVar(&flagTimeout, "grpc-timeout", 0, "Per-RPC timeout (for --backend=grpc)")
			fs.IntVar(&flagMaxMsgBytes, "grpc-max-msg-bytes", 0, "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults")
			fs.StringVar(&flagAlg, "grpc-alg", string(digest.Default), "Digest algorithm of the remote store")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagTarget, flagTimeout, flagMaxMsgBytes, flagAlg)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			var timeout time.Duration
			if v := cfg["grpc-timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpc-timeout: %w", err)
				}
				timeout = d
			}
			var maxMsg int
			if v := cfg["grpc-max-msg-bytes"]; v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpc-max-msg-bytes: %w", err)
				}
				maxMsg = n
			}
			return open(cfg["grpc-target"], timeout, maxMsg, cfg["grpc-alg"])
		},
	})
}

func open(target string, timeout time.Duration, maxMsg int, algName string) (storage.CAS, func() error, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil, fmt.Errorf("missing grpc-target")
	}
	alg, err := digest.ParseAlgorithm(algName)
	if err != nil {
		return nil, nil, err
	}
	client, err := Dial(target, DialOptions{MaxMsgBytes: maxMsg, Algorithm: alg})
	if err != nil {
		return nil, nil, err
	}
	client.Timeout = timeout
	return client, client.Close, nil
}
