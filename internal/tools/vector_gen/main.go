// vector_gen prints fingerprint vectors for every .xsd file in a directory,
// one JSON object per file, so fixtures can be checked against other
// implementations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"xdao.co/xsdhash"
	"xdao.co/xsdhash/digest"
)

type vector struct {
	File         string            `json:"file"`
	Fingerprints map[string]string `json:"fingerprints"`
	CID          string            `json:"cid"`
	Error        string            `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("vector_gen", flag.ContinueOnError)
	fs.SetOutput(errOut)
	dir := fs.String("dir", "testdata", "Directory holding .xsd fixtures")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	vectors, err := generate(context.Background(), *dir)
	if err != nil {
		fmt.Fprintf(errOut, "vector_gen: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(vectors); err != nil {
		fmt.Fprintf(errOut, "vector_gen: %v\n", err)
		return 1
	}
	return 0
}

func generate(ctx context.Context, dir string) ([]vector, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.xsd"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .xsd files in %s", dir)
	}
	sort.Strings(paths)

	inputs := make([]xsdhash.Input, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, xsdhash.Input{Name: filepath.Base(p), Data: b})
	}

	vectors := make([]vector, len(inputs))
	for i, in := range inputs {
		vectors[i] = vector{File: in.Name, Fingerprints: map[string]string{}}
	}
	for _, alg := range digest.Algorithms() {
		results, err := xsdhash.Batch(ctx, inputs, xsdhash.Options{Algorithm: alg}, 0)
		if err != nil {
			return nil, err
		}
		for i, r := range results {
			if r.Err != nil {
				vectors[i].Error = r.Err.Error()
				continue
			}
			vectors[i].Fingerprints[string(alg)] = r.Fingerprint
		}
	}
	for i := range vectors {
		fp, ok := vectors[i].Fingerprints[string(digest.Default)]
		if !ok {
			continue
		}
		id, err := xsdhash.FingerprintToCID(fp, xsdhash.Options{})
		if err != nil {
			return nil, err
		}
		vectors[i].CID = id.String()
	}
	return vectors, nil
}
