package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"xdao.co/xsdhash"
	"xdao.co/xsdhash/digest"
	"xdao.co/xsdhash/model"
)

// readInput reads a named file, or stdin for "-".
func (a *app) readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(a.in)
	}
	return os.ReadFile(name)
}

// algorithm resolves --alg, falling back to the configured algorithm.
func (a *app) algorithm(flag string) (digest.Algorithm, error) {
	if flag != "" {
		alg, err := digest.ParseAlgorithm(flag)
		if err != nil {
			return "", usageErrorf("%v", err)
		}
		return alg, nil
	}
	cfg, err := a.config()
	if err != nil {
		return "", err
	}
	return cfg.DigestAlgorithm(), nil
}

func newFingerprintCmd(a *app) *cobra.Command {
	var (
		alg     string
		jobs    int
		asJSON  bool
		withCID bool
	)
	cmd := &cobra.Command{
		Use:   "fingerprint [flags] <file|->...",
		Short: "Print the fingerprint of each schema",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := a.algorithm(alg)
			if err != nil {
				return err
			}
			inputs := make([]xsdhash.Input, 0, len(args))
			var readFailed bool
			for _, name := range args {
				b, err := a.readInput(name)
				if err != nil {
					fmt.Fprintf(a.errOut, "%s: %v\n", name, err)
					readFailed = true
					continue
				}
				inputs = append(inputs, xsdhash.Input{Name: name, Data: b})
			}

			opts := xsdhash.Options{Algorithm: algorithm}
			results, err := xsdhash.Batch(cmd.Context(), inputs, opts, jobs)
			if err != nil {
				return err
			}

			failed := readFailed
			out := make([]model.Fingerprint, 0, len(results))
			for _, r := range results {
				if r.Err != nil {
					failed = true
					if !asJSON {
						fmt.Fprintf(a.errOut, "%s: %v\n", r.Name, r.Err)
					}
				}
				out = append(out, model.FromResult(r, opts))
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				for _, f := range out {
					if f.Error != nil {
						continue
					}
					if withCID {
						fmt.Fprintf(a.out, "%s  %s  %s\n", f.Fingerprint, f.CID, f.Name)
					} else {
						fmt.Fprintf(a.out, "%s  %s\n", f.Fingerprint, f.Name)
					}
				}
			}
			if failed {
				return fmt.Errorf("one or more documents could not be fingerprinted")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alg, "alg", "", "Digest algorithm: sha1, sha256, sha512, sha3-256 (default from config, sha1)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Concurrent workers (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON results")
	cmd.Flags().BoolVar(&withCID, "cid", false, "Also print the CID of each fingerprint")
	return cmd
}

func newCanonicalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "canonical <file|->",
		Short: "Print the canonical encoding that is digested",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			canon, err := xsdhash.CanonicalBytes(b)
			if err != nil {
				return err
			}
			_, err = a.out.Write(canon)
			return err
		},
	}
}

func newCIDCmd(a *app) *cobra.Command {
	var alg string
	var fromFingerprint bool
	cmd := &cobra.Command{
		Use:   "cid <file|-|fingerprint>",
		Short: "Print the CID addressing a schema's canonical form",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := a.algorithm(alg)
			if err != nil {
				return err
			}
			opts := xsdhash.Options{Algorithm: algorithm}
			if fromFingerprint {
				id, err := xsdhash.FingerprintToCID(args[0], opts)
				if err != nil {
					return usageErrorf("%v", err)
				}
				fmt.Fprintln(a.out, id.String())
				return nil
			}
			b, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			id, err := xsdhash.CID(string(b), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&alg, "alg", "", "Digest algorithm (default from config, sha1)")
	cmd.Flags().BoolVar(&fromFingerprint, "from-fingerprint", false, "Treat the argument as a hex fingerprint")
	return cmd
}

func newEqualCmd(a *app) *cobra.Command {
	var asJSON bool
	var quiet bool
	cmd := &cobra.Command{
		Use:   "equal <a> <b>",
		Short: "Report whether two schemas share a fingerprint",
		Long: `equal exits 0 when both schemas are equivalent, 1 when they differ or a
document cannot be parsed.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var docs [2][]byte
			for i, name := range args {
				b, err := a.readInput(name)
				if err != nil {
					return err
				}
				docs[i] = b
			}
			left, err := xsdhash.FingerprintBytes(docs[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			right, err := xsdhash.FingerprintBytes(docs[1])
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			res := model.Equivalence{
				Equivalent: left == right,
				Algorithm:  string(digest.Default),
				Left:       left,
				Right:      right,
				Names:      args,
			}
			switch {
			case asJSON:
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			case !quiet && res.Equivalent:
				fmt.Fprintf(a.out, "equivalent %s\n", left)
			case !quiet:
				fmt.Fprintf(a.out, "different %s %s\n", left, right)
			}
			if !res.Equivalent {
				return errDifferent
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON result")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only set the exit status")
	return cmd
}
