package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"xdao.co/xsdhash/registry"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/storage/bundle"
	"xdao.co/xsdhash/storage/casconfig"
	"xdao.co/xsdhash/storage/casregistry"
	"xdao.co/xsdhash/storage/localfs"
)

type storeFlags struct {
	backend       string
	storageConfig string
	alg           string
	listBackends  bool
}

// storeSession is an opened CAS plus the registry over it.
type storeSession struct {
	cas   storage.CAS
	reg   *registry.Registry
	close func() error
}

func (s storeSession) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func newStoreCmd(a *app) *cobra.Command {
	var f storeFlags
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Register and fetch canonical schemas in a content-addressed store",
		Long: `store writes canonical schemas to a CAS backend keyed by fingerprint.

The backend comes from --backend and its flags, from --storage-config, or from
the storage section of --config (in that order).`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.listBackends {
				printBackends(a.out, casregistry.UsageCLI)
				return nil
			}
			_ = cmd.Help()
			return usageErrorf("missing store subcommand")
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.backend, "backend", "", "CAS backend name (see 'xsdhash backends')")
	pf.StringVar(&f.storageConfig, "storage-config", "", "YAML file describing one or more backends")
	pf.StringVar(&f.alg, "alg", "", "Digest algorithm the store addresses objects with (default from config, sha1)")
	cmd.Flags().BoolVar(&f.listBackends, "list-backends", false, "List supported backends and exit")

	addBackendFlags(pf, "store", casregistry.UsageCLI)

	cmd.AddCommand(
		newStorePutCmd(a, &f),
		newStoreGetCmd(a, &f),
		newStoreExportCmd(a, &f),
		newStoreImportCmd(a, &f),
	)
	return cmd
}

func (a *app) openStore(f *storeFlags) (storeSession, error) {
	cfg, err := a.config()
	if err != nil {
		return storeSession{}, err
	}
	alg := cfg.DigestAlgorithm()
	if f.alg != "" {
		if alg, err = a.algorithm(f.alg); err != nil {
			return storeSession{}, err
		}
	}

	var (
		cas     storage.CAS
		closeFn func() error
	)
	switch {
	case f.backend != "" && f.storageConfig == "":
		cas, closeFn, err = casregistry.Open(f.backend, casregistry.UsageCLI)
	case f.storageConfig != "":
		sc, lerr := casconfig.LoadFile(f.storageConfig)
		if lerr != nil {
			return storeSession{}, lerr
		}
		cas, closeFn, err = sc.Open(casregistry.UsageCLI, f.backend)
	default:
		cas, closeFn, err = cfg.Storage.Open(casregistry.UsageCLI, "")
	}
	if err != nil {
		return storeSession{}, err
	}
	return storeSession{
		cas:   cas,
		reg:   registry.New(cas, alg, a.logger(cfg)),
		close: closeFn,
	}, nil
}

func newStorePutCmd(a *app, f *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file|->...",
		Short: "Store the canonical form of each schema",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(f)
			if err != nil {
				return err
			}
			defer s.Close()

			var failed bool
			for _, name := range args {
				b, err := a.readInput(name)
				if err != nil {
					fmt.Fprintf(a.errOut, "%s: %v\n", name, err)
					failed = true
					continue
				}
				e, err := s.reg.Register(cmd.Context(), b)
				if err != nil {
					fmt.Fprintf(a.errOut, "%s: %v\n", name, err)
					failed = true
					continue
				}
				state := "stored"
				if e.Duplicate {
					state = "duplicate"
				}
				fmt.Fprintf(a.out, "%s  %s  %s  %s\n", e.Fingerprint, e.CID, state, name)
			}
			if failed {
				return fmt.Errorf("one or more schemas could not be stored")
			}
			return nil
		},
	}
}

func newStoreGetCmd(a *app, f *storeFlags) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "get <fingerprint>",
		Short: "Print the canonical schema stored for a fingerprint",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(f)
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := s.reg.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outPath != "" {
				return os.WriteFile(outPath, b, 0o644)
			}
			_, err = a.out.Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newStoreExportCmd(a *app, f *storeFlags) *cobra.Command {
	var (
		outPath string
		noIndex bool
	)
	cmd := &cobra.Command{
		Use:   "export [fingerprint...]",
		Short: "Write stored schemas to a TAR bundle",
		Long: `export writes the named schemas, or every stored schema when the backend
is localfs and no fingerprint is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(f)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, labels, err := exportSet(cmd, s, args)
			if err != nil {
				return err
			}

			var w io.Writer = a.out
			if outPath != "" {
				file, err := os.Create(filepath.Clean(outPath))
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			return bundle.Export(cmd.Context(), w, s.cas, ids, bundle.ExportOptions{
				Labels:       labels,
				IncludeIndex: !noIndex,
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Bundle file (default stdout)")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Omit index.json")
	return cmd
}

func exportSet(cmd *cobra.Command, s storeSession, fingerprints []string) ([]cid.Cid, map[string]cid.Cid, error) {
	if len(fingerprints) > 0 {
		ids := make([]cid.Cid, 0, len(fingerprints))
		labels := make(map[string]cid.Cid, len(fingerprints))
		for _, fp := range fingerprints {
			id, err := s.reg.CID(fp)
			if err != nil {
				return nil, nil, usageErrorf("%v", err)
			}
			ids = append(ids, id)
			labels[fp] = id
		}
		return ids, labels, nil
	}
	walker, ok := s.cas.(*localfs.CAS)
	if !ok {
		return nil, nil, usageErrorf("export without fingerprints requires the localfs backend")
	}
	var ids []cid.Cid
	err := walker.Walk(cmd.Context(), func(id cid.Cid) error {
		ids = append(ids, id)
		return nil
	})
	return ids, nil, err
}

func newStoreImportCmd(a *app, f *storeFlags) *cobra.Command {
	var ignoreUnknown bool
	cmd := &cobra.Command{
		Use:   "import <bundle|->",
		Short: "Load schemas from a TAR bundle into the store",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(f)
			if err != nil {
				return err
			}
			defer s.Close()

			var r io.Reader = a.in
			if args[0] != "-" {
				file, err := os.Open(filepath.Clean(args[0]))
				if err != nil {
					return err
				}
				defer file.Close()
				r = file
			}
			ids, err := bundle.Import(cmd.Context(), r, s.cas, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
			for _, id := range ids {
				fmt.Fprintln(a.out, id.String())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip entries outside schemas/")
	return cmd
}

func printBackends(w io.Writer, usage casregistry.Usage) {
	for _, b := range casregistry.List(usage) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(w, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.Description)
	}
}

func newBackendsCmd(a *app) *cobra.Command {
	var daemon bool
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List linked CAS backends",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			usage := casregistry.UsageCLI
			if daemon {
				usage = casregistry.UsageDaemon
			}
			printBackends(a.out, usage)
			return nil
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "List backends available to 'serve'")
	return cmd
}
