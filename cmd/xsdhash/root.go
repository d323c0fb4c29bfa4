package main

import (
	"flag"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"xdao.co/xsdhash/config"
	"xdao.co/xsdhash/storage/casregistry"

	_ "xdao.co/xsdhash/storage/grpccas"
	_ "xdao.co/xsdhash/storage/localfs"
	_ "xdao.co/xsdhash/storage/memory"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

// app carries the streams and global flags shared by every command.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	flags  globalFlags
}

// config loads the service configuration, applying --log-level last.
func (a *app) config() (config.Config, error) {
	var envFiles []string
	if a.flags.envFile != "" {
		envFiles = append(envFiles, a.flags.envFile)
	}
	cfg, err := config.Load(a.flags.configPath, envFiles...)
	if err != nil {
		return cfg, err
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
		if err := cfg.Validate(); err != nil {
			return cfg, usageErrorf("%v", err)
		}
	}
	return cfg, nil
}

func (a *app) logger(cfg config.Config) *slog.Logger {
	return cfg.NewLogger(a.errOut)
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "xsdhash",
		Short: "Content fingerprints for XML Schema documents",
		Long: `xsdhash computes fingerprints of XSD documents that ignore formatting,
comments, annotations and the order of attributes and sibling elements.

Exit Codes:
  0  - Success
  1  - Failure (parse error, locator error, storage error)
  2  - Usage error (invalid arguments or flags)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q", args[0])
			}
			_ = cmd.Help()
			return usageErrorf("missing command")
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&a.flags.envFile, "env-file", "", "Path to .env file (default .env)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newFingerprintCmd(a),
		newCanonicalCmd(a),
		newCIDCmd(a),
		newEqualCmd(a),
		newAppinfoCmd(a),
		newStoreCmd(a),
		newServeCmd(a),
		newBackendsCmd(a),
		newVersionCmd(a),
	)
	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErrorf("%s requires at least %d arg(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// addBackendFlags registers the flags of every backend linked for usage.
// Backends declare them on a stdlib FlagSet; pflag adopts them unchanged.
func addBackendFlags(fs *pflag.FlagSet, name string, usage casregistry.Usage) {
	gfs := flag.NewFlagSet(name, flag.ContinueOnError)
	casregistry.RegisterFlags(gfs, usage)
	fs.AddGoFlagSet(gfs)
}
