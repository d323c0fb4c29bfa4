package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xdao.co/xsdhash/appinfo"
)

type appinfoFlags struct {
	locator string
	key     string
	value   string
	write   bool
}

func newAppinfoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appinfo",
		Short: "Edit metadata stored in xs:appinfo",
		Long: `appinfo adds or removes <key>value</key> entries inside the xs:annotation/xs:appinfo
of every element matched by --locator. Edits never change the fingerprint.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usageErrorf("missing appinfo subcommand")
		},
	}

	var add appinfoFlags
	addCmd := &cobra.Command{
		Use:   "add --locator <path> --key <name> --value <text> <file|->",
		Short: "Set a metadata key on every matched element",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editAppinfo(args[0], add, func(text string) (string, error) {
				return appinfo.AddMetadata(text, add.locator, add.key, add.value)
			})
		},
	}
	addFlags(addCmd, &add)
	addCmd.Flags().StringVar(&add.value, "value", "", "Metadata value")

	var del appinfoFlags
	deleteCmd := &cobra.Command{
		Use:     "delete --locator <path> --key <name> <file|->",
		Aliases: []string{"rm"},
		Short:   "Remove a metadata key from every matched element",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editAppinfo(args[0], del, func(text string) (string, error) {
				return appinfo.DeleteMetadata(text, del.locator, del.key)
			})
		},
	}
	addFlags(deleteCmd, &del)

	cmd.AddCommand(addCmd, deleteCmd)
	return cmd
}

func addFlags(cmd *cobra.Command, f *appinfoFlags) {
	cmd.Flags().StringVar(&f.locator, "locator", "", "Path selecting the target elements (e.g. xs:element[@name='root'])")
	cmd.Flags().StringVar(&f.key, "key", "", "Metadata key (an unprefixed XML name)")
	cmd.Flags().BoolVarP(&f.write, "write", "w", false, "Rewrite the file in place instead of printing")
	_ = cmd.MarkFlagRequired("locator")
	_ = cmd.MarkFlagRequired("key")
}

func (a *app) editAppinfo(name string, f appinfoFlags, apply func(string) (string, error)) error {
	if f.write && name == "-" {
		return usageErrorf("--write cannot be used with stdin")
	}
	b, err := a.readInput(name)
	if err != nil {
		return err
	}
	out, err := apply(string(b))
	if err != nil {
		return err
	}
	if f.write {
		info, err := os.Stat(name)
		if err != nil {
			return err
		}
		return os.WriteFile(name, []byte(out), info.Mode().Perm())
	}
	_, err = fmt.Fprint(a.out, out)
	return err
}
