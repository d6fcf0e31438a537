package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const version = "giit 0.1.0-dev"

// commandTable lists every subcommand constructor, in help order.
var commandTable = []func(*app) *cobra.Command{
	newInitCmd,
	newHashObjectCmd,
	newCatFileCmd,
	newLsTreeCmd,
	newWriteTreeCmd,
	newCommitCmd,
	newCheckoutCmd,
	newShowRefCmd,
	newBranchCmd,
	newTagCmd,
	newRevParseCmd,
	newLogCmd,
	newVerifyCmd,
	newVersionCmd,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run builds a fresh command tree and executes args against it, returning
// the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stderr)
	root := newRootCmd(a, commandTable)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, "giit:", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app, table []func(*app) *cobra.Command) *cobra.Command {
	root := &cobra.Command{
		Use:           "giit",
		Short:         "Content-addressed object database with Git-compatible loose objects",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ~/.config/giit/config.yaml)")
	flags.StringVarP(&a.repoDir, "repo", "C", ".", "run as if started in this directory")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.String("log-level", "", "log level (panic, fatal, error, warn, info, debug, trace)")
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	for _, newCmd := range table {
		root.AddCommand(newCmd(a))
	}
	return root
}

func newVersionCmd(*app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
