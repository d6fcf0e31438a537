package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/giit/pkg/object"
	"github.com/spf13/cobra"
)

func newLogCmd(a *app) *cobra.Command {
	var oneline bool

	cmd := &cobra.Command{
		Use:   "log [rev]",
		Short: "Show commit history as a graphviz digraph",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev := "HEAD"
			if len(args) > 0 {
				rev = args[0]
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			start, err := r.ResolveName(rev, object.TypeCommit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if oneline {
				return r.WalkCommits(start, func(h object.Hash, c *object.Commit) error {
					_, err := fmt.Fprintf(out, "%s %s\n", h.Short(), firstLine(string(c.Message)))
					return err
				})
			}

			fmt.Fprintln(out, "digraph giitlog{")
			fmt.Fprintln(out, "  node[shape=rect]")
			err = r.WalkCommits(start, func(h object.Hash, c *object.Commit) error {
				return writeLogNode(out, h, c)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "}")
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "print one line per commit instead of a graph")
	return cmd
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func writeLogNode(w io.Writer, h object.Hash, c *object.Commit) error {
	label := dotEscaper.Replace(firstLine(string(c.Message)))
	if _, err := fmt.Fprintf(w, "  c_%s [label=\"%s: %s\"]\n", h, h.Short(), label); err != nil {
		return err
	}
	for _, p := range c.Parents() {
		if _, err := fmt.Fprintf(w, "  c_%s -> c_%s;\n", h, p); err != nil {
			return err
		}
	}
	return nil
}
