package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/giit/pkg/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd(a *app) *cobra.Command {
	var write bool
	var typeName string

	cmd := &cobra.Command{
		Use:   "hash-object [-w] [-t type] <file>",
		Short: "Compute an object id, optionally storing the object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := object.ParseObjectType(typeName)
			if err != nil {
				return err
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(a.path(args[0]))
			}
			if err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			// Payloads that are not blobs must decode before they get an id.
			if _, err := object.Decode(objType, data); err != nil {
				return fmt.Errorf("hash-object: %w", err)
			}

			h := object.HashObject(objType, data)
			if write {
				r, err := a.openRepo()
				if err != nil {
					return err
				}
				if h, err = r.Store.Write(objType, data); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the object store")
	cmd.Flags().StringVarP(&typeName, "type", "t", string(object.TypeBlob), "object type (blob, tree, commit, tag)")
	return cmd
}

func newCatFileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat-file <type> <object>",
		Short: "Print the payload of an object, peeled to type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			want, err := object.ParseObjectType(args[0])
			if err != nil {
				return err
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.ResolveName(args[1], want)
			if err != nil {
				return err
			}
			_, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newLsTreeCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree [-r] <tree-ish>",
		Short: "List the contents of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			entries, err := r.LsTree(args[0], recursive)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, e.Kind, e.Hash, e.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recurse into subtrees")
	return cmd
}

func newWriteTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write-tree",
		Short: "Store the worktree as tree objects and print the root id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.WriteTreeFromDir(r.RootDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newRevParseCmd(a *app) *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "rev-parse [--type type] <name>",
		Short: "Resolve a name to a single object id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var want object.ObjectType
			if typeName != "" {
				t, err := object.ParseObjectType(typeName)
				if err != nil {
					return err
				}
				want = t
			}
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			h, err := r.ResolveName(args[0], want)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeName, "type", "", "peel the result to this object type")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify loose object integrity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			all, err := r.Store.All()
			if err != nil {
				return err
			}
			failures, err := r.Store.Verify(cmd.Context(), workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range failures {
				fmt.Fprintf(out, "bad %s: %v\n", f.Hash, f.Err)
			}
			if len(failures) > 0 {
				return fmt.Errorf("verify: %d of %d object(s) failed", len(failures), len(all))
			}
			fmt.Fprintf(out, "ok: verified %d object(s)\n", len(all))
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "jobs", "j", 0, "parallel readers (default GOMAXPROCS)")
	return cmd
}
