package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/giit/pkg/repo"
	"github.com/spf13/cobra"
)

func newShowRefCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-ref",
		Short: "List refs and the ids they resolve to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}
			nodes, err := r.ListRefs("refs")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ref := range repo.FlattenRefs("refs", nodes) {
				if ref.Hash == "" {
					continue
				}
				fmt.Fprintf(out, "%s %s\n", ref.Hash, ref.Name)
			}
			return nil
		},
	}
}

func newBranchCmd(a *app) *cobra.Command {
	var deleteBranch string

	cmd := &cobra.Command{
		Use:   "branch [name] [start]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			if strings.TrimSpace(deleteBranch) != "" {
				if len(args) > 0 {
					return fmt.Errorf("branch --delete does not accept positional args")
				}
				return r.DeleteBranch(deleteBranch)
			}

			if len(args) == 0 {
				current, err := r.CurrentBranch()
				if err != nil {
					return err
				}
				branches, err := r.ListBranches()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, b := range branches {
					marker := "  "
					if b.Name == current {
						marker = "* "
					}
					fmt.Fprintln(out, marker+b.Name)
				}
				return nil
			}

			start := "HEAD"
			if len(args) == 2 {
				start = args[1]
			}
			_, err = r.CreateBranch(args[0], start)
			return err
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	return cmd
}

func newTagCmd(a *app) *cobra.Command {
	var deleteTag string
	var force bool
	var annotate bool
	var message string

	cmd := &cobra.Command{
		Use:   "tag [name] [object]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.openRepo()
			if err != nil {
				return err
			}

			if strings.TrimSpace(deleteTag) != "" {
				if len(args) > 0 {
					return fmt.Errorf("tag --delete does not accept positional args")
				}
				return r.DeleteTag(deleteTag)
			}

			if len(args) == 0 {
				tags, err := r.ListTags()
				if err != nil {
					return err
				}
				for _, t := range tags {
					fmt.Fprintln(cmd.OutOrStdout(), t.Name)
				}
				return nil
			}

			name := args[0]
			target := "HEAD"
			if len(args) == 2 {
				target = args[1]
			}

			if annotate || message != "" {
				_, err = r.CreateAnnotatedTag(name, target, a.identity(r), message, force)
				return err
			}
			_, err = r.CreateTag(name, target, force)
			return err
		},
	}

	cmd.Flags().StringVarP(&deleteTag, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")
	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "annotated tag message (implies -a)")
	return cmd
}
