package repo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/odvcencio/giit/pkg/object"
	log "github.com/sirupsen/logrus"
)

// CommitTree stores a commit object for tree with the given parents and
// returns its id. author is "Name <email>"; the current time is appended.
func (r *Repo) CommitTree(tree object.Hash, parents []object.Hash, author, message string) (object.Hash, error) {
	if !tree.Valid() {
		return "", fmt.Errorf("commit: invalid tree id %q", tree)
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = "unknown"
	}
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	now := time.Now()
	sig := author + " " + strconv.FormatInt(now.Unix(), 10) + " " + formatTimezoneOffset(now)

	c := &object.Commit{KVLM: *object.NewKVLM()}
	c.Add("tree", []byte(tree))
	for _, p := range parents {
		c.Add("parent", []byte(p))
	}
	c.Add("author", []byte(sig))
	c.Add("committer", []byte(sig))
	c.Message = []byte(message)

	h, err := r.Store.WriteObject(c)
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}
	return h, nil
}

// Commit snapshots the worktree and advances HEAD.
//
//  1. Write the worktree as a tree
//  2. Resolve HEAD to get the parent commit (absent for the first commit)
//  3. Store the commit object
//  4. Update the branch HEAD points to, or HEAD itself when detached
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	treeHash, err := r.WriteTreeFromDir(r.RootDir)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	parent, ok, err := r.ResolveRef("HEAD")
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if ok {
		parents = append(parents, parent)
	}

	commitHash, err := r.CommitTree(treeHash, parents, author, message)
	if err != nil {
		return "", err
	}

	target, symbolic, err := r.SymbolicRef("HEAD")
	if err != nil {
		return "", fmt.Errorf("commit: read HEAD: %w", err)
	}
	if !symbolic {
		target = "HEAD"
	}
	if err := r.UpdateRef(target, commitHash); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	log.WithFields(log.Fields{"commit": commitHash, "tree": treeHash, "ref": target}).Debug("committed")
	return commitHash, nil
}
