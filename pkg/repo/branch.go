package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/giit/pkg/object"
)

const headsPrefix = "refs/heads/"

// CreateBranch resolves rev and points refs/heads/<name> at the result.
// Returns an error if the branch already exists.
func (r *Repo) CreateBranch(name, rev string) (object.Hash, error) {
	refName := headsPrefix + name
	if err := validateRefName(refName); err != nil {
		return "", fmt.Errorf("create branch: %w", err)
	}
	target, err := r.ResolveName(rev, object.TypeCommit)
	if err != nil {
		return "", fmt.Errorf("create branch: %w", err)
	}
	if _, exists, err := r.readRefFile(refName); err != nil {
		return "", fmt.Errorf("create branch %q: %w", name, err)
	} else if exists {
		return "", fmt.Errorf("create branch: branch %q already exists", name)
	}
	if err := r.UpdateRef(refName, target); err != nil {
		return "", fmt.Errorf("create branch %q: %w", name, err)
	}
	return target, nil
}

// DeleteBranch removes refs/heads/<name>. The current branch cannot be
// deleted.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}
	if err := r.DeleteRef(headsPrefix + name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// ListBranches returns the refs under refs/heads in sorted order, with
// names relative to refs/heads.
func (r *Repo) ListBranches() ([]Ref, error) {
	nodes, err := r.ListRefs("refs/heads")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return FlattenRefs("", nodes), nil
}

// CurrentBranch returns the branch HEAD points to (e.g. "master"), or ""
// when HEAD is detached.
func (r *Repo) CurrentBranch() (string, error) {
	target, ok, err := r.SymbolicRef("HEAD")
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimPrefix(target, headsPrefix), nil
}
