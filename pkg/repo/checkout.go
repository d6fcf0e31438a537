package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/giit/pkg/object"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Checkout resolves rev to a tree (peeling commits and tags) and
// materializes it into target. See CheckoutTree.
func (r *Repo) Checkout(rev, target string) error {
	treeHash, err := r.ResolveName(rev, object.TypeTree)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return r.CheckoutTree(treeHash, target)
}

// CheckoutTree writes the tree treeHash into the directory target.
//
// Algorithm:
//  1. Refuse a target that exists and is not an empty directory; create it
//     if absent.
//  2. For each tree level, reject every entry whose name is not a single
//     safe path segment, or whose mode is unknown, before touching the
//     filesystem.
//  3. Subtrees become directories, regular blobs become files with the
//     mode's permission bits, symlink blobs become symlinks to the blob
//     content, and gitlinks are skipped.
//
// Files are created exclusively, so a tree that names the same path twice
// fails instead of overwriting or writing through an earlier entry.
func (r *Repo) CheckoutTree(treeHash object.Hash, target string) error {
	if err := prepareCheckoutTarget(target); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.materializeTree(treeHash, target); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	return nil
}

func prepareCheckoutTarget(target string) error {
	info, err := os.Stat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("create %q: %w", target, err)
		}
		return nil
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%q is not a directory", target)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %q", ErrNonEmptyCheckoutTarget, target)
	}
	return nil
}

// checkEntryName accepts only a single, non-special path segment.
func checkEntryName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case strings.ContainsAny(name, "/\\\x00"):
	case strings.ContainsRune(name, os.PathSeparator):
	case strings.EqualFold(name, DirName):
	default:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrPathTraversal, name)
}

func (r *Repo) materializeTree(treeHash object.Hash, dir string) error {
	tree, err := r.Store.ReadTree(treeHash)
	if err != nil {
		return err
	}
	kinds := make([]object.ObjectType, len(tree.Entries))
	for i, e := range tree.Entries {
		if err := checkEntryName(e.Name); err != nil {
			return fmt.Errorf("tree %s: %w", treeHash, err)
		}
		kind, err := e.Kind()
		if err != nil {
			return fmt.Errorf("tree %s entry %q: %w", treeHash, e.Name, err)
		}
		kinds[i] = kind
	}

	for i, e := range tree.Entries {
		dest := filepath.Join(dir, e.Name)
		kind := kinds[i]

		switch {
		case kind == object.TypeCommit:
			log.WithFields(log.Fields{"path": dest, "commit": e.Hash}).Debug("skipping gitlink")
		case kind == object.TypeTree:
			if err := os.Mkdir(dest, 0o755); err != nil {
				return fmt.Errorf("mkdir %q: %w", dest, err)
			}
			if err := r.materializeTree(e.Hash, dest); err != nil {
				return err
			}
		case e.IsSymlink():
			blob, err := r.Store.ReadBlob(e.Hash)
			if err != nil {
				return fmt.Errorf("read link for %q: %w", dest, err)
			}
			if err := os.Symlink(string(blob.Data), dest); err != nil {
				return fmt.Errorf("symlink %q: %w", dest, err)
			}
		default:
			blob, err := r.Store.ReadBlob(e.Hash)
			if err != nil {
				return fmt.Errorf("read blob for %q: %w", dest, err)
			}
			if err := writeNewFile(dest, blob.Data, filePermFromMode(e.Mode)); err != nil {
				return fmt.Errorf("write %q: %w", dest, err)
			}
		}
	}
	return nil
}

func writeNewFile(path string, data []byte, perm os.FileMode) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	_, err = f.Write(data)
	return err
}
