package repo

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/odvcencio/giit/pkg/object"
)

// LsTreeEntry is one line of a tree listing.
type LsTreeEntry struct {
	Mode string // six-digit, zero padded
	Kind object.ObjectType
	Hash object.Hash
	Path string // slash-separated, relative to the listed tree
}

// LsTree resolves rev to a tree and lists its entries in stored order. With
// recursive set, subtrees are expanded in place instead of listed.
func (r *Repo) LsTree(rev string, recursive bool) ([]LsTreeEntry, error) {
	h, err := r.ResolveName(rev, object.TypeTree)
	if err != nil {
		return nil, fmt.Errorf("ls-tree: %w", err)
	}
	var out []LsTreeEntry
	if err := r.lsTree(h, "", recursive, &out); err != nil {
		return nil, fmt.Errorf("ls-tree: %w", err)
	}
	return out, nil
}

func (r *Repo) lsTree(h object.Hash, prefix string, recursive bool, out *[]LsTreeEntry) error {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return err
	}
	for _, e := range tree.Entries {
		kind, err := e.Kind()
		if err != nil {
			return fmt.Errorf("tree %s entry %q: %w", h, e.Name, err)
		}
		p := path.Join(prefix, e.Name)
		if recursive && kind == object.TypeTree {
			if err := r.lsTree(e.Hash, p, recursive, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, LsTreeEntry{Mode: e.PaddedMode(), Kind: kind, Hash: e.Hash, Path: p})
	}
	return nil
}

// WriteTreeFromDir stores the contents of dir as blobs and trees and
// returns the root tree id. The metadata directory and paths matched by
// dir/.gitignore are skipped. Entries are
// ordered the way Git orders them, comparing directory names as if they
// ended in "/". Unless core.filemode is set, every regular file is recorded
// as 100644.
func (r *Repo) WriteTreeFromDir(dir string) (object.Hash, error) {
	ig, err := LoadIgnorer(dir)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	h, err := r.writeTreeFromDir(dir, "", ig)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	return h, nil
}

func (r *Repo) writeTreeFromDir(dir, rel string, ig *Ignorer) (object.Hash, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	tree := &object.Tree{}
	for _, de := range entries {
		p := filepath.Join(dir, de.Name())
		info, err := os.Lstat(p)
		if err != nil {
			return "", err
		}
		relPath := path.Join(rel, de.Name())
		if ig.Ignored(relPath, info.IsDir()) {
			continue
		}

		mode := modeFromFileInfo(info)
		var h object.Hash
		switch mode {
		case object.TreeModeDir:
			h, err = r.writeTreeFromDir(p, relPath, ig)
		case object.TreeModeSymlink:
			var target string
			if target, err = os.Readlink(p); err == nil {
				h, err = r.Store.WriteObject(&object.Blob{Data: []byte(target)})
			}
		default:
			if r.Config == nil || !r.Config.Core.FileMode {
				mode = object.TreeModeFile
			}
			var data []byte
			if data, err = os.ReadFile(p); err == nil {
				h, err = r.Store.WriteObject(&object.Blob{Data: data})
			}
		}
		if err != nil {
			return "", err
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{Mode: mode, Name: de.Name(), Hash: h})
	}

	sort.SliceStable(tree.Entries, func(i, j int) bool {
		return treeSortKey(tree.Entries[i]) < treeSortKey(tree.Entries[j])
	})
	return r.Store.WriteObject(tree)
}

func treeSortKey(e object.TreeEntry) string {
	if e.Mode == object.TreeModeDir {
		return e.Name + "/"
	}
	return e.Name
}
