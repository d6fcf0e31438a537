package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/odvcencio/giit/pkg/object"
	log "github.com/sirupsen/logrus"
)

const symrefPrefix = "ref: "

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// validateRefName rejects names that could escape the metadata directory.
func validateRefName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("%w %q", ErrInvalidRefName, name)
	}
	if strings.ContainsAny(name, "\\\x00") {
		return fmt.Errorf("%w %q", ErrInvalidRefName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." || strings.HasSuffix(part, ".lock") {
			return fmt.Errorf("%w %q", ErrInvalidRefName, name)
		}
	}
	return nil
}

func (r *Repo) refPath(name string) string {
	return filepath.Join(r.GitDir, filepath.FromSlash(name))
}

// ResolveRef follows name (e.g. "HEAD", "refs/heads/master") through any
// chain of symbolic refs to an object id. A ref file that does not exist,
// anywhere along the chain, resolves to ok=false with a nil error: that is
// the normal state of HEAD in a repository without commits. A chain that
// revisits a name fails with ErrRefCycle.
func (r *Repo) ResolveRef(name string) (h object.Hash, ok bool, err error) {
	seen := make(map[string]bool)
	cur := name
	for {
		if err := validateRefName(cur); err != nil {
			return "", false, fmt.Errorf("resolve ref: %w", err)
		}
		if seen[cur] {
			return "", false, fmt.Errorf("resolve ref %q: %w at %q", name, ErrRefCycle, cur)
		}
		seen[cur] = true

		content, exists, err := r.readRefFile(cur)
		if err != nil {
			return "", false, fmt.Errorf("resolve ref %q: %w", name, err)
		}
		if !exists {
			return "", false, nil
		}

		if target, isSym := strings.CutPrefix(content, symrefPrefix); isSym {
			cur = strings.TrimSpace(target)
			continue
		}

		h := object.Hash(content)
		if !h.Valid() {
			return "", false, fmt.Errorf("resolve ref %q: %q holds invalid id %q", name, cur, content)
		}
		return h, true, nil
	}
}

// readRefFile returns the ref's content with the trailing newline removed.
// A missing file, or a directory at that path, reports exists=false.
func (r *Repo) readRefFile(name string) (content string, exists bool, err error) {
	p := r.refPath(name)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		if info, statErr := os.Stat(p); statErr == nil && info.IsDir() {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.TrimRight(string(data), "\r\n"), true, nil
}

// SymbolicRef returns the target of a symbolic ref such as HEAD, or
// ok=false when the ref is missing or holds an id directly.
func (r *Repo) SymbolicRef(name string) (string, bool, error) {
	if err := validateRefName(name); err != nil {
		return "", false, err
	}
	content, exists, err := r.readRefFile(name)
	if err != nil || !exists {
		return "", false, err
	}
	target, isSym := strings.CutPrefix(content, symrefPrefix)
	if !isSym {
		return "", false, nil
	}
	return strings.TrimSpace(target), true, nil
}

// RefNode is one entry of a listed ref namespace. Directories carry a
// non-nil Children slice; refs carry the id they resolve to, or an empty
// Hash if they dangle.
type RefNode struct {
	Name     string
	Hash     object.Hash
	Children []*RefNode
}

// IsDir reports whether the node is a namespace directory.
func (n *RefNode) IsDir() bool { return n.Children != nil }

// Ref is a fully qualified ref name with its resolved id.
type Ref struct {
	Name string
	Hash object.Hash
}

// ListRefs enumerates the namespace (relative to the metadata directory,
// "refs" when empty) recursively. Entries at each level are sorted by name
// and subdirectories become nested nodes. A missing namespace lists as empty.
func (r *Repo) ListRefs(namespace string) ([]*RefNode, error) {
	namespace = strings.Trim(strings.TrimSpace(namespace), "/")
	if namespace == "" {
		namespace = "refs"
	}
	if err := validateRefName(namespace); err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	nodes, err := r.listRefDir(namespace)
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return nodes, nil
}

func (r *Repo) listRefDir(name string) ([]*RefNode, error) {
	entries, err := os.ReadDir(r.refPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*RefNode{}, nil
		}
		return nil, err
	}

	// os.ReadDir returns entries sorted by filename.
	nodes := make([]*RefNode, 0, len(entries))
	for _, e := range entries {
		child := path.Join(name, e.Name())
		if e.IsDir() {
			kids, err := r.listRefDir(child)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &RefNode{Name: e.Name(), Children: kids})
			continue
		}
		if strings.HasSuffix(e.Name(), ".lock") {
			continue
		}
		h, _, err := r.ResolveRef(child)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &RefNode{Name: e.Name(), Hash: h})
	}
	return nodes, nil
}

// FlattenRefs turns a listed namespace into fully qualified refs in
// depth-first, sorted order. prefix is the namespace that was listed.
func FlattenRefs(prefix string, nodes []*RefNode) []Ref {
	var out []Ref
	for _, n := range nodes {
		name := path.Join(prefix, n.Name)
		if n.IsDir() {
			out = append(out, FlattenRefs(name, n.Children)...)
			continue
		}
		out = append(out, Ref{Name: name, Hash: n.Hash})
	}
	return out
}

// UpdateRef writes a hash to the named ref file using lockfile + rename
// semantics. Parent directories are created as needed.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("update ref: %w", err)
	}
	if !h.Valid() {
		return fmt.Errorf("update ref %q: invalid id %q", name, h)
	}
	if err := r.writeRefFile(name, string(h)+"\n"); err != nil {
		return err
	}
	log.WithFields(log.Fields{"ref": name, "hash": h}).Debug("ref updated")
	return nil
}

// WriteSymbolicRef points name at another ref, e.g. HEAD -> refs/heads/master.
func (r *Repo) WriteSymbolicRef(name, target string) error {
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("update ref: %w", err)
	}
	if err := validateRefName(target); err != nil {
		return fmt.Errorf("update ref %q: %w", name, err)
	}
	return r.writeRefFile(name, symrefPrefix+target+"\n")
}

func (r *Repo) writeRefFile(name, content string) error {
	refPath := r.refPath(name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := acquireRefLock(lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(content); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: sync: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false
	return nil
}

// DeleteRef removes a ref file. Deleting a missing ref is an error.
func (r *Repo) DeleteRef(name string) error {
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("delete ref: %w", err)
	}
	if err := os.Remove(r.refPath(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete ref %q: %w", name, object.ErrNotFound)
		}
		return fmt.Errorf("delete ref %q: %w", name, err)
	}
	return nil
}

func acquireRefLock(lockPath string) (*os.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if os.IsExist(err) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}
