package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/giit/pkg/object"
)

func writeBlob(t *testing.T, r *Repo, data string) object.Hash {
	t.Helper()
	h, err := r.Store.WriteObject(&object.Blob{Data: []byte(data)})
	if err != nil {
		t.Fatalf("write blob: %v", err)
	}
	return h
}

func writeTree(t *testing.T, r *Repo, entries ...object.TreeEntry) object.Hash {
	t.Helper()
	h, err := r.Store.WriteObject(&object.Tree{Entries: entries})
	if err != nil {
		t.Fatalf("write tree: %v", err)
	}
	return h
}

// writeRawTree stores a tree payload without validating entry names, the
// way a hostile repository could.
func writeRawTree(t *testing.T, r *Repo, entries ...object.TreeEntry) object.Hash {
	t.Helper()
	var buf []byte
	for _, e := range entries {
		buf = append(buf, e.Mode...)
		buf = append(buf, ' ')
		buf = append(buf, e.Name...)
		buf = append(buf, 0)
		buf = append(buf, rawHash(t, e.Hash)...)
	}
	h, err := r.Store.Write(object.TypeTree, buf)
	if err != nil {
		t.Fatalf("write raw tree: %v", err)
	}
	return h
}

func rawHash(t *testing.T, h object.Hash) []byte {
	t.Helper()
	out := make([]byte, 0, object.HashSize)
	for i := 0; i+1 < len(h); i += 2 {
		hi, lo := unhex(h[i]), unhex(h[i+1])
		out = append(out, hi<<4|lo)
	}
	if len(out) != object.HashSize {
		t.Fatalf("bad hash %q", h)
	}
	return out
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return 0
}

func writeCommit(t *testing.T, r *Repo, tree object.Hash, message string, parents ...object.Hash) object.Hash {
	t.Helper()
	c := &object.Commit{KVLM: *object.NewKVLM()}
	c.Add("tree", []byte(tree))
	for _, p := range parents {
		c.Add("parent", []byte(p))
	}
	c.Add("author", []byte("Test <test@example.com> 1700000000 +0000"))
	c.Add("committer", []byte("Test <test@example.com> 1700000000 +0000"))
	c.Message = []byte(message + "\n")
	h, err := r.Store.WriteObject(c)
	if err != nil {
		t.Fatalf("write commit: %v", err)
	}
	return h
}

func writeTagObject(t *testing.T, r *Repo, target object.Hash, targetType object.ObjectType, name string) object.Hash {
	t.Helper()
	tag := &object.Tag{KVLM: *object.NewKVLM()}
	tag.Add("object", []byte(target))
	tag.Add("type", []byte(targetType))
	tag.Add("tag", []byte(name))
	tag.Add("tagger", []byte("Test <test@example.com> 1700000000 +0000"))
	tag.Message = []byte("tag " + name + "\n")
	h, err := r.Store.WriteObject(tag)
	if err != nil {
		t.Fatalf("write tag: %v", err)
	}
	return h
}

// touchObject creates an empty loose object file so that prefix lookups see
// h without a readable object behind it.
func touchObject(t *testing.T, r *Repo, h object.Hash) {
	t.Helper()
	dir := filepath.Join(r.GitDir, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(h[2:])), nil, 0o444); err != nil {
		t.Fatalf("write object file: %v", err)
	}
}

// initRepoWithFile initializes a repository and writes one file into its
// worktree.
func initRepoWithFile(t *testing.T, name string, content []byte) *Repo {
	t.Helper()
	r := initRepo(t)
	p := filepath.Join(r.RootDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return r
}
