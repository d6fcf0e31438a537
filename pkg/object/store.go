package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zlib"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// Each file holds the zlib-compressed envelope "type len\0content".
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.objectsDir(), string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. An object that is
// already present is left untouched. New objects are compressed into a
// temporary file beside their final path and atomically renamed into place,
// so readers never observe a partial object.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	if _, err := ParseObjectType(string(objType)); err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Join(s.objectsDir(), string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	pf, err := renameio.TempFile(dir, s.objectPath(h))
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	defer pf.Cleanup()

	zw := zlib.NewWriter(pf)
	if _, err := zw.Write(Envelope(objType, data)); err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}
	if err := pf.Chmod(0o444); err != nil {
		return "", fmt.Errorf("object write chmod: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("object write rename: %w", err)
	}

	log.WithFields(log.Fields{"hash": h, "type": objType, "size": len(data)}).Debug("object written")
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !h.Valid() {
		return "", nil, fmt.Errorf("object read %q: %w", string(h), ErrNotFound)
	}
	raw, err := s.readEnvelope(h)
	if err != nil {
		return "", nil, err
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, corrupt(h, "invalid format (no NUL)")
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	typeStr, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, corrupt(h, "invalid header %q", header)
	}
	length, ok := parseEnvelopeLength(lenStr)
	if !ok {
		return "", nil, corrupt(h, "invalid length %q", lenStr)
	}
	if len(content) != length {
		return "", nil, corrupt(h, "length mismatch (header=%d, actual=%d)", length, len(content))
	}
	objType, err := ParseObjectType(typeStr)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}

	return objType, content, nil
}

// parseEnvelopeLength accepts only the canonical decimal spelling: digits,
// no sign, no leading zero.
func parseEnvelopeLength(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Store) readEnvelope(h Hash) (raw []byte, err error) {
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, corrupt(h, "zlib header: %v", err)
	}
	defer func() { err = multierr.Append(err, zr.Close()) }()

	raw, err = io.ReadAll(zr)
	if err != nil {
		return nil, corrupt(h, "decompress: %v", err)
	}
	return raw, nil
}

// ReadObject reads and decodes an object of any type.
func (s *Store) ReadObject(h Hash) (Object, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj, err := Decode(objType, data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return obj, nil
}

// WriteObject serializes and stores any object.
func (s *Store) WriteObject(obj Object) (Hash, error) {
	data, err := obj.Marshal()
	if err != nil {
		return "", fmt.Errorf("object write %s: %w", obj.Type(), err)
	}
	return s.Write(obj.Type(), data)
}

var fanoutRE = regexp.MustCompile(`^[0-9a-f]{2}$`)
var restRE = regexp.MustCompile(`^[0-9a-f]{38}$`)

// FindPrefix returns every stored id starting with prefix, which must be at
// least two lowercase hex characters. Only the one fan-out directory named by
// the prefix is scanned.
func (s *Store) FindPrefix(prefix string) ([]Hash, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < 2 || !fanoutRE.MatchString(prefix[:2]) {
		return nil, fmt.Errorf("find prefix %q: too short", prefix)
	}
	dir := filepath.Join(s.objectsDir(), prefix[:2])
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("find prefix %q: %w", prefix, err)
	}

	rem := prefix[2:]
	var out []Hash
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !restRE.MatchString(name) {
			continue
		}
		if strings.HasPrefix(name, rem) {
			out = append(out, Hash(prefix[:2]+name))
		}
	}
	log.WithFields(log.Fields{"prefix": prefix, "matches": len(out)}).Debug("prefix scan")
	return out, nil
}

// All lists every loose object id in the store, ordered by fan-out
// directory and then by file name.
func (s *Store) All() ([]Hash, error) {
	dirs, err := os.ReadDir(s.objectsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list objects: %w", err)
	}
	var out []Hash
	for _, d := range dirs {
		if !d.IsDir() || !fanoutRE.MatchString(d.Name()) {
			continue
		}
		hs, err := s.FindPrefix(d.Name())
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		out = append(out, hs...)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func wrongType(h Hash, got, want ObjectType) error {
	return fmt.Errorf("object %s: %w: got %q, want %q", h, ErrWrongType, got, want)
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	obj, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	b, ok := obj.(*Blob)
	if !ok {
		return nil, wrongType(h, obj.Type(), TypeBlob)
	}
	return b, nil
}

// ReadTree reads and deserializes a Tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	obj, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	t, ok := obj.(*Tree)
	if !ok {
		return nil, wrongType(h, obj.Type(), TypeTree)
	}
	return t, nil
}

// ReadCommit reads and deserializes a Commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	obj, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(*Commit)
	if !ok {
		return nil, wrongType(h, obj.Type(), TypeCommit)
	}
	return c, nil
}

// ReadTag reads and deserializes an annotated Tag.
func (s *Store) ReadTag(h Hash) (*Tag, error) {
	obj, err := s.ReadObject(h)
	if err != nil {
		return nil, err
	}
	t, ok := obj.(*Tag)
	if !ok {
		return nil, wrongType(h, obj.Type(), TypeTag)
	}
	return t, nil
}
