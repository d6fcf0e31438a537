package object

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// Marshal serializes a Blob to raw bytes (identity).
func (b *Blob) Marshal() ([]byte, error) {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out, nil
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// Marshal serializes a Tree. Entries are written in stored order, never
// sorted or deduplicated. Each entry is:
//
//	<mode> SP <name> NUL <20 raw id bytes>
func (t *Tree) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	for i, e := range t.Entries {
		if !validModeString(e.Mode) {
			return nil, malformed("tree entry %d: invalid mode %q", i, e.Mode)
		}
		if e.Name == "" || strings.ContainsAny(e.Name, "/\x00") {
			return nil, malformed("tree entry %d: invalid name %q", i, e.Name)
		}
		raw, err := e.Hash.raw()
		if err != nil {
			return nil, err
		}
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a Tree from its serialized form, consuming the whole
// payload.
func UnmarshalTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	pos := 0
	for pos < len(data) {
		e, n, err := parseTreeEntry(data[pos:])
		if err != nil {
			return nil, malformed("tree entry at offset %d: %v", pos, err)
		}
		tr.Entries = append(tr.Entries, e)
		pos += n
	}
	return tr, nil
}

// parseTreeEntry reads one entry and returns the number of bytes consumed.
func parseTreeEntry(data []byte) (TreeEntry, int, error) {
	// The mode is 5 or 6 digits, so the separating space is at index 5 or 6.
	sp := bytes.IndexByte(data[:min(len(data), 7)], ' ')
	if sp != 5 && sp != 6 {
		return TreeEntry{}, 0, errors.New("bad mode field")
	}
	mode := string(data[:sp])
	if !validModeString(mode) {
		return TreeEntry{}, 0, fmt.Errorf("bad mode %q", mode)
	}

	nul := bytes.IndexByte(data[sp+1:], 0)
	if nul < 0 {
		return TreeEntry{}, 0, errors.New("missing NUL after name")
	}
	nameEnd := sp + 1 + nul
	name := string(data[sp+1 : nameEnd])
	if name == "" {
		return TreeEntry{}, 0, errors.New("empty name")
	}
	if strings.IndexByte(name, '/') >= 0 {
		return TreeEntry{}, 0, fmt.Errorf("name %q contains a path separator", name)
	}

	idStart := nameEnd + 1
	idEnd := idStart + HashSize
	if idEnd > len(data) {
		return TreeEntry{}, 0, fmt.Errorf("truncated object id for %q", name)
	}
	return TreeEntry{
		Mode: mode,
		Name: name,
		Hash: hashFromRaw(data[idStart:idEnd]),
	}, idEnd, nil
}

func validModeString(mode string) bool {
	if len(mode) != 5 && len(mode) != 6 {
		return false
	}
	for i := 0; i < len(mode); i++ {
		if mode[i] < '0' || mode[i] > '7' {
			return false
		}
	}
	return true
}

// Kind maps a tree entry's mode to the type of object it references.
// Symlinks are blobs whose content is the link target; gitlinks are commits
// in another repository and are never dereferenced.
func (e TreeEntry) Kind() (ObjectType, error) {
	mode := e.Mode
	if len(mode) == 5 {
		mode = "0" + mode
	}
	if len(mode) != 6 {
		return "", unknownFormat("tree mode %q", e.Mode)
	}
	switch mode[:2] {
	case "04":
		return TypeTree, nil
	case "10", "12":
		return TypeBlob, nil
	case "16":
		return TypeCommit, nil
	default:
		return "", unknownFormat("tree mode %q", e.Mode)
	}
}

// PaddedMode returns the mode left-padded with zeros to six digits.
func (e TreeEntry) PaddedMode() string {
	return strings.Repeat("0", max(0, 6-len(e.Mode))) + e.Mode
}

// IsSymlink reports whether the entry is a symbolic link.
func (e TreeEntry) IsSymlink() bool { return strings.HasPrefix(e.PaddedMode(), "12") }

// IsGitlink reports whether the entry references a submodule commit.
func (e TreeEntry) IsGitlink() bool { return strings.HasPrefix(e.PaddedMode(), "16") }

// ---------------------------------------------------------------------------
// Commit / Tag
// ---------------------------------------------------------------------------

// Marshal serializes the commit's KVLM payload.
func (c *Commit) Marshal() ([]byte, error) {
	return c.Bytes(), nil
}

// Marshal serializes the tag's KVLM payload.
func (t *Tag) Marshal() ([]byte, error) {
	return t.Bytes(), nil
}
