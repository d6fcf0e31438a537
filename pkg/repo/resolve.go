package repo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/odvcencio/giit/pkg/object"
	log "github.com/sirupsen/logrus"
)

var shortHashRE = regexp.MustCompile(`^[0-9A-Fa-f]{4,40}$`)

// namespaces searched, in order, for a bare revision name.
var revisionNamespaces = []string{"refs/tags/", "refs/heads/", "refs/remotes/"}

// maxPeelDepth bounds tag-of-tag chains.
const maxPeelDepth = 64

// ResolveCandidates returns every object id that rev could name, without
// judging ambiguity:
//
//   - "HEAD" resolves through the HEAD ref (zero or one candidate).
//   - 4 to 40 hex digits match every stored id with that prefix.
//   - tags, branches and remote branches named rev are added as well.
//
// Duplicate ids are reported once. An empty or blank rev yields no
// candidates and no error.
func (r *Repo) ResolveCandidates(rev string) ([]object.Hash, error) {
	if strings.TrimSpace(rev) == "" {
		return nil, nil
	}

	if rev == "HEAD" {
		h, ok, err := r.ResolveRef("HEAD")
		if err != nil || !ok {
			return nil, err
		}
		return []object.Hash{h}, nil
	}

	var candidates []object.Hash
	seen := make(map[object.Hash]bool)
	add := func(h object.Hash) {
		if !seen[h] {
			seen[h] = true
			candidates = append(candidates, h)
		}
	}

	if shortHashRE.MatchString(rev) {
		matches, err := r.Store.FindPrefix(strings.ToLower(rev))
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", rev, err)
		}
		for _, h := range matches {
			add(h)
		}
	}

	names := make([]string, 0, len(revisionNamespaces)+1)
	if strings.HasPrefix(rev, "refs/") {
		names = append(names, rev)
	}
	for _, ns := range revisionNamespaces {
		names = append(names, ns+rev)
	}
	for _, name := range names {
		if validateRefName(name) != nil {
			continue
		}
		h, ok, err := r.ResolveRef(name)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", rev, err)
		}
		if ok {
			add(h)
		}
	}

	log.WithFields(log.Fields{"rev": rev, "candidates": len(candidates)}).Debug("resolved candidates")
	return candidates, nil
}

// ResolveName resolves rev to exactly one object id and, when want is not
// empty, peels it to an object of that type. No candidates is
// object.ErrNotFound; several is an *AmbiguousReferenceError.
func (r *Repo) ResolveName(rev string, want object.ObjectType) (object.Hash, error) {
	candidates, err := r.ResolveCandidates(rev)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("resolve %q: %w", rev, object.ErrNotFound)
	case 1:
	default:
		return "", &AmbiguousReferenceError{Name: rev, Candidates: candidates}
	}

	if want == "" {
		return candidates[0], nil
	}
	return r.Peel(candidates[0], want)
}

// Peel follows typed pointers from h until it reaches an object of type
// want: a commit peels to its tree, a tag to the object it tags. Any other
// mismatch is object.ErrWrongType.
func (r *Repo) Peel(h object.Hash, want object.ObjectType) (object.Hash, error) {
	start := h
	for range maxPeelDepth {
		obj, err := r.Store.ReadObject(h)
		if err != nil {
			return "", err
		}
		if obj.Type() == want {
			return h, nil
		}

		switch o := obj.(type) {
		case *object.Commit:
			h = o.Tree()
		case *object.Tag:
			h = o.Object()
		default:
			return "", fmt.Errorf("peel %s to %s: %w: reached %s %s", start, want, object.ErrWrongType, obj.Type(), h)
		}
		if h == "" {
			return "", fmt.Errorf("peel %s to %s: %w: %s has no target", start, want, object.ErrWrongType, obj.Type())
		}
	}
	return "", fmt.Errorf("peel %s to %s: %w: chain too deep", start, want, object.ErrWrongType)
}

// IsAmbiguous unwraps an *AmbiguousReferenceError from err.
func IsAmbiguous(err error) (*AmbiguousReferenceError, bool) {
	var amb *AmbiguousReferenceError
	if errors.As(err, &amb) {
		return amb, true
	}
	return nil, false
}
