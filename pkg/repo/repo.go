package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/giit/pkg/object"
)

// DirName is the metadata directory created inside a worktree.
const DirName = ".git"

var (
	ErrNotRepository            = errors.New("not a giit repository")
	ErrUnsupportedFormatVersion = errors.New("unsupported repository format version")
	ErrInvalidRefName           = errors.New("invalid ref name")
	ErrRefCycle                 = errors.New("symbolic ref cycle")
	ErrAmbiguousReference       = errors.New("ambiguous reference")
	ErrPathTraversal            = errors.New("tree entry escapes checkout directory")
	ErrNonEmptyCheckoutTarget   = errors.New("checkout target is not empty")
)

// AmbiguousReferenceError reports a revision that matched more than one
// object id.
type AmbiguousReferenceError struct {
	Name       string
	Candidates []object.Hash
}

func (e *AmbiguousReferenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %q: candidates are %v", ErrAmbiguousReference, e.Name, e.Candidates)
}

func (e *AmbiguousReferenceError) Is(target error) bool {
	return target == ErrAmbiguousReference
}

// Repo represents an opened repository.
type Repo struct {
	RootDir string        // working directory root
	GitDir  string        // metadata directory
	Store   *object.Store // content-addressed object store
	Config  *Config       // parsed metadata config
}
