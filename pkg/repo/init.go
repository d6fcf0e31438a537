package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/odvcencio/giit/pkg/object"
	log "github.com/sirupsen/logrus"
)

const defaultDescription = "Unnamed repository; edit this file 'description' to name the repository.\n"

// DefaultBranch is the branch HEAD points at in a new repository.
const DefaultBranch = "master"

// Init creates a new repository at path, creating path if needed. It lays
// out objects/, refs/heads/, refs/tags/, branches/, description, HEAD and
// config. Returns an error if the metadata directory already exists and is
// not empty.
func Init(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("init: %s is not a directory", abs)
	}

	gitDir := filepath.Join(abs, DirName)
	if entries, err := os.ReadDir(gitDir); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("init: %w", err)
	}

	// Create directory structure.
	dirs := []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
		filepath.Join(gitDir, "branches"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	if err := os.WriteFile(filepath.Join(gitDir, "description"), []byte(defaultDescription), 0o644); err != nil {
		return nil, fmt.Errorf("init: write description: %w", err)
	}

	r := &Repo{
		RootDir: abs,
		GitDir:  gitDir,
		Store:   object.NewStore(gitDir),
	}
	if err := r.WriteSymbolicRef("HEAD", "refs/heads/"+DefaultBranch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := r.WriteConfig(DefaultConfig()); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	log.WithField("dir", gitDir).Debug("repository initialized")
	return r, nil
}

// Open searches upward from path for a metadata directory and opens the
// repository. The config file must exist and declare format version 0.
func Open(path string) (*Repo, error) {
	// Resolve to absolute path for consistent traversal.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, DirName)
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return openAt(cur, gitDir)
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached filesystem root without finding a metadata directory.
			return nil, fmt.Errorf("open %s: %w (or any parent up to /)", abs, ErrNotRepository)
		}
		cur = parent
	}
}

func openAt(root, gitDir string) (*Repo, error) {
	cfg, err := readConfigFile(configPath(gitDir))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", gitDir, err)
	}
	if v := cfg.Core.RepositoryFormatVersion; v != 0 {
		return nil, fmt.Errorf("open %s: %w: %d", gitDir, ErrUnsupportedFormatVersion, v)
	}
	return &Repo{
		RootDir: root,
		GitDir:  gitDir,
		Store:   object.NewStore(gitDir),
		Config:  cfg,
	}, nil
}
