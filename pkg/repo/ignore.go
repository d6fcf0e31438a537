package repo

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreFile is read from the worktree root by WriteTreeFromDir.
const IgnoreFile = ".gitignore"

// Ignorer decides which worktree paths are left out of a snapshot. The
// metadata directory is always ignored.
type Ignorer struct {
	rules []ignoreRule
}

type ignoreRule struct {
	negated bool
	dirOnly bool
	// anchored rules contain a slash and match the whole relative path;
	// the rest match the base name at any depth.
	anchored bool
	re       *regexp.Regexp
}

// LoadIgnorer reads root/.gitignore. A missing file yields an Ignorer that
// only skips the metadata directory.
func LoadIgnorer(root string) (*Ignorer, error) {
	ig := &Ignorer{}
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ig, nil
		}
		return nil, fmt.Errorf("read %s: %w", IgnoreFile, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if rule, ok := parseIgnoreLine(sc.Text()); ok {
			ig.rules = append(ig.rules, rule)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", IgnoreFile, err)
	}
	return ig, nil
}

func parseIgnoreLine(line string) (ignoreRule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var rule ignoreRule
	if strings.HasPrefix(line, "!") {
		rule.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ignoreRule{}, false
	}
	rule.anchored = strings.Contains(line, "/")

	re, err := regexp.Compile(globToRegex(line))
	if err != nil {
		return ignoreRule{}, false
	}
	rule.re = re
	return rule, true
}

// Ignored reports whether rel, a slash-separated path relative to the
// worktree root, is excluded. The last matching rule wins.
func (ig *Ignorer) Ignored(rel string, isDir bool) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == DirName || strings.HasPrefix(rel, DirName+"/") {
		return true
	}
	if ig == nil {
		return false
	}

	ignored := false
	base := path.Base(rel)
	for _, rule := range ig.rules {
		if rule.dirOnly && !isDir {
			continue
		}
		target := base
		if rule.anchored {
			target = rel
		}
		if rule.re.MatchString(target) {
			ignored = !rule.negated
		}
	}
	return ignored
}

// globToRegex translates a gitignore glob. "**/" matches zero or more
// directories, "*" and "?" never cross a slash.
func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case strings.HasPrefix(pattern[i:], "**/"):
			b.WriteString("(?:.*/)?")
			i += 2
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(".*")
			i++
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	b.WriteString("$")
	return b.String()
}
