// Package pathmatcher compiles glob/ignore rules and tests paths against
// them — used both for the Reactor's `.gitignore` stack (dropping watcher
// events before any image sees them) and for a component's `watch` glob
// list (deciding whether a changed file is part of its build context).
//
// Grounded on original_source/rush/src/path_matcher.rs and gitignore.rs,
// ported from the glob crate to github.com/bmatcuk/doublestar, which
// understands the same `**` recursive-match semantics.
package pathmatcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Pattern is a single compiled glob/ignore rule.
type Pattern struct {
	raw           string
	compiled      string
	negation      bool
	directoryOnly bool
}

// NewPattern compiles one pattern string (as found in a .gitignore line or
// a component's `watch` entry).
func NewPattern(raw string) Pattern {
	p := Pattern{raw: raw}

	s := raw
	if strings.HasPrefix(s, "!") {
		p.negation = true
		s = s[1:]
	}
	if strings.HasSuffix(s, "/") {
		p.directoryOnly = true
		s = strings.TrimSuffix(s, "/")
	}

	if strings.HasPrefix(s, "/") {
		p.compiled = strings.TrimPrefix(s, "/")
	} else {
		p.compiled = "**/" + s
	}
	return p
}

// Matches reports whether path (slash-separated, relative to the
// PathMatcher's root) matches this pattern.
func (p Pattern) Matches(path string, isDir bool) bool {
	if p.directoryOnly && !isDir {
		return false
	}
	ok, err := doublestar.Match(p.compiled, path)
	if err != nil {
		return false
	}
	if !ok {
		// doublestar requires a full-path match; also allow the pattern to
		// match a single path component, mirroring .gitignore semantics
		// for bare names like "node_modules".
		if !strings.Contains(p.compiled, "/") {
			base := filepath.Base(path)
			ok, _ = doublestar.Match(p.compiled, base)
		}
	}
	return ok
}

// PathMatcher is an ordered list of patterns; later patterns override
// earlier ones, and a negation pattern (`!pat`) un-matches a path that a
// prior pattern matched.
type PathMatcher struct {
	rootPath string
	patterns []Pattern
}

// New compiles patterns directly (no filesystem walk) — used for a
// component's explicit `watch` glob list.
func New(rootPath string, patterns []string) *PathMatcher {
	pm := &PathMatcher{rootPath: rootPath}
	for _, raw := range patterns {
		pm.patterns = append(pm.patterns, NewPattern(raw))
	}
	return pm
}

// NewFromGitignoreStack walks upward from startPath to the filesystem root
// (or until it escapes rootPath), collecting every `.gitignore` file found
// along the way, closest-directory-first, and compiles them into one
// PathMatcher. This reproduces the original's "walked upward from the
// product directory" ignore stack.
func NewFromGitignoreStack(rootPath, startPath string) (*PathMatcher, error) {
	pm := &PathMatcher{rootPath: rootPath}

	dir := startPath
	for {
		gi := filepath.Join(dir, ".gitignore")
		if lines, err := readLines(gi); err == nil {
			for _, line := range lines {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				pm.patterns = append(pm.patterns, NewPattern(line))
			}
		}

		if dir == rootPath || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}

	return pm, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Match tests an absolute or root-relative path. Directories never match a
// non-directory-only pattern's "files only" rule; only files participate
// in the final ignore decision (directories themselves are never reported
// as ignored/not-ignored meaningfully to callers, matching the watcher
// policy of "directories are ignored; only files count").
func (pm *PathMatcher) Match(path string, isDir bool) bool {
	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(pm.rootPath, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)

	matched := false
	for _, p := range pm.patterns {
		if p.Matches(rel, isDir) {
			matched = !p.negation
		}
	}
	return matched
}

// RootPath returns the matcher's root.
func (pm *PathMatcher) RootPath() string { return pm.rootPath }
