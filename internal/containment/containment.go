// Package containment decides whether a file may be read: its canonical
// path must lie inside the workspace root or one of the extra roots.
//
// All comparisons use canonical paths (absolute, symlinks resolved, "." and
// ".." applied) and a path-separator boundary, so "/ws-evil" is never inside
// "/ws". Any error while resolving a path denies access.
package containment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/sourcesync/internal/models"
)

// Policy is a resolved set of authorized roots. Build it once per
// invocation with New and reuse it for every candidate.
type Policy struct {
	roots []string
	// lexical holds the cleaned, unresolved roots for LexicallyInside.
	lexical []string
}

// New canonicalizes every root of r. Roots that cannot be resolved are left
// out of the policy and reported in the returned error; the policy itself
// is always usable.
func New(r models.AuthorizedRoots) (*Policy, error) {
	p := &Policy{}
	var errs []error
	for _, root := range r.All() {
		c, err := Canonical(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("root %s: %w", root, err))
			continue
		}
		p.roots = append(p.roots, c)
		if abs, err := filepath.Abs(root); err == nil {
			p.lexical = append(p.lexical, abs)
		}
	}
	return p, errors.Join(errs...)
}

// Roots returns the canonical roots in use.
func (p *Policy) Roots() []string {
	return append([]string(nil), p.roots...)
}

// Check resolves candidate and reports whether it is inside a root. The
// canonical path is returned so that callers read exactly what was checked.
func (p *Policy) Check(candidate string) (string, bool) {
	c, err := Canonical(candidate)
	if err != nil {
		return "", false
	}
	for _, root := range p.roots {
		if Within(root, c) {
			return c, true
		}
	}
	return c, false
}

// LexicallyInside reports whether the cleaned candidate lies under one of
// the roots as written, without touching the filesystem. It never grants
// access; it only tells a path the caller named inside the roots from one
// it named outside when the path cannot be resolved.
func (p *Policy) LexicallyInside(candidate string) bool {
	if candidate == "" {
		return false
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return false
	}
	for _, root := range p.lexical {
		if Within(root, abs) {
			return true
		}
	}
	for _, root := range p.roots {
		if Within(root, abs) {
			return true
		}
	}
	return false
}

// IsNotExist reports whether err means the path does not exist, including
// a path that runs through a regular file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// Authorized reports whether candidate may be read.
func (p *Policy) Authorized(candidate string) bool {
	_, ok := p.Check(candidate)
	return ok
}

// IsAuthorized is the one-shot form of New(r).Authorized(candidate).
func IsAuthorized(candidate string, r models.AuthorizedRoots) bool {
	p, _ := New(r)
	return p.Authorized(candidate)
}

// Within reports whether path equals root or is a descendant of it. Both
// arguments must already be canonical.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Canonical returns the absolute, symlink-free form of path. A path that
// does not exist yet is resolved through its longest existing ancestor,
// which keeps "/ws/missing.c" comparable with a resolved "/ws".
func Canonical(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		path = wd + string(filepath.Separator) + path
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !IsNotExist(err) {
		return "", err
	}

	// The tail below the deepest existing entry cannot contain symlinks,
	// so applying its ".." elements lexically is exact.
	sep := string(filepath.Separator)
	parts := strings.Split(path, sep)
	for i := len(parts) - 1; i > 0; i-- {
		prefix := strings.Join(parts[:i], sep)
		if prefix == "" || strings.HasSuffix(prefix, ":") {
			prefix += sep
		}
		base, err := filepath.EvalSymlinks(prefix)
		if err == nil {
			return filepath.Join(append([]string{base}, parts[i:]...)...), nil
		}
		if !IsNotExist(err) {
			return "", err
		}
	}
	return filepath.Clean(path), nil
}

// Clamp keeps only the roots of r that lie inside one of ceiling. An empty
// ceiling leaves r unchanged. A dropped workspace root becomes "", so files
// under it are no longer authorized. The dropped roots are returned for
// logging.
func Clamp(r models.AuthorizedRoots, ceiling []string) (models.AuthorizedRoots, []string) {
	if len(ceiling) == 0 {
		return r, nil
	}

	limits := make([]string, 0, len(ceiling))
	for _, c := range ceiling {
		if cc, err := Canonical(c); err == nil {
			limits = append(limits, cc)
		}
	}

	allowed := func(root string) bool {
		c, err := Canonical(root)
		if err != nil {
			return false
		}
		for _, l := range limits {
			if Within(l, c) {
				return true
			}
		}
		return false
	}

	var dropped []string
	out := models.AuthorizedRoots{}
	if r.WorkspaceRoot != "" {
		if allowed(r.WorkspaceRoot) {
			out.WorkspaceRoot = r.WorkspaceRoot
		} else {
			dropped = append(dropped, r.WorkspaceRoot)
		}
	}
	for _, root := range r.ExtraRoots {
		if root == "" {
			continue
		}
		if allowed(root) {
			out.ExtraRoots = append(out.ExtraRoots, root)
		} else {
			dropped = append(dropped, root)
		}
	}
	return out, dropped
}
