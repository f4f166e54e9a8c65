// Package pathutil provides path and name validation utilities for agent-chat.
package pathutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/agent-chat/agent-chat/pkg/errclass"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// NormalizeName returns the NFC form of a session id or display name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateName checks that a session id or display name is safe to use as a
// file name inside the store directories.
func ValidateName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("name must not be empty")
	}

	name = norm.NFC.String(name)

	if strings.Contains(name, "..") {
		return errclass.ErrNameInvalid.WithMessagef("name must not contain '..': %s", name)
	}
	if strings.HasPrefix(name, ".") {
		return errclass.ErrNameInvalid.WithMessagef("name must not start with '.': %s", name)
	}
	if strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("name must not contain separators: %s", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("name must not contain control characters: %q", name)
		}
	}
	if !nameRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("name must match [a-zA-Z0-9._-]+: %s", name)
	}
	return nil
}

// RelToRoot expresses target as a slash-separated path relative to root.
// Relative targets are first joined onto base (usually the working directory).
// Symlinks are resolved on both sides so /tmp and /private/tmp compare equal.
func RelToRoot(root, base, target string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", errclass.ErrPathEscape.WithMessagef("cannot resolve project root: %v", err)
	}
	resolvedTarget, err := filepath.EvalSymlinks(target)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", errclass.ErrPathEscape.WithMessagef("cannot resolve target: %v", err)
		}
		resolvedTarget = resolveClosestAncestor(target)
	}

	rel, err := filepath.Rel(resolvedRoot, resolvedTarget)
	if err != nil {
		return "", errclass.ErrPathEscape.WithMessagef("path %s: %v", target, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errclass.ErrPathEscape.WithMessagef("path escapes project root: %s", target)
	}
	return filepath.ToSlash(rel), nil
}

// resolveClosestAncestor walks up from path to find the closest existing
// ancestor, resolves it, then appends the remaining components.
func resolveClosestAncestor(path string) string {
	dir := filepath.Dir(path)
	if dir == path {
		return filepath.Clean(path)
	}
	base := filepath.Base(path)

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = resolveClosestAncestor(dir)
		} else {
			return filepath.Clean(path)
		}
	}
	return filepath.Join(resolved, base)
}
