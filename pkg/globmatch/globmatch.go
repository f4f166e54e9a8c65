// Package globmatch matches project-relative file paths against lock globs.
//
// Patterns use '/' as the separator: '*' and '?' stay within one path
// segment, '**' crosses segments, and "/**/" also matches zero directories.
package globmatch

import (
	"path"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Matcher decides whether a glob pattern covers a path.
type Matcher interface {
	Match(pattern, filePath string) bool
}

// Default is the gobwas-backed matcher used by the CLI and library.
var Default Matcher = NewMatcher()

// GobwasMatcher compiles patterns with github.com/gobwas/glob and caches them.
// An uncompilable pattern matches only its literal text.
type GobwasMatcher struct {
	mu    sync.Mutex
	cache map[string][]glob.Glob
}

// NewMatcher returns an empty matcher.
func NewMatcher() *GobwasMatcher {
	return &GobwasMatcher{cache: make(map[string][]glob.Glob)}
}

// Match reports whether filePath is covered by pattern.
func (m *GobwasMatcher) Match(pattern, filePath string) bool {
	pattern = Clean(pattern)
	filePath = Clean(filePath)
	if pattern == filePath {
		return true
	}
	for _, g := range m.compile(pattern) {
		if g.Match(filePath) {
			return true
		}
	}
	return false
}

func (m *GobwasMatcher) compile(pattern string) []glob.Glob {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gs, ok := m.cache[pattern]; ok {
		return gs
	}
	var gs []glob.Glob
	for _, variant := range variants(pattern) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			continue
		}
		gs = append(gs, g)
	}
	m.cache[pattern] = gs
	return gs
}

// variants expands the zero-directory forms of '**' segments.
func variants(pattern string) []string {
	seen := map[string]bool{pattern: true}
	out := []string{pattern}
	for i := 0; i < len(out); i++ {
		p := out[i]
		var next []string
		if strings.HasPrefix(p, "**/") {
			next = append(next, strings.TrimPrefix(p, "**/"))
		}
		if idx := strings.Index(p, "/**/"); idx >= 0 {
			next = append(next, p[:idx]+"/"+p[idx+len("/**/"):])
		}
		if strings.HasSuffix(p, "/**") {
			next = append(next, strings.TrimSuffix(p, "/**"))
		}
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// Clean normalises a pattern or path to slash form without a leading "./".
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	hasMeta := strings.ContainsAny(p, "*?[{")
	if !hasMeta {
		p = path.Clean(p)
	}
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

// Valid reports whether pattern compiles.
func Valid(pattern string) bool {
	_, err := glob.Compile(Clean(pattern), '/')
	return err == nil
}

// MatcherFunc adapts a plain function to the Matcher interface.
type MatcherFunc func(pattern, filePath string) bool

// Match calls f.
func (f MatcherFunc) Match(pattern, filePath string) bool {
	return f(pattern, filePath)
}
