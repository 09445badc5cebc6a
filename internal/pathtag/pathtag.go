// Package pathtag converts between absolute paths and the portable
// placeholders stored in the plugin registry. Paths under the vendor-tooling
// directory are written as "<vendor-dir>/...", paths under the project root
// as "<root-dir>/...".
package pathtag

import (
	"path/filepath"
	"strings"
)

// Placeholder prefixes.
const (
	VendorTag = "<vendor-dir>"
	RootTag   = "<root-dir>"
)

// Tagger tags and untags paths relative to one vendor directory and one
// project root. Both are compared in slash form.
type Tagger struct {
	VendorDir string
	RootDir   string
}

// New returns a Tagger for the given directories. The directories are cleaned
// so that trailing separators do not affect prefix matching.
func New(vendorDir, rootDir string) Tagger {
	return Tagger{
		VendorDir: Normalize(vendorDir),
		RootDir:   Normalize(rootDir),
	}
}

// Normalize cleans a path and converts it to forward slashes.
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// Tag replaces a vendor or root directory prefix with its placeholder. The
// vendor directory wins when it is nested inside the root. Paths outside both
// are returned in slash form, unchanged otherwise.
func (t Tagger) Tag(p string) string {
	p = filepath.ToSlash(p)
	if rest, ok := cutDir(p, t.VendorDir); ok {
		return VendorTag + rest
	}
	if rest, ok := cutDir(p, t.RootDir); ok {
		return RootTag + rest
	}
	return p
}

// Untag expands a leading placeholder back into the absolute directory it
// stands for. Values without a placeholder are returned unchanged.
func (t Tagger) Untag(p string) string {
	if rest, ok := strings.CutPrefix(p, VendorTag); ok {
		return t.VendorDir + rest
	}
	if rest, ok := strings.CutPrefix(p, RootTag); ok {
		return t.RootDir + rest
	}
	return p
}

// Split reports which placeholder, if any, a tagged path starts with and the
// remainder after it.
func Split(tagged string) (tag, rest string) {
	for _, prefix := range []string{VendorTag, RootTag} {
		if r, ok := strings.CutPrefix(tagged, prefix); ok {
			return prefix, r
		}
	}
	return "", tagged
}

// cutDir strips dir from the front of p when p is dir itself or lies below it.
func cutDir(p, dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	if !strings.HasPrefix(p+"/", dir+"/") {
		return "", false
	}
	return p[len(dir):], true
}
