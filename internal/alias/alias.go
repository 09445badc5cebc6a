// Package alias computes namespace aliases for a package's PSR-4 autoload
// roots and locates the package's primary plugin class by probing the
// filesystem.
package alias

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/agentx-labs/plugin-installer/internal/pathtag"
	"github.com/spf13/afero"
)

// DefaultSourceExt is the source file extension of the host runtime.
const DefaultSourceExt = ".php"

// pluginClassName is the conventional short name of a primary plugin class.
const pluginClassName = "Plugin"

const namespaceSeparator = `\`

// Resolver resolves autoload aliases for packages installed under VendorDir.
type Resolver struct {
	Fs         afero.Fs
	VendorDir  string
	WorkingDir string
	SourceExt  string
}

// New returns a Resolver with the default source extension.
func New(fs afero.Fs, vendorDir, workingDir string) *Resolver {
	return &Resolver{
		Fs:         fs,
		VendorDir:  vendorDir,
		WorkingDir: workingDir,
		SourceExt:  DefaultSourceExt,
	}
}

// Resolve returns the alias → absolute directory mapping for pkg's PSR-4
// entries. class and basePath are in/out slots: values already set (from the
// manifest's extra block) are kept, empty ones are filled in when the
// filesystem allows it. Namespaces mapped to more than one directory are
// skipped. A nil map means the package declares no PSR-4 entries.
func (r *Resolver) Resolve(pkg *manifest.Package, isRoot bool, class, basePath *string) map[string]string {
	if len(pkg.Autoload.PSR4) == 0 {
		return nil
	}

	vendorDir := pathtag.Normalize(r.VendorDir)
	cwd := pathtag.Normalize(r.WorkingDir)
	aliases := make(map[string]string, len(pkg.Autoload.PSR4))

	for _, entry := range pkg.Autoload.PSR4 {
		if len(entry.Paths) != 1 {
			continue
		}

		dir := r.absolute(entry.Paths[0], pkg.PrettyName, vendorDir, cwd, isRoot)
		aliases[Key(entry.Namespace)] = dir

		if *class == "" && r.isFile(path.Join(dir, pluginClassName+r.ext())) {
			*class = entry.Namespace + pluginClassName
		}

		if *basePath == "" && *class != "" && strings.HasPrefix(*class, entry.Namespace) {
			rel := strings.ReplaceAll((*class)[len(entry.Namespace):], namespaceSeparator, "/")
			classFile := dir + "/" + rel + r.ext()
			if r.isFile(classFile) {
				*basePath = path.Dir(classFile)
			}
		}
	}

	return aliases
}

// Key derives the alias for a namespace: "Acme\Widget\" becomes "@Acme/Widget".
func Key(namespace string) string {
	trimmed := strings.Trim(namespace, namespaceSeparator)
	return "@" + strings.ReplaceAll(trimmed, namespaceSeparator, "/")
}

// absolute anchors a relative autoload path at the working directory for the
// root package, or at the package's vendor directory otherwise.
func (r *Resolver) absolute(p, prettyName, vendorDir, cwd string, isRoot bool) string {
	p = filepath.ToSlash(p)
	if !isAbs(p) {
		if isRoot {
			p = cwd + "/" + p
		} else {
			p = vendorDir + "/" + prettyName + "/" + p
		}
	}
	return pathtag.Normalize(p)
}

func (r *Resolver) ext() string {
	if r.SourceExt == "" {
		return DefaultSourceExt
	}
	return r.SourceExt
}

func (r *Resolver) isFile(p string) bool {
	info, err := r.Fs.Stat(filepath.FromSlash(p))
	return err == nil && !info.IsDir()
}

// isAbs accepts both native absolute paths and slash-rooted paths, so
// manifests written on one platform resolve the same on another.
func isAbs(p string) bool {
	return strings.HasPrefix(p, "/") || filepath.IsAbs(filepath.FromSlash(p))
}
