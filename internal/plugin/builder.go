package plugin

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/agentx-labs/plugin-installer/internal/alias"
	"github.com/agentx-labs/plugin-installer/internal/manifest"
)

// Builder turns package manifests into plugin descriptors.
type Builder struct {
	Resolver *alias.Resolver
}

// NewBuilder returns a Builder that infers classes and aliases with r.
func NewBuilder(r *alias.Resolver) *Builder {
	return &Builder{Resolver: r}
}

// Build produces the descriptor for pkg. isRoot selects how relative autoload
// paths are anchored (see alias.Resolver). The returned warnings are
// non-fatal. A manifest without a resolvable class, base path or valid handle
// yields an *InvalidManifestError.
func (b *Builder) Build(pkg *manifest.Package, isRoot bool) (*Descriptor, []string, error) {
	extra := pkg.Plugin
	var warnings []string

	class := deref(extra.Class)
	basePath := deref(extra.BasePath)
	var aliases map[string]string
	if b.Resolver != nil {
		aliases = b.Resolver.Resolve(pkg, isRoot, &class, &basePath)
	}

	if class == "" {
		return nil, nil, &InvalidManifestError{Package: pkg.PrettyName, Reason: ReasonNoClass}
	}
	if basePath == "" {
		return nil, nil, &InvalidManifestError{Package: pkg.PrettyName, Reason: ReasonNoBasePath}
	}
	if extra.Handle == nil || !ValidHandle(*extra.Handle) {
		return nil, nil, &InvalidManifestError{Package: pkg.PrettyName, Reason: ReasonInvalidHandle}
	}

	handle, changed := NormalizeHandle(*extra.Handle)
	if changed {
		warnings = append(warnings, fmt.Sprintf("%s uses the old plugin handle format (%q). It should be %q.", pkg.PrettyName, *extra.Handle, handle))
	}

	d := &Descriptor{
		Class:    class,
		BasePath: basePath,
		Handle:   handle,
	}
	if len(aliases) > 0 {
		d.Aliases = aliases
	}

	vendor, name := pkg.VendorAndName()
	author := pkg.FirstAuthor()

	d.Name = firstOf(extra.Name, name)
	d.Version = firstOf(extra.Version, pkg.Version)
	d.SchemaVersion = deref(extra.SchemaVersion)
	d.Description = firstOf(extra.Description, pkg.Description)
	d.Developer = firstOf(extra.Developer, authorField(author, func(a *manifest.Author) string { return a.Name }), vendor)
	d.DeveloperURL = firstOf(extra.DeveloperURL, pkg.Homepage, authorField(author, func(a *manifest.Author) string { return a.Homepage }))
	d.DeveloperEmail = firstOf(extra.DeveloperEmail, pkg.Support["email"])
	d.DocumentationURL = firstOf(extra.DocumentationURL, pkg.Support["docs"])
	d.ChangelogURL = deref(extra.ChangelogURL)
	d.DownloadURL = deref(extra.DownloadURL)
	d.T9nCategory = deref(extra.T9nCategory)
	d.SourceLanguage = deref(extra.SourceLanguage)
	d.HasCpSettings = extra.HasCpSettings.Bool()
	d.HasCpSection = extra.HasCpSection.Bool()
	d.Components = extra.Components
	d.Modules = extra.Modules
	d.MinVersionRequired = deref(extra.MinVersionRequired)

	if d.MinVersionRequired != "" {
		if _, err := semver.NewVersion(d.MinVersionRequired); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s declares minVersionRequired %q, which is not a semantic version.", pkg.PrettyName, d.MinVersionRequired))
		}
	}

	return d, warnings, nil
}

// firstOf returns the explicit value when set and non-empty, otherwise the
// first non-empty fallback.
func firstOf(explicit *string, fallbacks ...string) string {
	if v := deref(explicit); v != "" {
		return v
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return ""
}

func authorField(a *manifest.Author, get func(*manifest.Author) string) string {
	if a == nil {
		return ""
	}
	return get(a)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
