package manifest

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"go.yaml.in/yaml/v3"
)

// DefaultVersion is the pretty version assigned to manifests that do not
// declare one.
const DefaultVersion = "1.0.0+no-version-set"

// Package is a parsed package manifest. It is read-only once parsed.
type Package struct {
	Name        string            // canonical lowercase name, e.g. "acme/widget"
	PrettyName  string            // name as declared, e.g. "Acme/Widget"
	Version     string            // pretty version string
	Description string
	Homepage    string
	Authors     []Author
	Support     map[string]string // support links: email, docs, issues, ...
	Extra       map[string]any    // raw extra block
	Plugin      PluginExtra       // typed view of the extra block
	Autoload    Autoload
	Dir         string            // directory the manifest was read from
}

// Author is one entry of the manifest's authors list.
type Author struct {
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Email    string `yaml:"email,omitempty" json:"email,omitempty"`
	Homepage string `yaml:"homepage,omitempty" json:"homepage,omitempty"`
	Role     string `yaml:"role,omitempty" json:"role,omitempty"`
}

// Autoload holds the autoload section. Only PSR-4 is relevant for plugins.
type Autoload struct {
	PSR4 PSR4 `yaml:"psr-4,omitempty"`
}

// PSR4 is an ordered namespace → directories mapping. Order matters because
// the first namespace containing the plugin class wins.
type PSR4 []NamespacePaths

// NamespacePaths maps one namespace prefix to its source directories.
type NamespacePaths struct {
	Namespace string
	Paths     PathList
}

// PathList is one or more directories. Manifests may declare a single string
// or a list.
type PathList []string

// PluginExtra is the typed view of the extra block. Every field is optional;
// nil means the key was absent or null.
type PluginExtra struct {
	Class              *string        `yaml:"class"`
	BasePath           *string        `yaml:"basePath"`
	Handle             *string        `yaml:"handle"`
	Name               *string        `yaml:"name"`
	Version            *string        `yaml:"version"`
	SchemaVersion      *string        `yaml:"schemaVersion"`
	Description        *string        `yaml:"description"`
	Developer          *string        `yaml:"developer"`
	DeveloperURL       *string        `yaml:"developerUrl"`
	DeveloperEmail     *string        `yaml:"developerEmail"`
	DocumentationURL   *string        `yaml:"documentationUrl"`
	ChangelogURL       *string        `yaml:"changelogUrl"`
	DownloadURL        *string        `yaml:"downloadUrl"`
	T9nCategory        *string        `yaml:"t9nCategory"`
	SourceLanguage     *string        `yaml:"sourceLanguage"`
	HasCpSettings      *Flag          `yaml:"hasCpSettings"`
	HasCpSection       *Flag          `yaml:"hasCpSection"`
	Components         map[string]any `yaml:"components"`
	Modules            map[string]any `yaml:"modules"`
	MinVersionRequired *string        `yaml:"minVersionRequired"`
}

// Flag is a loosely typed boolean. It accepts YAML/JSON booleans, numbers and
// strings.
type Flag bool

// VendorAndName splits the pretty name into its vendor and package segments.
// Names without a slash have no vendor.
func (p *Package) VendorAndName() (vendor, name string) {
	if v, n, ok := strings.Cut(p.PrettyName, "/"); ok {
		return v, n
	}
	return "", p.PrettyName
}

// FirstAuthor returns the first listed author, or nil.
func (p *Package) FirstAuthor() *Author {
	if len(p.Authors) == 0 {
		return nil
	}
	return &p.Authors[0]
}

// UnmarshalYAML decodes a mapping node while preserving key order. An empty
// sequence is read as an empty mapping.
func (m *PSR4) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode && len(node.Content) == 0 {
		*m = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: psr-4 must be a mapping", node.Line)
	}
	out := make(PSR4, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry NamespacePaths
		if err := node.Content[i].Decode(&entry.Namespace); err != nil {
			return fmt.Errorf("line %d: psr-4 namespace: %w", node.Content[i].Line, err)
		}
		if err := node.Content[i+1].Decode(&entry.Paths); err != nil {
			return fmt.Errorf("psr-4 paths for %q: %w", entry.Namespace, err)
		}
		out = append(out, entry)
	}
	*m = out
	return nil
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars.
func (l *PathList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = PathList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a path or a list of paths", node.Line)
	}
}

// UnmarshalYAML coerces the node value the way a loose bool cast would:
// booleans as-is, numbers by non-zero, strings by their truthiness.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	if b, err := cast.ToBoolE(v); err == nil {
		*f = Flag(b)
		return nil
	}
	s := cast.ToString(v)
	*f = Flag(s != "" && s != "0")
	return nil
}

// Bool returns the flag as a plain bool pointer, preserving nil.
func (f *Flag) Bool() *bool {
	if f == nil {
		return nil
	}
	b := bool(*f)
	return &b
}
