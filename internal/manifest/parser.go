package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DefaultFileName is the manifest file looked up inside a package directory.
const DefaultFileName = "composer.json"

// rawPackage mirrors the on-disk manifest layout before normalization.
type rawPackage struct {
	Name        string            `yaml:"name"`
	Version     string            `yaml:"version"`
	Description string            `yaml:"description"`
	Homepage    string            `yaml:"homepage"`
	Authors     []Author          `yaml:"authors"`
	Support     map[string]string `yaml:"support"`
	Extra       yaml.Node         `yaml:"extra"`
	Autoload    Autoload          `yaml:"autoload"`
}

// ParseFile reads a manifest file and returns the parsed package. The path
// may point at the manifest itself or at a directory containing
// composer.json. Package.Dir is set to the manifest's directory.
func ParseFile(path string) (*Package, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}

	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	pkg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving manifest directory: %w", err)
	}
	pkg.Dir = dir

	return pkg, nil
}

// Parse decodes manifest bytes. A document starting with '{' is read as
// JSON, anything else as YAML.
func Parse(data []byte) (*Package, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}

	var raw rawPackage
	if doc.Kind != 0 {
		if err := doc.Decode(&raw); err != nil {
			return nil, fmt.Errorf("unmarshaling manifest: %w", err)
		}
	}

	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("manifest missing required 'name' field")
	}

	pkg := &Package{
		Name:        strings.ToLower(raw.Name),
		PrettyName:  raw.Name,
		Version:     raw.Version,
		Description: raw.Description,
		Homepage:    raw.Homepage,
		Authors:     raw.Authors,
		Support:     raw.Support,
		Autoload:    raw.Autoload,
	}
	if pkg.Version == "" {
		pkg.Version = DefaultVersion
	}

	if !raw.Extra.IsZero() {
		if err := decodeExtra(&raw.Extra, pkg); err != nil {
			return nil, err
		}
	}

	return pkg, nil
}

func decodeDocument(data []byte) (*yaml.Node, error) {
	if isJSON(data) {
		return decodeJSONNode(data)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// decodeExtra resolves the extra block once, into both the raw map and the
// typed plugin view.
func decodeExtra(node *yaml.Node, pkg *Package) error {
	if node.Kind != yaml.MappingNode {
		// An explicit null or empty extra is fine; anything else is not.
		if node.Tag == "!!null" {
			return nil
		}
		return fmt.Errorf("line %d: 'extra' must be a mapping", node.Line)
	}
	if err := node.Decode(&pkg.Extra); err != nil {
		return fmt.Errorf("decoding extra: %w", err)
	}
	if err := node.Decode(&pkg.Plugin); err != nil {
		return fmt.Errorf("decoding plugin metadata in extra: %w", err)
	}
	return nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
