package registry

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/agentx-labs/plugin-installer/internal/branding"
	"github.com/agentx-labs/plugin-installer/internal/pathtag"
	"github.com/agentx-labs/plugin-installer/internal/plugin"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Variable and block names used in the generated file.
const (
	varRegistryDir = "registry_dir"
	varVendorDir   = "vendor_dir"
	varRootDir     = "root_dir"
	blockPlugin    = "plugin"
)

// Attribute names for descriptor fields that need special handling.
const (
	attrClass         = "class"
	attrBasePath      = "base_path"
	attrHandle        = "handle"
	attrAliases       = "aliases"
	attrHasCpSettings = "has_cp_settings"
	attrHasCpSection  = "has_cp_section"
	attrComponents    = "components"
	attrModules       = "modules"
)

// stringAttrs lists the optional plain-string descriptor fields in the order
// they are written.
var stringAttrs = []struct {
	name  string
	field func(*plugin.Descriptor) *string
}{
	{"name", func(d *plugin.Descriptor) *string { return &d.Name }},
	{"version", func(d *plugin.Descriptor) *string { return &d.Version }},
	{"schema_version", func(d *plugin.Descriptor) *string { return &d.SchemaVersion }},
	{"description", func(d *plugin.Descriptor) *string { return &d.Description }},
	{"developer", func(d *plugin.Descriptor) *string { return &d.Developer }},
	{"developer_url", func(d *plugin.Descriptor) *string { return &d.DeveloperURL }},
	{"developer_email", func(d *plugin.Descriptor) *string { return &d.DeveloperEmail }},
	{"documentation_url", func(d *plugin.Descriptor) *string { return &d.DocumentationURL }},
	{"changelog_url", func(d *plugin.Descriptor) *string { return &d.ChangelogURL }},
	{"download_url", func(d *plugin.Descriptor) *string { return &d.DownloadURL }},
	{"t9n_category", func(d *plugin.Descriptor) *string { return &d.T9nCategory }},
	{"source_language", func(d *plugin.Descriptor) *string { return &d.SourceLanguage }},
	{"min_version_required", func(d *plugin.Descriptor) *string { return &d.MinVersionRequired }},
}

// render produces the registry file for reg. registryDir is the directory the
// file will live in; vendor_dir and root_dir are written relative to it.
func render(reg Registry, tagger pathtag.Tagger, registryDir string) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	header := fmt.Sprintf("# Code generated by %s. DO NOT EDIT.\n", branding.CLIName())
	body.AppendUnstructuredTokens(hclwrite.Tokens{
		{Type: hclsyntax.TokenComment, Bytes: []byte(header)},
	})
	body.AppendNewline()
	body.SetAttributeRaw(varVendorDir, dirTokens(registryDir, tagger.VendorDir))
	body.SetAttributeRaw(varRootDir, dirTokens(registryDir, tagger.RootDir))

	for _, name := range reg.Names() {
		body.AppendNewline()
		block := body.AppendNewBlock(blockPlugin, []string{name})
		if err := writeDescriptor(block.Body(), reg[name], tagger); err != nil {
			return nil, fmt.Errorf("encoding plugin %s: %w", name, err)
		}
	}

	return hclwrite.Format(f.Bytes()), nil
}

func writeDescriptor(body *hclwrite.Body, d *plugin.Descriptor, tagger pathtag.Tagger) error {
	body.SetAttributeValue(attrClass, cty.StringVal(d.Class))
	body.SetAttributeRaw(attrBasePath, pathTokens(tagger.Tag(d.BasePath)))
	body.SetAttributeValue(attrHandle, cty.StringVal(d.Handle))

	if len(d.Aliases) > 0 {
		body.SetAttributeRaw(attrAliases, aliasTokens(d.Aliases, tagger))
	}

	for _, attr := range stringAttrs {
		if v := *attr.field(d); v != "" {
			body.SetAttributeValue(attr.name, cty.StringVal(v))
		}
	}

	if d.HasCpSettings != nil {
		body.SetAttributeValue(attrHasCpSettings, cty.BoolVal(*d.HasCpSettings))
	}
	if d.HasCpSection != nil {
		body.SetAttributeValue(attrHasCpSection, cty.BoolVal(*d.HasCpSection))
	}

	freeForm := []struct {
		name string
		m    map[string]any
	}{
		{attrComponents, d.Components},
		{attrModules, d.Modules},
	}
	for _, ff := range freeForm {
		if ff.m == nil {
			continue
		}
		val, err := toCty(ff.m)
		if err != nil {
			return fmt.Errorf("%s: %w", ff.name, err)
		}
		body.SetAttributeValue(ff.name, val)
	}

	return nil
}

// dirTokens expresses target relative to the registry directory, falling back
// to an absolute literal when no relative form exists.
func dirTokens(registryDir, target string) hclwrite.Tokens {
	if target == "" {
		return hclwrite.TokensForValue(cty.StringVal(""))
	}
	rel, err := filepath.Rel(registryDir, filepath.FromSlash(target))
	if err != nil || filepath.IsAbs(rel) {
		return hclwrite.TokensForValue(cty.StringVal(target))
	}
	return interpolate(varRegistryDir, "/"+filepath.ToSlash(rel))
}

// pathTokens turns a tagged path into a template that concatenates the
// matching directory variable with the remainder.
func pathTokens(tagged string) hclwrite.Tokens {
	switch tag, rest := pathtag.Split(tagged); tag {
	case pathtag.VendorTag:
		return interpolate(varVendorDir, rest)
	case pathtag.RootTag:
		return interpolate(varRootDir, rest)
	default:
		return hclwrite.TokensForValue(cty.StringVal(tagged))
	}
}

func aliasTokens(aliases map[string]string, tagger pathtag.Tagger) hclwrite.Tokens {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]hclwrite.ObjectAttrTokens, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, hclwrite.ObjectAttrTokens{
			Name:  hclwrite.TokensForValue(cty.StringVal(k)),
			Value: pathTokens(tagger.Tag(aliases[k])),
		})
	}
	return hclwrite.TokensForObject(attrs)
}

// interpolate builds "${varName}suffix". The suffix is escaped like any other
// quoted literal.
func interpolate(varName, suffix string) hclwrite.Tokens {
	lit := hclwrite.TokensForValue(cty.StringVal(suffix))
	toks := hclwrite.Tokens{
		{Type: hclsyntax.TokenOQuote, Bytes: []byte(`"`)},
		{Type: hclsyntax.TokenTemplateInterp, Bytes: []byte("${")},
		{Type: hclsyntax.TokenIdent, Bytes: []byte(varName)},
		{Type: hclsyntax.TokenTemplateSeqEnd, Bytes: []byte("}")},
	}
	// lit is OQuote [QuotedLit] CQuote; keep everything after the opening quote.
	return append(toks, lit[1:]...)
}

// toCty converts a free-form map into a cty object via its JSON form.
func toCty(m map[string]any) (cty.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return cty.NilVal, err
	}
	ty, err := ctyjson.ImpliedType(data)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(data, ty)
}
