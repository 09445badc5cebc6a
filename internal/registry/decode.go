package registry

import (
	"fmt"
	"math/big"
	"path/filepath"

	"github.com/agentx-labs/plugin-installer/internal/pathtag"
	"github.com/agentx-labs/plugin-installer/internal/plugin"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var fileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: varVendorDir, Required: true},
		{Name: varRootDir, Required: true},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockPlugin, LabelNames: []string{"package"}},
	},
}

// parse evaluates a registry file located in registryDir. Each call uses its
// own parser, so nothing parsed earlier can be returned for a rewritten file.
func parse(src []byte, filename, registryDir string) (Registry, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	dirCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			varRegistryDir: cty.StringVal(filepath.ToSlash(registryDir)),
		},
	}
	vendorDir, err := evalDir(content.Attributes[varVendorDir], dirCtx)
	if err != nil {
		return nil, err
	}
	rootDir, err := evalDir(content.Attributes[varRootDir], dirCtx)
	if err != nil {
		return nil, err
	}

	tagger := pathtag.Tagger{VendorDir: vendorDir, RootDir: rootDir}
	pluginCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			varVendorDir: cty.StringVal(vendorDir),
			varRootDir:   cty.StringVal(rootDir),
		},
	}

	reg := New()
	for _, block := range content.Blocks {
		name := block.Labels[0]
		if _, dup := reg[name]; dup {
			return nil, fmt.Errorf("%s: duplicate plugin block for %s", block.DefRange, name)
		}
		d, err := decodeDescriptor(block.Body, pluginCtx, tagger)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", name, err)
		}
		reg[name] = d
	}

	return reg, nil
}

func evalDir(attr *hcl.Attribute, ctx *hcl.EvalContext) (string, error) {
	val, diags := attr.Expr.Value(ctx)
	if diags.HasErrors() {
		return "", fmt.Errorf("evaluating %s: %w", attr.Name, diags)
	}
	s, err := asString(val)
	if err != nil {
		return "", fmt.Errorf("%s: %w", attr.Name, err)
	}
	if s == "" {
		return "", nil
	}
	return pathtag.Normalize(s), nil
}

func decodeDescriptor(body hcl.Body, ctx *hcl.EvalContext, tagger pathtag.Tagger) (*plugin.Descriptor, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	fields := make(map[string]func(*plugin.Descriptor) *string, len(stringAttrs)+2)
	fields[attrClass] = func(d *plugin.Descriptor) *string { return &d.Class }
	fields[attrHandle] = func(d *plugin.Descriptor) *string { return &d.Handle }
	for _, attr := range stringAttrs {
		fields[attr.name] = attr.field
	}

	d := &plugin.Descriptor{}
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return nil, diags
		}

		var err error
		switch name {
		case attrBasePath:
			var s string
			s, err = asString(val)
			d.BasePath = tagger.Untag(s)
		case attrAliases:
			d.Aliases, err = asStringMap(val)
			for k, v := range d.Aliases {
				d.Aliases[k] = tagger.Untag(v)
			}
		case attrHasCpSettings:
			d.HasCpSettings, err = asBool(val)
		case attrHasCpSection:
			d.HasCpSection, err = asBool(val)
		case attrComponents:
			d.Components, err = asAnyMap(val)
		case attrModules:
			d.Modules, err = asAnyMap(val)
		default:
			field, ok := fields[name]
			if !ok {
				return nil, fmt.Errorf("%s: unsupported attribute %q", attr.NameRange, name)
			}
			*field(d), err = asString(val)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	if d.Class == "" || d.BasePath == "" || d.Handle == "" {
		return nil, fmt.Errorf("class, base_path and handle are required")
	}
	return d, nil
}

func asString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	v, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("value is not known")
	}
	return v.AsString(), nil
}

func asBool(val cty.Value) (*bool, error) {
	if val.IsNull() {
		return nil, nil
	}
	v, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return nil, err
	}
	b := v.True()
	return &b, nil
}

func asStringMap(val cty.Value) (map[string]string, error) {
	if val.IsNull() {
		return nil, nil
	}
	v, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, v.LengthInt())
	for k, elem := range v.AsValueMap() {
		if elem.IsNull() {
			continue
		}
		out[k] = elem.AsString()
	}
	return out, nil
}

// asAnyMap converts an object value back to plain Go values. Whole numbers
// come back as int, matching what the manifest decoder produces.
func asAnyMap(val cty.Value) (map[string]any, error) {
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", ty.FriendlyName())
	}
	v, err := toGo(val)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func toGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for k, elem := range val.AsValueMap() {
			v, err := toGo(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for _, elem := range val.AsValueSlice() {
			v, err := toGo(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
	}
}
