package plugin

// Descriptor is the registry record for one installed plugin. Class, BasePath
// and Handle are always set on a descriptor produced by Build.
type Descriptor struct {
	Class              string            `json:"class"`
	BasePath           string            `json:"basePath"`
	Handle             string            `json:"handle"`
	Aliases            map[string]string `json:"aliases,omitempty"`
	Name               string            `json:"name,omitempty"`
	Version            string            `json:"version,omitempty"`
	SchemaVersion      string            `json:"schemaVersion,omitempty"`
	Description        string            `json:"description,omitempty"`
	Developer          string            `json:"developer,omitempty"`
	DeveloperURL       string            `json:"developerUrl,omitempty"`
	DeveloperEmail     string            `json:"developerEmail,omitempty"`
	DocumentationURL   string            `json:"documentationUrl,omitempty"`
	ChangelogURL       string            `json:"changelogUrl,omitempty"`
	DownloadURL        string            `json:"downloadUrl,omitempty"`
	T9nCategory        string            `json:"t9nCategory,omitempty"`
	SourceLanguage     string            `json:"sourceLanguage,omitempty"`
	HasCpSettings      *bool             `json:"hasCpSettings,omitempty"`
	HasCpSection       *bool             `json:"hasCpSection,omitempty"`
	Components         map[string]any    `json:"components,omitempty"`
	Modules            map[string]any    `json:"modules,omitempty"`
	MinVersionRequired string            `json:"minVersionRequired,omitempty"`
}

// Clone returns a copy whose maps can be modified independently. Nested
// values inside Components and Modules are shared.
func (d *Descriptor) Clone() *Descriptor {
	if d == nil {
		return nil
	}
	c := *d
	c.Aliases = cloneMap(d.Aliases)
	c.Components = cloneMap(d.Components)
	c.Modules = cloneMap(d.Modules)
	if d.HasCpSettings != nil {
		v := *d.HasCpSettings
		c.HasCpSettings = &v
	}
	if d.HasCpSection != nil {
		v := *d.HasCpSection
		c.HasCpSection = &v
	}
	return &c
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
