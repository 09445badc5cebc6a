package registry

import (
	"sort"

	"github.com/agentx-labs/plugin-installer/internal/plugin"
)

// Registry maps package names to plugin descriptors.
type Registry map[string]*plugin.Descriptor

// New returns an empty registry.
func New() Registry {
	return make(Registry)
}

// Register adds or replaces the descriptor for a package.
func (r Registry) Register(name string, d *plugin.Descriptor) {
	r[name] = d
}

// Unregister removes a package and returns its descriptor, if it was present.
func (r Registry) Unregister(name string) (*plugin.Descriptor, bool) {
	d, ok := r[name]
	if ok {
		delete(r, name)
	}
	return d, ok
}

// Get returns the descriptor for a package.
func (r Registry) Get(name string) (*plugin.Descriptor, bool) {
	d, ok := r[name]
	return d, ok
}

// Names returns the registered package names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep-enough copy: descriptors are cloned, free-form
// component values are shared.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for name, d := range r {
		out[name] = d.Clone()
	}
	return out
}
