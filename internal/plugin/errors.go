package plugin

import (
	"errors"
	"fmt"

	"github.com/agentx-labs/plugin-installer/internal/manifest"
)

// ErrInvalidPluginManifest matches every InvalidManifestError via errors.Is.
var ErrInvalidPluginManifest = errors.New("invalid plugin manifest")

// Reasons reported by Build.
const (
	ReasonNoClass       = "unable to determine the plugin class"
	ReasonNoBasePath    = "unable to determine the base path"
	ReasonInvalidHandle = manifest.InvalidHandle
)

// InvalidManifestError reports a manifest that cannot be turned into a
// plugin descriptor.
type InvalidManifestError struct {
	Package string
	Reason  string
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("couldn't register plugin %s: %s", e.Package, e.Reason)
}

// Is reports whether target is ErrInvalidPluginManifest.
func (e *InvalidManifestError) Is(target error) bool {
	return target == ErrInvalidPluginManifest
}
