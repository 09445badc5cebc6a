package branding

import "testing"

func TestEnvVar(t *testing.T) {
	if got := EnvVar("vendor_dir"); got != EnvPrefix()+"_VENDOR_DIR" {
		t.Errorf("EnvVar(vendor_dir) = %q", got)
	}
	if EnvPrefix() != "PLUGIN_INSTALLER" {
		t.Errorf("EnvPrefix = %q", EnvPrefix())
	}
}
