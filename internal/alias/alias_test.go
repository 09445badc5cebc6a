package alias

import (
	"testing"

	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/spf13/afero"
)

const (
	vendorDir = "/project/vendor"
	rootDir   = "/project"
)

func touch(t *testing.T, fs afero.Fs, p string) {
	t.Helper()
	if err := afero.WriteFile(fs, p, []byte("<?php\n"), 0644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
}

func psr4(entries ...manifest.NamespacePaths) manifest.Autoload {
	return manifest.Autoload{PSR4: entries}
}

func ns(namespace string, paths ...string) manifest.NamespacePaths {
	return manifest.NamespacePaths{Namespace: namespace, Paths: paths}
}

func TestResolve_InfersPluginClassAndBasePath(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/project/vendor/acme/widget/src/Plugin.php")

	pkg := &manifest.Package{
		Name:       "acme/widget",
		PrettyName: "acme/widget",
		Autoload:   psr4(ns(`Acme\Widget\`, "src/")),
	}

	var class, basePath string
	aliases := New(fs, vendorDir, rootDir).Resolve(pkg, false, &class, &basePath)

	if class != `Acme\Widget\Plugin` {
		t.Errorf("class = %q", class)
	}
	if basePath != "/project/vendor/acme/widget/src" {
		t.Errorf("basePath = %q", basePath)
	}
	if got := aliases["@Acme/Widget"]; got != "/project/vendor/acme/widget/src" {
		t.Errorf("alias = %q (all: %v)", got, aliases)
	}
}

func TestResolve_KeepsExplicitValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/project/vendor/acme/widget/src/Plugin.php")

	pkg := &manifest.Package{
		PrettyName: "acme/widget",
		Autoload:   psr4(ns(`Acme\Widget\`, "src/")),
	}

	class := `Acme\Widget\Main`
	basePath := "/somewhere/else"
	New(fs, vendorDir, rootDir).Resolve(pkg, false, &class, &basePath)

	if class != `Acme\Widget\Main` || basePath != "/somewhere/else" {
		t.Errorf("explicit values overwritten: %q, %q", class, basePath)
	}
}

func TestResolve_BasePathForDeclaredClassInSubdirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/project/vendor/acme/widget/src/core/Main.php")

	pkg := &manifest.Package{
		PrettyName: "acme/widget",
		Autoload:   psr4(ns(`Acme\Widget\`, "src")),
	}

	class := `Acme\Widget\core\Main`
	var basePath string
	New(fs, vendorDir, rootDir).Resolve(pkg, false, &class, &basePath)

	if basePath != "/project/vendor/acme/widget/src/core" {
		t.Errorf("basePath = %q", basePath)
	}
}

func TestResolve_SkipsNamespacesWithMultipleDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/project/vendor/acme/widget/a/Plugin.php")

	pkg := &manifest.Package{
		PrettyName: "acme/widget",
		Autoload: psr4(
			ns(`Acme\Widget\`, "a/", "b/"),
			ns(`Acme\Extra\`, "extra/"),
		),
	}

	var class, basePath string
	aliases := New(fs, vendorDir, rootDir).Resolve(pkg, false, &class, &basePath)

	if _, ok := aliases["@Acme/Widget"]; ok {
		t.Errorf("multi-directory namespace should be skipped: %v", aliases)
	}
	if _, ok := aliases["@Acme/Extra"]; !ok {
		t.Errorf("single-directory namespace missing: %v", aliases)
	}
	if class != "" {
		t.Errorf("class should not be inferred from a skipped namespace, got %q", class)
	}
}

func TestResolve_RootPackageAnchorsAtWorkingDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/project/modules/site/Plugin.php")

	pkg := &manifest.Package{
		PrettyName: "acme/site",
		Autoload:   psr4(ns(`Site\`, "./modules/site/../site")),
	}

	var class, basePath string
	aliases := New(fs, vendorDir, rootDir).Resolve(pkg, true, &class, &basePath)

	if got := aliases["@Site"]; got != "/project/modules/site" {
		t.Errorf("alias = %q", got)
	}
	if class != `Site\Plugin` || basePath != "/project/modules/site" {
		t.Errorf("class/basePath = %q, %q", class, basePath)
	}
}

func TestResolve_AbsolutePathsUsedAsIs(t *testing.T) {
	fs := afero.NewMemMapFs()
	pkg := &manifest.Package{
		PrettyName: "acme/widget",
		Autoload:   psr4(ns(`Acme\Widget\`, "/opt/widget/src/")),
	}

	var class, basePath string
	aliases := New(fs, vendorDir, rootDir).Resolve(pkg, false, &class, &basePath)

	if got := aliases["@Acme/Widget"]; got != "/opt/widget/src" {
		t.Errorf("alias = %q", got)
	}
}

func TestResolve_NoAutoload(t *testing.T) {
	var class, basePath string
	aliases := New(afero.NewMemMapFs(), vendorDir, rootDir).Resolve(&manifest.Package{PrettyName: "a/b"}, false, &class, &basePath)
	if aliases != nil {
		t.Errorf("expected nil aliases, got %v", aliases)
	}
}

func TestResolve_CustomSourceExt(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/project/vendor/acme/widget/src/Plugin.inc")

	r := New(fs, vendorDir, rootDir)
	r.SourceExt = ".inc"

	pkg := &manifest.Package{
		PrettyName: "acme/widget",
		Autoload:   psr4(ns(`Acme\Widget\`, "src")),
	}

	var class, basePath string
	r.Resolve(pkg, false, &class, &basePath)
	if class != `Acme\Widget\Plugin` {
		t.Errorf("class = %q", class)
	}
}

func TestKey(t *testing.T) {
	tests := map[string]string{
		`Acme\Widget\`:  "@Acme/Widget",
		`\Acme\Widget\`: "@Acme/Widget",
		`Site`:          "@Site",
	}
	for in, want := range tests {
		if got := Key(in); got != want {
			t.Errorf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}
