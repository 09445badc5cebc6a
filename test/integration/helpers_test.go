//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/plugin-installer/internal/alias"
	"github.com/agentx-labs/plugin-installer/internal/installer"
	"github.com/agentx-labs/plugin-installer/internal/library"
	"github.com/agentx-labs/plugin-installer/internal/logging"
	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/agentx-labs/plugin-installer/internal/plugin"
	"github.com/agentx-labs/plugin-installer/internal/registry"
	"github.com/spf13/afero"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	ProjectDir string // project root
	VendorDir  string // <project>/vendor
	SourcesDir string // where package sources are prepared before install
}

// setupTestEnv creates an isolated project and a separate sources directory.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	project := t.TempDir()
	env := &testEnv{
		ProjectDir: project,
		VendorDir:  filepath.Join(project, "vendor"),
		SourcesDir: t.TempDir(),
	}
	if err := os.MkdirAll(env.VendorDir, 0755); err != nil {
		t.Fatalf("creating vendor dir: %v", err)
	}
	return env
}

// store returns a registry store for the environment.
func (e *testEnv) store() *registry.Store {
	return registry.NewStore(afero.NewOsFs(), e.VendorDir, e.ProjectDir, "")
}

// newInstaller wires the real delegate, builder and store together, the same
// way the CLI does.
func (e *testEnv) newInstaller() *installer.Installer {
	fs := afero.NewOsFs()
	store := e.store()
	return installer.New(
		library.New(fs, e.VendorDir),
		plugin.NewBuilder(alias.New(fs, e.VendorDir, e.ProjectDir)),
		store,
		installer.WithLocker(registry.NewFileLock(store.LockPath())),
		installer.WithLogger(logging.Discard()),
	)
}

func (e *testEnv) registryPath() string {
	return filepath.Join(e.VendorDir, "craftcms", "plugins.hcl")
}

// writePackage creates a package source at SourcesDir/<dir> with a manifest
// and a Plugin class file under src/, and parses it.
func writePackage(t *testing.T, env *testEnv, dir, manifestJSON string) *manifest.Package {
	t.Helper()
	root := filepath.Join(env.SourcesDir, dir)
	writeFile(t, filepath.Join(root, "composer.json"), manifestJSON)
	writeFile(t, filepath.Join(root, "src", "Plugin.php"), "<?php\n")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")

	pkg, err := manifest.ParseFile(root)
	if err != nil {
		t.Fatalf("parsing %s: %v", root, err)
	}
	return pkg
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// readFile returns the file contents or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
