package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/agentx-labs/plugin-installer/internal/installer"
	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/spf13/afero"
)

const vendorDir = "/srv/app/vendor"

var _ installer.UpdateReverter = (*Installer)(nil)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func sourcePackage(t *testing.T, fs afero.Fs, dir, prettyName, version string) *manifest.Package {
	t.Helper()
	writeFile(t, fs, filepath.Join(dir, "composer.json"), `{"name": "`+prettyName+`"}`)
	writeFile(t, fs, filepath.Join(dir, "src", "Plugin.php"), "<?php // "+version)
	writeFile(t, fs, filepath.Join(dir, "src", "services", "Cache.php"), "<?php")
	writeFile(t, fs, filepath.Join(dir, ".git", "HEAD"), "ref: main")
	writeFile(t, fs, filepath.Join(dir, "node_modules", "dep", "index.js"), "")
	writeFile(t, fs, filepath.Join(dir, "vendor", "autoload.php"), "<?php")
	writeFile(t, fs, filepath.Join(dir, ".DS_Store"), "")
	return &manifest.Package{
		Name:       prettyName,
		PrettyName: prettyName,
		Version:    version,
		Dir:        dir,
	}
}

func exists(fs afero.Fs, path string) bool {
	ok, _ := afero.Exists(fs, path)
	return ok
}

func TestInstallCopiesPackage(t *testing.T) {
	fs := afero.NewMemMapFs()
	pkg := sourcePackage(t, fs, "/work/widget", "acme/widget", "1.0.0")
	inst := New(fs, vendorDir)

	if err := inst.Install(context.Background(), pkg); err != nil {
		t.Fatalf("Install: %v", err)
	}

	dst := "/srv/app/vendor/acme/widget"
	if got := inst.InstallPath(pkg); got != dst {
		t.Errorf("InstallPath = %q, want %q", got, dst)
	}
	for _, want := range []string{"composer.json", "src/Plugin.php", "src/services/Cache.php"} {
		if !exists(fs, filepath.Join(dst, want)) {
			t.Errorf("%s not copied", want)
		}
	}
	for _, excluded := range []string{".git", "node_modules", "vendor", ".DS_Store"} {
		if exists(fs, filepath.Join(dst, excluded)) {
			t.Errorf("%s should have been excluded", excluded)
		}
	}
}

func TestInstallReplacesExistingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/srv/app/vendor/acme/widget/stale.php", "<?php")
	pkg := sourcePackage(t, fs, "/work/widget", "acme/widget", "1.0.0")

	if err := New(fs, vendorDir).Install(context.Background(), pkg); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if exists(fs, "/srv/app/vendor/acme/widget/stale.php") {
		t.Error("stale file survived reinstall")
	}
}

func TestInstallInPlaceIsNoop(t *testing.T) {
	fs := afero.NewMemMapFs()
	pkg := sourcePackage(t, fs, "/srv/app/vendor/acme/widget", "acme/widget", "1.0.0")

	if err := New(fs, vendorDir).Install(context.Background(), pkg); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if !exists(fs, "/srv/app/vendor/acme/widget/.git/HEAD") {
		t.Error("in-place install modified the package directory")
	}
}

func TestInstallHonorsCancellation(t *testing.T) {
	fs := afero.NewMemMapFs()
	pkg := sourcePackage(t, fs, "/work/widget", "acme/widget", "1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(fs, vendorDir).Install(ctx, pkg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestUpdateReplacesInstalledVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	inst := New(fs, vendorDir)
	ctx := context.Background()

	initial := sourcePackage(t, fs, "/work/widget-1", "acme/widget", "1.0.0")
	if err := inst.Install(ctx, initial); err != nil {
		t.Fatalf("Install: %v", err)
	}
	writeFile(t, fs, "/srv/app/vendor/acme/widget/src/Removed.php", "<?php")

	target := sourcePackage(t, fs, "/work/widget-2", "acme/widget", "2.0.0")
	if err := inst.Update(ctx, initial, target); err != nil {
		t.Fatalf("Update: %v", err)
	}

	data, err := afero.ReadFile(fs, "/srv/app/vendor/acme/widget/src/Plugin.php")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<?php // 2.0.0" {
		t.Errorf("Plugin.php = %q", data)
	}
	if exists(fs, "/srv/app/vendor/acme/widget/src/Removed.php") {
		t.Error("file from the initial version survived the update")
	}
}

func TestUpdateRenamedPackageRemovesOldPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	inst := New(fs, vendorDir)
	ctx := context.Background()

	initial := sourcePackage(t, fs, "/work/old", "acme/old-widget", "1.0.0")
	if err := inst.Install(ctx, initial); err != nil {
		t.Fatalf("Install: %v", err)
	}
	target := sourcePackage(t, fs, "/work/new", "acme/widget", "2.0.0")
	if err := inst.Update(ctx, initial, target); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if exists(fs, "/srv/app/vendor/acme/old-widget") {
		t.Error("old install path still present")
	}
	if !exists(fs, "/srv/app/vendor/acme/widget/src/Plugin.php") {
		t.Error("new install path missing")
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// installedWidget installs version 1.0.0 of acme/widget and returns the
// package as read back from its install path.
func installedWidget(t *testing.T, fs afero.Fs, inst *Installer) *manifest.Package {
	t.Helper()
	src := sourcePackage(t, fs, "/work/widget-1", "acme/widget", "1.0.0")
	if err := inst.Install(context.Background(), src); err != nil {
		t.Fatalf("Install: %v", err)
	}
	writeFile(t, fs, "/srv/app/vendor/acme/widget/config/local.php", "<?php // local")
	installed := *src
	installed.Dir = inst.InstallPath(src)
	return &installed
}

func TestRevertUpdateRestoresInitialFiles(t *testing.T) {
	tests := []struct {
		name    string
		initial func(installed *manifest.Package) *manifest.Package
	}{
		{"installed copy", func(installed *manifest.Package) *manifest.Package { return installed }},
		{"bare name", func(installed *manifest.Package) *manifest.Package {
			return &manifest.Package{Name: installed.Name, PrettyName: installed.PrettyName, Version: installed.Version}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			inst := New(fs, vendorDir)
			ctx := context.Background()

			initial := tt.initial(installedWidget(t, fs, inst))
			target := sourcePackage(t, fs, "/work/widget-2", "acme/widget", "2.0.0")

			if err := inst.Update(ctx, initial, target); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got := readFile(t, fs, "/srv/app/vendor/acme/widget/src/Plugin.php"); got != "<?php // 2.0.0" {
				t.Fatalf("after update Plugin.php = %q", got)
			}

			if err := inst.RevertUpdate(ctx, initial, target); err != nil {
				t.Fatalf("RevertUpdate: %v", err)
			}
			if got := readFile(t, fs, "/srv/app/vendor/acme/widget/src/Plugin.php"); got != "<?php // 1.0.0" {
				t.Errorf("after revert Plugin.php = %q, want the initial version", got)
			}
			if !exists(fs, "/srv/app/vendor/acme/widget/config/local.php") {
				t.Error("revert did not bring back files only present in the install path")
			}
			if exists(fs, "/srv/app/vendor/acme/.widget.previous") {
				t.Error("backup left behind after revert")
			}
		})
	}
}

func TestRevertUpdateRenamedPackage(t *testing.T) {
	fs := afero.NewMemMapFs()
	inst := New(fs, vendorDir)
	ctx := context.Background()

	initial := sourcePackage(t, fs, "/work/old", "acme/old-widget", "1.0.0")
	if err := inst.Install(ctx, initial); err != nil {
		t.Fatalf("Install: %v", err)
	}
	target := sourcePackage(t, fs, "/work/new", "acme/widget", "2.0.0")
	if err := inst.Update(ctx, initial, target); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := inst.RevertUpdate(ctx, initial, target); err != nil {
		t.Fatalf("RevertUpdate: %v", err)
	}
	if exists(fs, "/srv/app/vendor/acme/widget") {
		t.Error("target install path survived the revert")
	}
	if got := readFile(t, fs, "/srv/app/vendor/acme/old-widget/src/Plugin.php"); got != "<?php // 1.0.0" {
		t.Errorf("old install path Plugin.php = %q", got)
	}
}

func TestRevertUpdateWithoutBackup(t *testing.T) {
	fs := afero.NewMemMapFs()
	inst := New(fs, vendorDir)
	ctx := context.Background()

	// Nothing was installed before the update, so there is nothing to set aside.
	initial := sourcePackage(t, fs, "/work/widget-1", "acme/widget", "1.0.0")
	target := sourcePackage(t, fs, "/work/widget-2", "acme/widget", "2.0.0")
	if err := inst.Update(ctx, initial, target); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := inst.RevertUpdate(ctx, initial, target); err != nil {
		t.Fatalf("RevertUpdate: %v", err)
	}
	if got := readFile(t, fs, "/srv/app/vendor/acme/widget/src/Plugin.php"); got != "<?php // 1.0.0" {
		t.Errorf("Plugin.php = %q, want a copy of the initial source", got)
	}

	bare := &manifest.Package{Name: "acme/widget", PrettyName: "acme/widget", Version: "1.0.0"}
	if err := inst.RevertUpdate(ctx, bare, target); err == nil {
		t.Error("expected an error when there is neither a backup nor a source directory")
	}
}

func TestFinalizeUpdateDropsBackup(t *testing.T) {
	fs := afero.NewMemMapFs()
	inst := New(fs, vendorDir)
	ctx := context.Background()

	initial := installedWidget(t, fs, inst)
	target := sourcePackage(t, fs, "/work/widget-2", "acme/widget", "2.0.0")
	if err := inst.Update(ctx, initial, target); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !exists(fs, "/srv/app/vendor/acme/.widget.previous/src/Plugin.php") {
		t.Fatal("update did not set the initial files aside")
	}

	if err := inst.FinalizeUpdate(ctx, initial, target); err != nil {
		t.Fatalf("FinalizeUpdate: %v", err)
	}
	if exists(fs, "/srv/app/vendor/acme/.widget.previous") {
		t.Error("backup survived FinalizeUpdate")
	}
	if got := readFile(t, fs, "/srv/app/vendor/acme/widget/src/Plugin.php"); got != "<?php // 2.0.0" {
		t.Errorf("Plugin.php = %q", got)
	}
}

func TestUpdateFailureRestoresInitial(t *testing.T) {
	fs := afero.NewMemMapFs()
	inst := New(fs, vendorDir)

	initial := installedWidget(t, fs, inst)
	target := &manifest.Package{Name: "acme/widget", PrettyName: "acme/widget", Version: "2.0.0"}

	if err := inst.Update(context.Background(), initial, target); err == nil {
		t.Fatal("expected an error for a target without a source directory")
	}
	if got := readFile(t, fs, "/srv/app/vendor/acme/widget/src/Plugin.php"); got != "<?php // 1.0.0" {
		t.Errorf("Plugin.php = %q, want the initial version back", got)
	}
	if exists(fs, "/srv/app/vendor/acme/.widget.previous") {
		t.Error("backup left behind after a failed update")
	}
}

func TestUninstall(t *testing.T) {
	fs := afero.NewMemMapFs()
	inst := New(fs, vendorDir)
	ctx := context.Background()

	pkg := sourcePackage(t, fs, "/work/widget", "acme/widget", "1.0.0")
	if err := inst.Install(ctx, pkg); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if err := inst.Uninstall(ctx, pkg); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if exists(fs, "/srv/app/vendor/acme/widget") {
		t.Error("install path still present")
	}
	if !exists(fs, "/work/widget/src/Plugin.php") {
		t.Error("uninstall touched the source directory")
	}

	// A second uninstall is a no-op.
	if err := inst.Uninstall(ctx, pkg); err != nil {
		t.Errorf("Uninstall of absent package: %v", err)
	}
}

func TestUninstallRejectsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/srv/app/vendor/acme/widget", "not a directory")

	pkg := &manifest.Package{Name: "acme/widget", PrettyName: "acme/widget"}
	if err := New(fs, vendorDir).Uninstall(context.Background(), pkg); err == nil {
		t.Error("expected an error when the install path is a file")
	}
}
