// Package library is the default installer delegate. It places a package's
// files under <vendor>/<pretty-name> and removes them again.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/agentx-labs/plugin-installer/internal/logging"
	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent file copies when Installer.Concurrency
// is unset.
const DefaultConcurrency = 8

// excludedNames are skipped while copying a package.
var excludedNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".DS_Store":    true,
}

// Installer copies package sources into the vendor directory.
type Installer struct {
	Fs          afero.Fs
	VendorDir   string
	Concurrency int
}

// New returns an Installer for vendorDir.
func New(fsys afero.Fs, vendorDir string) *Installer {
	return &Installer{Fs: fsys, VendorDir: vendorDir, Concurrency: DefaultConcurrency}
}

// InstallPath is where pkg lives once installed.
func (i *Installer) InstallPath(pkg *manifest.Package) string {
	return filepath.Join(i.VendorDir, filepath.FromSlash(pkg.PrettyName))
}

// Install copies pkg.Dir to the package's install path, replacing anything
// already there. A package whose manifest already sits at its install path is
// left alone.
func (i *Installer) Install(ctx context.Context, pkg *manifest.Package) error {
	dst := i.InstallPath(pkg)
	if samePath(pkg.Dir, dst) {
		logging.FromContext(ctx).Debug("package already in place", "package", pkg.PrettyName, "path", dst)
		return nil
	}
	if pkg.Dir == "" {
		return fmt.Errorf("installing %s: package has no source directory", pkg.PrettyName)
	}

	if err := i.Fs.RemoveAll(dst); err != nil {
		return fmt.Errorf("removing existing installation at %s: %w", dst, err)
	}
	if err := i.copyDir(ctx, pkg.Dir, dst); err != nil {
		return fmt.Errorf("copying %s to %s: %w", pkg.Dir, dst, err)
	}

	logging.FromContext(ctx).Debug("package installed", "package", pkg.PrettyName, "path", dst)
	return nil
}

// Update replaces the files of initial with those of target. The initial
// install directory is moved to a sibling backup first, where it stays until
// FinalizeUpdate drops it or RevertUpdate moves it back.
func (i *Installer) Update(ctx context.Context, initial, target *manifest.Package) error {
	old := i.InstallPath(initial)
	backup := backupPath(old)

	setAside := false
	if !samePath(old, target.Dir) {
		var err error
		if setAside, err = i.setAside(old, backup); err != nil {
			return err
		}
	}

	if err := i.Install(ctx, target); err != nil {
		if setAside {
			if rerr := i.restore(old, backup, i.InstallPath(target)); rerr != nil {
				return errors.Join(err, rerr)
			}
		}
		return err
	}
	return nil
}

// RevertUpdate undoes Update(initial, target). The target's files are removed
// and the initial files set aside by Update are moved back. When nothing was
// set aside the initial package is copied from its source directory.
func (i *Installer) RevertUpdate(ctx context.Context, initial, target *manifest.Package) error {
	old, dst := i.InstallPath(initial), i.InstallPath(target)
	backup := backupPath(old)

	_, err := i.Fs.Stat(backup)
	switch {
	case err == nil:
		if samePath(target.Dir, dst) {
			dst = ""
		}
		if err := i.restore(old, backup, dst); err != nil {
			return err
		}
		logging.FromContext(ctx).Debug("initial files restored", "package", initial.PrettyName, "path", old)
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("checking %s: %w", backup, err)
	}

	if initial.Dir == "" || samePath(initial.Dir, old) {
		return fmt.Errorf("reverting %s: no copy of the initial files to restore", initial.PrettyName)
	}
	if dst != old && !samePath(target.Dir, dst) {
		if err := i.Fs.RemoveAll(dst); err != nil {
			return fmt.Errorf("removing %s: %w", dst, err)
		}
	}
	return i.Install(ctx, initial)
}

// FinalizeUpdate drops the initial files set aside by Update(initial, target).
func (i *Installer) FinalizeUpdate(ctx context.Context, initial, target *manifest.Package) error {
	backup := backupPath(i.InstallPath(initial))
	if err := i.Fs.RemoveAll(backup); err != nil {
		return fmt.Errorf("removing %s: %w", backup, err)
	}
	return nil
}

// setAside moves path to backup, replacing any stale backup. It reports
// whether there was anything to move.
func (i *Installer) setAside(path, backup string) (bool, error) {
	if err := i.Fs.RemoveAll(backup); err != nil {
		return false, fmt.Errorf("removing stale backup %s: %w", backup, err)
	}
	if _, err := i.Fs.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	if err := i.Fs.Rename(path, backup); err != nil {
		return false, fmt.Errorf("setting aside %s: %w", path, err)
	}
	return true, nil
}

// restore removes discard (when set) and path, then moves backup to path.
func (i *Installer) restore(path, backup, discard string) error {
	for _, dir := range []string{discard, path} {
		if dir == "" {
			continue
		}
		if err := i.Fs.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}
	if err := i.Fs.Rename(backup, path); err != nil {
		return fmt.Errorf("restoring %s: %w", path, err)
	}
	return nil
}

// Uninstall removes the package's install path. Removing a package that is
// not installed succeeds.
func (i *Installer) Uninstall(ctx context.Context, pkg *manifest.Package) error {
	dir := i.InstallPath(pkg)

	info, err := i.Fs.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := i.Fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}

	logging.FromContext(ctx).Debug("package removed", "package", pkg.PrettyName, "path", dir)
	return nil
}

type copyJob struct {
	src, dst string
	mode     os.FileMode
}

// copyDir recreates the directory tree of src under dst, then copies regular
// files on a bounded worker group. Excluded names and symlinks are skipped.
func (i *Installer) copyDir(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var jobs []copyJob

	err := afero.Walk(i.Fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != src && excludedNames[info.Name()] {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return i.Fs.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode().IsRegular():
			jobs = append(jobs, copyJob{src: path, dst: target, mode: info.Mode().Perm()})
		}
		return nil
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency())
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return i.copyFile(job)
		})
	}
	return g.Wait()
}

func (i *Installer) copyFile(job copyJob) error {
	data, err := afero.ReadFile(i.Fs, job.src)
	if err != nil {
		return err
	}
	return afero.WriteFile(i.Fs, job.dst, data, job.mode)
}

func (i *Installer) concurrency() int {
	if i.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return i.Concurrency
}

// backupPath is the sibling directory Update sets an install path aside in,
// e.g. vendor/acme/.widget.previous.
func backupPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".previous")
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
