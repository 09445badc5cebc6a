package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/agentx-labs/plugin-installer/internal/branding"
	"github.com/agentx-labs/plugin-installer/internal/pathtag"
	"github.com/spf13/afero"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Store loads and saves the registry file at <vendor>/<namespace>/plugins.hcl.
type Store struct {
	fs     afero.Fs
	path   string
	tagger pathtag.Tagger
}

// NewStore returns a Store for the registry of the project rooted at rootDir
// whose vendor directory is vendorDir. Both should be absolute.
func NewStore(fsys afero.Fs, vendorDir, rootDir, namespace string) *Store {
	if namespace == "" {
		namespace = branding.RegistryNamespace()
	}
	return &Store{
		fs:     fsys,
		path:   filepath.Join(vendorDir, namespace, branding.RegistryFile()),
		tagger: pathtag.New(vendorDir, rootDir),
	}
}

// Path returns the registry file path.
func (s *Store) Path() string {
	return s.path
}

// LockPath returns the path of the advisory lock file guarding the registry.
func (s *Store) LockPath() string {
	return s.path + ".lock"
}

// Load reads the registry file. A missing file yields an empty registry.
func (s *Store) Load() (Registry, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", s.path, err)
	}

	reg, err := parse(data, s.path, filepath.Dir(s.path))
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	return reg, nil
}

// Save rewrites the whole registry file. The content is written to a
// temporary file in the same directory and renamed into place.
func (s *Store) Save(reg Registry) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return &FilesystemError{Op: "creating directory", Path: dir, Err: err}
	}

	data, err := render(reg, s.tagger, dir)
	if err != nil {
		return fmt.Errorf("rendering registry: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".plugins-*.tmp")
	if err != nil {
		return &FilesystemError{Op: "creating temp file in", Path: dir, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return &FilesystemError{Op: "writing", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return &FilesystemError{Op: "closing", Path: tmpName, Err: err}
	}
	if err := s.fs.Chmod(tmpName, filePerm); err != nil {
		s.fs.Remove(tmpName)
		return &FilesystemError{Op: "setting permissions on", Path: tmpName, Err: err}
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return &FilesystemError{Op: "writing", Path: s.path, Err: err}
	}

	return nil
}
