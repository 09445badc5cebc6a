package installer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/agentx-labs/plugin-installer/internal/logging"
	"github.com/agentx-labs/plugin-installer/internal/manifest"
	"github.com/agentx-labs/plugin-installer/internal/plugin"
	"github.com/agentx-labs/plugin-installer/internal/registry"
)

// Delegate performs the file-level install, update and uninstall of a
// package. Each call blocks until the step is complete.
type Delegate interface {
	Install(ctx context.Context, pkg *manifest.Package) error
	Update(ctx context.Context, initial, target *manifest.Package) error
	Uninstall(ctx context.Context, pkg *manifest.Package) error
}

// UpdateReverter is implemented by delegates that keep the initial files of
// an update until the hook ends. RevertUpdate undoes a delegate Update and
// FinalizeUpdate releases what was kept once the update stands.
type UpdateReverter interface {
	RevertUpdate(ctx context.Context, initial, target *manifest.Package) error
	FinalizeUpdate(ctx context.Context, initial, target *manifest.Package) error
}

// Builder turns a manifest into a plugin descriptor.
type Builder interface {
	Build(pkg *manifest.Package, isRoot bool) (*plugin.Descriptor, []string, error)
}

// Store loads and persists the registry.
type Store interface {
	Load() (registry.Registry, error)
	Save(reg registry.Registry) error
}

// Locker serializes registry access across processes.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// Result describes how a hook invocation ended.
type Result struct {
	Package    string
	State      State
	Warnings   []string
	Descriptor *plugin.Descriptor
}

// Installer runs the hooks against one registry.
type Installer struct {
	delegate Delegate
	builder  Builder
	store    Store
	locker   Locker
	logger   *slog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithLocker guards every hook's load-to-save window with l.
func WithLocker(l Locker) Option {
	return func(i *Installer) { i.locker = l }
}

// WithLogger sets the logger used instead of the one carried by the context.
func WithLogger(l *slog.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// New returns an Installer.
func New(delegate Delegate, builder Builder, store Store, opts ...Option) *Installer {
	i := &Installer{delegate: delegate, builder: builder, store: store}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install runs the delegate install and registers the package. If the
// manifest does not describe a valid plugin the delegate install is undone.
func (i *Installer) Install(ctx context.Context, pkg *manifest.Package) (*Result, error) {
	t := newTxn("install", pkg.Name, i.log(ctx))

	unlock, err := i.lock(ctx)
	if err != nil {
		return t.fail(err)
	}
	defer i.unlock(t, unlock)

	reg, err := i.store.Load()
	if err != nil {
		return t.fail(err)
	}

	t.transition(Delegating)
	if err := i.delegate.Install(ctx, pkg); err != nil {
		return t.fail(err)
	}
	t.onRollback(func(ctx context.Context) error {
		return i.delegate.Uninstall(ctx, pkg)
	})

	t.transition(Registering)
	d, warnings, err := i.builder.Build(pkg, false)
	t.warn(warnings)
	if err != nil {
		return t.rollback(ctx, err)
	}
	reg.Register(pkg.Name, d)
	t.result.Descriptor = d

	// The delegate step stays in place when the registry cannot be written.
	if err := i.store.Save(reg); err != nil {
		return t.fail(err)
	}
	return t.commit()
}

// Update replaces the registry entry of initial with one built from target.
// If target is not a valid plugin the delegate update is reversed and the
// previous entry restored.
func (i *Installer) Update(ctx context.Context, initial, target *manifest.Package) (*Result, error) {
	t := newTxn("update", target.Name, i.log(ctx))

	unlock, err := i.lock(ctx)
	if err != nil {
		return t.fail(err)
	}
	defer i.unlock(t, unlock)

	reg, err := i.store.Load()
	if err != nil {
		return t.fail(err)
	}
	previous, hadPrevious := reg.Unregister(initial.Name)

	t.logger.Info(direction(initial.Version, target.Version), "from", initial.Version, "to", target.Version)

	t.transition(Delegating)
	if err := i.delegate.Update(ctx, initial, target); err != nil {
		return t.fail(err)
	}
	t.onRollback(func(ctx context.Context) error {
		if err := i.revertUpdate(ctx, initial, target); err != nil {
			return err
		}
		if hadPrevious {
			reg.Register(initial.Name, previous)
		}
		return i.store.Save(reg)
	})

	t.transition(Registering)
	d, warnings, err := i.builder.Build(target, false)
	t.warn(warnings)
	if err != nil {
		return t.rollback(ctx, err)
	}
	reg.Register(target.Name, d)
	t.result.Descriptor = d

	// The target's files stay in place from here on, saved or not.
	i.finalizeUpdate(ctx, t, initial, target)
	if err := i.store.Save(reg); err != nil {
		return t.fail(err)
	}
	return t.commit()
}

func (i *Installer) revertUpdate(ctx context.Context, initial, target *manifest.Package) error {
	if r, ok := i.delegate.(UpdateReverter); ok {
		return r.RevertUpdate(ctx, initial, target)
	}
	return i.delegate.Update(ctx, target, initial)
}

func (i *Installer) finalizeUpdate(ctx context.Context, t *txn, initial, target *manifest.Package) {
	r, ok := i.delegate.(UpdateReverter)
	if !ok {
		return
	}
	if err := r.FinalizeUpdate(ctx, initial, target); err != nil {
		t.warn([]string{fmt.Sprintf("discarding the files of %s %s: %v", initial.PrettyName, initial.Version, err)})
	}
}

// Uninstall runs the delegate uninstall and then drops the package from the
// registry. When the delegate fails the registry is left untouched.
// Uninstalling a package that is not registered succeeds.
func (i *Installer) Uninstall(ctx context.Context, pkg *manifest.Package) (*Result, error) {
	t := newTxn("uninstall", pkg.Name, i.log(ctx))

	unlock, err := i.lock(ctx)
	if err != nil {
		return t.fail(err)
	}
	defer i.unlock(t, unlock)

	reg, err := i.store.Load()
	if err != nil {
		return t.fail(err)
	}

	t.transition(Delegating)
	if err := i.delegate.Uninstall(ctx, pkg); err != nil {
		return t.fail(err)
	}

	t.transition(Registering)
	d, ok := reg.Unregister(pkg.Name)
	if !ok {
		t.logger.Debug("package was not registered")
		return t.commit()
	}
	t.result.Descriptor = d

	if err := i.store.Save(reg); err != nil {
		return t.fail(err)
	}
	return t.commit()
}

// RegisterRoot registers the project's own manifest. Its autoload paths are
// anchored at the working directory and there is no delegate step.
func (i *Installer) RegisterRoot(ctx context.Context, pkg *manifest.Package) (*Result, error) {
	t := newTxn("register-root", pkg.Name, i.log(ctx))

	unlock, err := i.lock(ctx)
	if err != nil {
		return t.fail(err)
	}
	defer i.unlock(t, unlock)

	reg, err := i.store.Load()
	if err != nil {
		return t.fail(err)
	}

	t.transition(Registering)
	d, warnings, err := i.builder.Build(pkg, true)
	t.warn(warnings)
	if err != nil {
		return t.fail(err)
	}
	reg.Register(pkg.Name, d)
	t.result.Descriptor = d

	if err := i.store.Save(reg); err != nil {
		return t.fail(err)
	}
	return t.commit()
}

func (i *Installer) log(ctx context.Context) *slog.Logger {
	if i.logger != nil {
		return i.logger
	}
	return logging.FromContext(ctx)
}

func (i *Installer) lock(ctx context.Context) (func() error, error) {
	if i.locker == nil {
		return func() error { return nil }, nil
	}
	unlock, err := i.locker.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring registry lock: %w", err)
	}
	return unlock, nil
}

func (i *Installer) unlock(t *txn, unlock func() error) {
	if err := unlock(); err != nil {
		t.logger.Warn("releasing registry lock", "error", err)
	}
}

// direction names the kind of version change for the update log line.
func direction(from, to string) string {
	fv, ferr := semver.NewVersion(from)
	tv, terr := semver.NewVersion(to)
	if ferr != nil || terr != nil {
		return "updating"
	}
	switch fv.Compare(tv) {
	case -1:
		return "upgrading"
	case 1:
		return "downgrading"
	default:
		return "reinstalling"
	}
}
