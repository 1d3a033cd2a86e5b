package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/plexsphere/hwservice/internal/argv"
	"github.com/plexsphere/hwservice/internal/fsutil"
)

// Installer builds, registers and removes bridge services.
type Installer struct {
	paths      Paths
	splitter   *argv.Splitter
	supervisor Supervisor
	logger     *zap.Logger
}

// NewInstaller creates a new Installer with defaults applied.
func NewInstaller(paths Paths, supervisor Supervisor, logger *zap.Logger) *Installer {
	paths.ApplyDefaults()
	return &Installer{
		paths:      paths,
		splitter:   argv.NewSplitter(paths.ValueFlags),
		supervisor: supervisor,
		logger:     logger.With(zap.String("component", "service")),
	}
}

// Describe derives the service descriptor from a runner command line.
func (ins *Installer) Describe(args []string) (Descriptor, error) {
	id, err := ins.splitter.Identifier(args)
	if errors.Is(err, argv.ErrNoPositional) {
		return Descriptor{}, ErrMissingArgument
	}
	if err != nil {
		return Descriptor{}, err
	}
	return ins.paths.Describe(id)
}

// Install builds the service for args, adds it to the autostart file and
// registers it with the supervisor. Nothing is written unless every
// precondition holds.
func (ins *Installer) Install(args []string) (Descriptor, error) {
	// 1. Check config
	if err := ins.paths.Validate(); err != nil {
		return Descriptor{}, err
	}

	// 2. Derive the service name
	d, err := ins.Describe(args)
	if err != nil {
		return Descriptor{}, err
	}
	log := ins.logger.With(zap.String("service", d.Name))

	// 3. Refuse to touch a registered service. Stat follows the link, so a
	// dangling registration is replaced below.
	if _, err := os.Stat(d.Link); err == nil {
		return d, fmt.Errorf("%w: %s", ErrAlreadyRegistered, d.Link)
	} else if !errors.Is(err, os.ErrNotExist) {
		return d, fmt.Errorf("service: stat %s: %w", d.Link, err)
	}

	// 4. Refuse to rebuild an existing service directory
	if _, err := os.Lstat(d.Dir); err == nil {
		return d, fmt.Errorf("%w: %s", ErrAlreadyBuilt, d.Dir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return d, fmt.Errorf("service: stat %s: %w", d.Dir, err)
	}

	// 5. Build the service directory
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return d, fmt.Errorf("service: create directory %s: %w", d.Dir, err)
	}
	log.Info("service directory created", zap.String("path", d.Dir))

	added, err := ins.build(d, args, log)
	if err != nil {
		ins.rollback(d, added, log)
		return d, err
	}
	log.Info("service registered", zap.String("link", d.Link), zap.String("target", d.Dir))

	return d, nil
}

// build writes the run file, the autostart line and the link for a freshly
// created d.Dir. It reports whether it appended an autostart line.
func (ins *Installer) build(d Descriptor, args []string, log *zap.Logger) (bool, error) {
	script := GenerateRunScript(ins.paths, d, args)
	if err := fsutil.WriteFileAtomic(d.Dir, "run", []byte(script), 0o755); err != nil {
		return false, fmt.Errorf("service: write run file: %w", err)
	}
	log.Info("run file written", zap.String("path", d.RunFile()))
	log.Debug("run file content", zap.String("script", script))

	// 6. Autostart
	created, err := EnsureAutostartFile(ins.paths.AutostartFile)
	if err != nil {
		return false, err
	}
	if created {
		log.Info("autostart file created", zap.String("path", ins.paths.AutostartFile))
	}
	added, err := AddAutostart(ins.paths.AutostartFile, d)
	if err != nil {
		return false, err
	}
	if added {
		log.Info("autostart line added", zap.String("path", ins.paths.AutostartFile))
	} else {
		log.Info("autostart line already present", zap.String("path", ins.paths.AutostartFile))
	}

	// 7. Register, which starts the service on the next svscan pass
	if err := ins.link(d); err != nil {
		return added, err
	}
	return added, nil
}

// rollback undoes a failed build so the install can be retried.
// Cleanup errors are logged; the build error is what the caller reports.
func (ins *Installer) rollback(d Descriptor, lineAdded bool, log *zap.Logger) {
	if lineAdded {
		if _, err := RemoveAutostart(ins.paths.AutostartFile, d); err != nil {
			log.Warn("rollback: remove autostart line", zap.Error(err))
		}
	}
	if err := os.RemoveAll(d.Dir); err != nil {
		log.Warn("rollback: remove service directory", zap.Error(err))
		return
	}
	log.Info("install rolled back", zap.String("path", d.Dir))
}

// Uninstall reverses Install for args. Steps that have nothing to undo are skipped,
// so uninstalling twice succeeds.
func (ins *Installer) Uninstall(args []string) (Descriptor, error) {
	// 1. Check config
	if err := ins.paths.Validate(); err != nil {
		return Descriptor{}, err
	}

	// 2. Derive the service name
	d, err := ins.Describe(args)
	if err != nil {
		return Descriptor{}, err
	}
	log := ins.logger.With(zap.String("service", d.Name))

	// 3. Unregister
	info, err := os.Lstat(d.Link)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink == 0:
		return d, fmt.Errorf("service: %s is not a symlink, refusing to remove it", d.Link)
	case err == nil:
		if err := os.Remove(d.Link); err != nil {
			return d, fmt.Errorf("service: remove link: %w", err)
		}
		log.Info("service unregistered", zap.String("link", d.Link))
	case errors.Is(err, os.ErrNotExist):
		log.Info("service is not registered", zap.String("link", d.Link))
	default:
		return d, fmt.Errorf("service: stat %s: %w", d.Link, err)
	}

	// 4. Stop the supervise process. It may not be running, so errors are only logged.
	if _, err := os.Stat(d.Dir); err == nil && ins.supervisor.IsAvailable() {
		if err := ins.supervisor.Down(d.Dir); err != nil {
			log.Info("stop service", zap.Error(err))
		}
	}

	// 5. Autostart
	removed, err := RemoveAutostart(ins.paths.AutostartFile, d)
	if err != nil {
		return d, err
	}
	if removed > 0 {
		log.Info("autostart lines removed", zap.Int("count", removed), zap.String("path", ins.paths.AutostartFile))
	}

	// 6. Service directory
	if err := os.RemoveAll(d.Dir); err != nil {
		return d, fmt.Errorf("service: remove directory %s: %w", d.Dir, err)
	}
	log.Info("service directory removed", zap.String("path", d.Dir))

	return d, nil
}

// link creates d.Link pointing at d.Dir, replacing whatever entry is there.
func (ins *Installer) link(d Descriptor) error {
	if err := os.MkdirAll(filepath.Dir(d.Link), 0o755); err != nil {
		return fmt.Errorf("service: create service root: %w", err)
	}
	if err := os.Remove(d.Link); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("service: remove stale link: %w", err)
	}
	if err := os.Symlink(d.Dir, d.Link); err != nil {
		return fmt.Errorf("service: create link: %w", err)
	}
	return nil
}
