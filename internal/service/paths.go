// Package service installs the HomeWizard bridge as a supervised service.
//
// A service is a directory holding an executable run file, registered by a
// symlink under the supervisor's scan directory and kept across reboots by an
// "ln -s" line in the autostart script.
package service

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/plexsphere/hwservice/internal/argv"
)

// DefaultInstallDir is where the bridge is unpacked on the device.
const DefaultInstallDir = "/data/dbus-homewizard"

// DefaultServiceRoot is the directory watched by svscan.
const DefaultServiceRoot = "/service"

// DefaultAutostartFile is the boot-time script that recreates the symlinks.
const DefaultAutostartFile = "/data/rc.local"

// DefaultPrefix is prepended to the device identifier to form the service name.
const DefaultPrefix = "dbus-homewizard-"

// Paths holds every system location the installer touches.
// Paths is passed as a constructor argument so tests can redirect it into a sandbox.
type Paths struct {
	// InstallDir holds the bridge sources and the generated service directories.
	// Default: /data/dbus-homewizard
	InstallDir string `yaml:"install_dir"`

	// ServiceRoot is the supervisor scan directory.
	// Default: /service
	ServiceRoot string `yaml:"service_root"`

	// AutostartFile is the boot script that receives one "ln -s" line per service.
	// Default: /data/rc.local
	AutostartFile string `yaml:"autostart_file"`

	// Prefix is prepended to the device identifier.
	// Default: dbus-homewizard-
	Prefix string `yaml:"service_prefix"`

	// Runner is the command the launcher execs, before the original arguments.
	// Default: python3 -m <base of InstallDir>
	Runner string `yaml:"runner"`

	// WorkDir is the directory the launcher changes into before exec.
	// Default: parent of InstallDir
	WorkDir string `yaml:"work_dir"`

	// ValueFlags lists runner flags that consume the next token.
	// Default: argv.DefaultValueFlags. An explicit empty list disables the lookahead.
	ValueFlags []string `yaml:"value_flags"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (p *Paths) ApplyDefaults() {
	if p.InstallDir == "" {
		p.InstallDir = DefaultInstallDir
	}
	if p.ServiceRoot == "" {
		p.ServiceRoot = DefaultServiceRoot
	}
	if p.AutostartFile == "" {
		p.AutostartFile = DefaultAutostartFile
	}
	if p.Prefix == "" {
		p.Prefix = DefaultPrefix
	}
	if p.Runner == "" {
		p.Runner = "python3 -m " + filepath.Base(p.InstallDir)
	}
	if p.WorkDir == "" {
		p.WorkDir = filepath.Dir(p.InstallDir)
	}
	if p.ValueFlags == nil {
		p.ValueFlags = append([]string(nil), argv.DefaultValueFlags...)
	}
}

// Validate checks that required fields are set.
func (p *Paths) Validate() error {
	abs := []struct {
		name, value string
	}{
		{"InstallDir", p.InstallDir},
		{"ServiceRoot", p.ServiceRoot},
		{"AutostartFile", p.AutostartFile},
		{"WorkDir", p.WorkDir},
	}
	for _, f := range abs {
		if f.value == "" {
			return fmt.Errorf("service: config: %s is required", f.name)
		}
		if !filepath.IsAbs(f.value) {
			return fmt.Errorf("service: config: %s must be absolute, got %q", f.name, f.value)
		}
	}
	if p.Prefix == "" {
		return errors.New("service: config: Prefix is required")
	}
	if p.Runner == "" {
		return errors.New("service: config: Runner is required")
	}
	return nil
}

// ServicesDir is the directory that holds one sub-directory per built service.
func (p Paths) ServicesDir() string {
	return filepath.Join(p.InstallDir, "service")
}
