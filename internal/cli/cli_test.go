package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/plexsphere/hwservice/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type nopSupervisor struct{ downs int }

func (s *nopSupervisor) IsAvailable() bool { return true }
func (s *nopSupervisor) Down(string) error { s.downs++; return nil }

type sandbox struct {
	root       string
	configPath string
	installDir string
	serviceDir string
	rcLocal    string
}

func newSandbox(t *testing.T) sandbox {
	t.Helper()
	root := t.TempDir()
	sb := sandbox{
		root:       root,
		configPath: filepath.Join(root, "install.yaml"),
		installDir: filepath.Join(root, "data", "dbus-homewizard"),
		serviceDir: filepath.Join(root, "service"),
		rcLocal:    filepath.Join(root, "data", "rc.local"),
	}
	cfg := fmt.Sprintf("install_dir: %s\nservice_root: %s\nautostart_file: %s\n", sb.installDir, sb.serviceDir, sb.rcLocal)
	require.NoError(t, os.WriteFile(sb.configPath, []byte(cfg), 0o644))
	return sb
}

func (sb sandbox) run(t *testing.T, install bool, args ...string) (int, string, string) {
	t.Helper()
	opts := Options{ConfigPath: sb.configPath, Supervisor: &nopSupervisor{}, Version: "test"}
	cmd := NewUninstallCommand(opts)
	if install {
		cmd = NewInstallCommand(opts)
	}
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	code := Run(cmd, args)
	return code, stdout.String(), stderr.String()
}

func TestInstallCommand_Gridmeter(t *testing.T) {
	sb := newSandbox(t)

	code, stdout, _ := sb.run(t, true, "-d", "gridmeter")

	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "dbus-homewizard-gridmeter installed")

	run, err := os.ReadFile(filepath.Join(sb.installDir, "service", "dbus-homewizard-gridmeter", "run"))
	require.NoError(t, err)
	assert.Contains(t, string(run), "-d gridmeter")

	target, err := os.Readlink(filepath.Join(sb.serviceDir, "dbus-homewizard-gridmeter"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sb.installDir, "service", "dbus-homewizard-gridmeter"), target)

	rc, err := os.ReadFile(sb.rcLocal)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(rc), "ln -s "))
}

func TestInstallCommand_NoArgs(t *testing.T) {
	sb := newSandbox(t)

	code, _, stderr := sb.run(t, true)

	assert.Equal(t, ExitMissingArgument, code)
	assert.Contains(t, stderr, "missing positional argument")

	entries, err := os.ReadDir(sb.root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the config file may exist")
	assert.Equal(t, "install.yaml", entries[0].Name())
}

func TestInstallCommand_ReservedCobraWordsAreIdentifiers(t *testing.T) {
	for _, id := range []string{"completion", "help"} {
		t.Run(id, func(t *testing.T) {
			sb := newSandbox(t)

			code, stdout, _ := sb.run(t, true, id)

			require.Equal(t, ExitOK, code)
			assert.Contains(t, stdout, "dbus-homewizard-"+id+" installed")
			_, err := os.Readlink(filepath.Join(sb.serviceDir, "dbus-homewizard-"+id))
			assert.NoError(t, err)

			code, _, _ = sb.run(t, false, id)
			assert.Equal(t, ExitOK, code)
			_, err = os.Lstat(filepath.Join(sb.serviceDir, "dbus-homewizard-"+id))
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestInstallCommand_HelpIsPassedThrough(t *testing.T) {
	sb := newSandbox(t)

	code, _, _ := sb.run(t, true, "--help")

	assert.Equal(t, ExitMissingArgument, code)
}

func TestInstallCommand_Rerun(t *testing.T) {
	sb := newSandbox(t)

	code, _, _ := sb.run(t, true, "-d", "gridmeter")
	require.Equal(t, ExitOK, code)

	code, _, stderr := sb.run(t, true, "-d", "gridmeter")
	assert.Equal(t, ExitAlreadyRegistered, code)
	assert.Contains(t, stderr, "already registered")
}

func TestInstallCommand_AlreadyBuilt(t *testing.T) {
	sb := newSandbox(t)
	require.NoError(t, os.MkdirAll(filepath.Join(sb.installDir, "service", "dbus-homewizard-gridmeter"), 0o755))

	code, _, _ := sb.run(t, true, "gridmeter")

	assert.Equal(t, ExitAlreadyBuilt, code)
}

func TestInstallCommand_BadConfig(t *testing.T) {
	sb := newSandbox(t)
	require.NoError(t, os.WriteFile(sb.configPath, []byte("log_level: chatty\ninstall_dir: /x\n"), 0o644))

	code, _, stderr := sb.run(t, true, "gridmeter")

	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "invalid log_level")
}

func TestUninstallCommand(t *testing.T) {
	sb := newSandbox(t)

	code, _, _ := sb.run(t, true, "--role", "grid", "10.0.0.5")
	require.Equal(t, ExitOK, code)

	code, stdout, _ := sb.run(t, false, "--role", "grid", "10.0.0.5")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "dbus-homewizard-10.0.0.5 uninstalled")

	_, err := os.Lstat(filepath.Join(sb.serviceDir, "dbus-homewizard-10.0.0.5"))
	assert.True(t, os.IsNotExist(err))

	// The service can be installed again afterwards.
	code, _, _ = sb.run(t, true, "--role", "grid", "10.0.0.5")
	assert.Equal(t, ExitOK, code)
}

func TestUninstallCommand_NoArgs(t *testing.T) {
	sb := newSandbox(t)

	code, _, _ := sb.run(t, false, "-d")

	assert.Equal(t, ExitMissingArgument, code)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{service.ErrMissingArgument, ExitMissingArgument},
		{fmt.Errorf("install-service: %w", service.ErrInvalidArgument), ExitMissingArgument},
		{fmt.Errorf("install-service: %w", service.ErrAlreadyRegistered), ExitAlreadyRegistered},
		{fmt.Errorf("install-service: %w", service.ErrAlreadyBuilt), ExitAlreadyBuilt},
		{errors.New("disk full"), ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "ExitCode(%v)", tt.err)
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("chatty", &buf)

	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
