// Package cli implements the install-service and uninstall-service commands.
//
// Both commands take the bridge's own command line unchanged, so cobra's flag
// parsing is disabled and every token is handed to the service package.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/plexsphere/hwservice/internal/config"
	"github.com/plexsphere/hwservice/internal/service"
)

// Exit codes.
const (
	ExitOK                = 0
	ExitMissingArgument   = 1
	ExitAlreadyRegistered = 2
	ExitAlreadyBuilt      = 3
	ExitFailure           = 4
)

// Options configures a command. Zero values select the production behaviour.
type Options struct {
	// ConfigPath is the YAML config file. Default: install.yaml next to the executable.
	ConfigPath string

	// Supervisor controls running services. Default: service.NewSupervisor().
	Supervisor service.Supervisor

	// Version is logged at debug level.
	Version string
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, service.ErrMissingArgument), errors.Is(err, service.ErrInvalidArgument):
		return ExitMissingArgument
	case errors.Is(err, service.ErrAlreadyRegistered):
		return ExitAlreadyRegistered
	case errors.Is(err, service.ErrAlreadyBuilt):
		return ExitAlreadyBuilt
	default:
		return ExitFailure
	}
}

// Run executes cmd with args and returns the exit code.
func Run(cmd *cobra.Command, args []string) int {
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	return ExitCode(cmd.Execute())
}

// NewInstallCommand returns the install-service command.
func NewInstallCommand(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "install-service [BRIDGE ARGS...]",
		Short: "Install a HomeWizard bridge as a supervised service",
		Long: "install-service takes the same arguments as the bridge. The last positional\n" +
			"argument names the service (dbus-homewizard-<arg>). The service is built,\n" +
			"added to the autostart script and linked into the supervisor directory.\n" +
			"Use -- before an identifier that starts with a dash.",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		// "completion" is a valid service identifier, not a subcommand.
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			d, err := ins.Install(args)
			if err != nil {
				return fmt.Errorf("install-service: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s installed and linked at %s\n", d.Name, d.Link)
			return nil
		},
	}
}

// NewUninstallCommand returns the uninstall-service command.
func NewUninstallCommand(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall-service [BRIDGE ARGS...]",
		Short: "Remove a HomeWizard bridge service",
		Long: "uninstall-service takes the arguments the service was installed with,\n" +
			"stops it, removes its supervisor link and autostart line and deletes\n" +
			"the service directory.",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		// "completion" is a valid service identifier, not a subcommand.
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			d, err := ins.Uninstall(args)
			if err != nil {
				return fmt.Errorf("uninstall-service: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s uninstalled\n", d.Name)
			return nil
		},
	}
}

func setup(cmd *cobra.Command, opts Options) (*service.Installer, *zap.Logger, error) {
	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
	logger.Debug("configuration loaded",
		zap.String("version", opts.Version),
		zap.String("config", path),
		zap.String("install_dir", cfg.InstallDir),
		zap.String("service_root", cfg.ServiceRoot),
		zap.String("autostart_file", cfg.AutostartFile),
	)

	sup := opts.Supervisor
	if sup == nil {
		sup = service.NewSupervisor()
	}
	return service.NewInstaller(cfg.Paths, sup, logger), logger, nil
}

// newLogger builds a console logger writing to w. Unknown levels fall back to info.
func newLogger(level string, w io.Writer) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core)
}
