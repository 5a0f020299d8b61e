package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/carlmjohnson/versioninfo"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"veilchat/internal/config"
)

var (
	configFile string
	envFile    string
	logLevel   string
	logFile    string
	logDisable bool

	cfg *config.Config
)

// NewRootCommand returns the veilchat command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "veilchat",
		Short:             "Broadcast chat with optional confidentiality or authenticity",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
	addGlobalFlags(root)
	root.AddCommand(chatCmd(), relayCmd())
	return root
}

// NewRelayCommand returns the relay command on its own, for the standalone
// relay binary.
func NewRelayCommand() *cobra.Command {
	cmd := relayCmd()
	cmd.Use = "veilchat-relay"
	cmd.SilenceUsage = true
	cmd.PersistentPreRunE = loadConfig
	addGlobalFlags(cmd)
	return cmd
}

// Execute runs cmd through fang with the shared version and error handling.
func Execute(ctx context.Context, cmd *cobra.Command) error {
	return fang.Execute(
		ctx,
		cmd,
		fang.WithVersion(versioninfo.Short()),
		fang.WithErrorHandler(errorHandler(cmd)),
	)
}

func addGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "TOML config file")
	pf.StringVar(&envFile, "env-file", "", "dotenv file exported before reading VEILCHAT_* variables")
	pf.StringVar(&logLevel, "log-level", "", "log level: ERROR, WARNING, NOTICE, INFO or DEBUG")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.BoolVar(&logDisable, "log-disable", false, "discard all logs")
}

// loadConfig builds cfg from defaults, the config file, the environment and
// the global flags. Command flags are applied by each command afterwards.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if configFile != "" {
		if cfg, err = config.LoadFile(configFile); err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = logFile
	}
	if flags.Changed("log-disable") {
		cfg.Logging.Disable = logDisable
	}
	return cfg.FixupAndValidate()
}

func errorHandler(cmd *cobra.Command) fang.ErrorHandler {
	return func(w io.Writer, styles fang.Styles, err error) {
		_, _ = fmt.Fprintln(w, styles.ErrorHeader.String())
		_, _ = fmt.Fprintln(w, styles.ErrorText.Render(err.Error()+"."))
		_, _ = fmt.Fprintln(w)

		if isUsageError(err) {
			if help := cmd.HelpFunc(); help != nil {
				help(cmd, []string{})
			}
			return
		}
		_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(
			lipgloss.Left,
			styles.ErrorText.UnsetWidth().Render("Try"),
			styles.Program.Flag.Render("--help"),
			styles.ErrorText.UnsetWidth().UnsetMargins().UnsetTransform().PaddingLeft(1).Render("for usage."),
		))
		_, _ = fmt.Fprintln(w)
	}
}

// isUsageError reports whether err came from bad command line input rather
// than from running the command.
func isUsageError(err error) bool {
	s := err.Error()
	for _, prefix := range []string{
		"flag needs an argument:",
		"unknown flag:",
		"unknown shorthand flag:",
		"unknown command",
		"invalid argument",
		"required flag",
		"accepts",
		"arg(s), received",
		"failed to load config file",
		"failed to load env file",
		"config:",
	} {
		if strings.Contains(s, prefix) {
			return true
		}
	}
	return false
}
