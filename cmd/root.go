package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/gcalauth/internal/config"
	"github.com/teemow/gcalauth/internal/logging"
)

// rootCmd represents the base command for the gcalauth application
var rootCmd = &cobra.Command{
	Use:   "gcalauth",
	Short: "Google OAuth2 and Calendar access for web applications",
	Long: `gcalauth runs the Google OAuth2 authorization code flow and reads
Google Calendar data on behalf of the user who granted access.

It can run as:
  - An HTTP server for web applications (serve)
  - A command-line tool for the same operations`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := logging.New(os.Stderr, globalFlags.logFormat, globalFlags.debug)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// version will be set by main
var version = "dev"

var globalFlags struct {
	debug     bool
	logFormat string
	envFiles  []string
	workDir   string
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gcalauth version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings resolves settings from the dotenv files and environment
// selected by the global flags.
func loadSettings() (*config.Config, error) {
	var opts []config.Option
	if len(globalFlags.envFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(globalFlags.envFiles...))
	}
	if globalFlags.workDir != "" {
		opts = append(opts, config.WithWorkDir(globalFlags.workDir))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&globalFlags.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&globalFlags.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	pf.StringSliceVar(&globalFlags.envFiles, "env-file", nil, "Dotenv files to read settings from (default: ./.env and $XDG_CONFIG_HOME/gcalauth/.env)")
	pf.StringVar(&globalFlags.workDir, "workdir", "", "Directory used to locate the application root (default: current directory)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCalendarsCmd())
	rootCmd.AddCommand(newCalendarCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newEventCmd())
	rootCmd.AddCommand(newVersionCmd())
}
