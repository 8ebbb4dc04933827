// Package commands provides the CLI commands for actingweb-hooks.
package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/actingweb/actingweb-sub001/internal/app"
	"github.com/actingweb/actingweb-sub001/internal/config"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs bool
	logLevel  string
	workDir   string
	envFile   string
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "actingweb-hooks",
	Short: "Hook dispatcher for ActingWeb actors",
	Long: `actingweb-hooks dispatches actor events (methods, actions, properties,
callbacks, subscriptions and lifecycle transitions) to registered hooks.

Run 'actingweb-hooks serve' to expose the dispatcher over HTTP, or
'actingweb-hooks dispatch' to fire a single event against the configured
hooks.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "directory", "C", "", "Project directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the configuration")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.SetVersionTemplate(fmt.Sprintf("actingweb-hooks %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

// loadConfig loads the configuration of the working directory and
// initializes logging from it. Logs are discarded unless forced or
// --print-logs is set.
func loadConfig(forceLogs bool) (string, *types.Config, error) {
	dir, err := GetWorkDir(workDir)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return "", nil, err
	}

	logCfg := app.LogConfig(logging.ConfigFromEnv(), cfg)
	if logLevel != "" {
		logCfg.Level = logging.ParseLevel(logLevel)
	}
	if !printLogs && !forceLogs {
		logCfg.Output = io.Discard
	}
	logging.Init(logCfg)
	logging.Debug().Str("directory", dir).Int("hooks", len(cfg.Hooks)).Msg("config loaded")
	return dir, cfg, nil
}
