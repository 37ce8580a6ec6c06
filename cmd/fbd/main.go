package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fbd-go/internal/app"
	"fbd-go/internal/config"
	"fbd-go/internal/index"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fbd [flags] WATCH_DIR BACKUP_DIR",
	Short: "File backup daemon",
	Long: `fbd polls a directory tree on a fixed interval and copies every file
whose modification time advances into a timestamped backup tree,
recording each copy in a tab-separated log.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := app.Options{
		WatchDir:    args[0],
		BackupDir:   args[1],
		Interval:    cfg.RefreshInterval,
		LogPath:     cfg.LogPath,
		Recursive:   cfg.Recursive,
		Exclude:     cfg.Exclude,
		CatalogPath: cfg.CatalogPath,
	}

	// Flags explicitly set on the command line win over the config file.
	f := cmd.Flags()
	if f.Changed("interval") {
		opts.Interval, _ = f.GetFloat64("interval")
	}
	if f.Changed("log") {
		opts.LogPath, _ = f.GetString("log")
	}
	if f.Changed("recursive") {
		opts.Recursive, _ = f.GetBool("recursive")
	}
	if f.Changed("exclude") {
		opts.Exclude, _ = f.GetStringArray("exclude")
	}
	if f.Changed("catalog") {
		opts.CatalogPath, _ = f.GetString("catalog")
	}
	opts.RewriteLog, _ = f.GetBool("rewrite_log")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent backup events from the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		catalogPath := cfg.CatalogPath
		if cmd.Flags().Changed("catalog") {
			catalogPath, _ = cmd.Flags().GetString("catalog")
		}
		if catalogPath == "" {
			return fmt.Errorf("no catalog configured: pass --catalog or set catalog_path in the config file")
		}

		cat, err := index.Open(catalogPath)
		if err != nil {
			return err
		}
		defer cat.Close()

		events, err := cat.RecentEvents(limit)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Println("No backup events recorded.")
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %s -> %s  mtime:%s\n",
				e.CapturedAt.Format("2006-01-02 15:04:05"),
				e.SourcePath,
				e.BackupPath,
				e.ModifiedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cmd)
		if err != nil {
			return err
		}

		if err := config.Init(path, config.NewConfig()); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		return nil
	},
}

// configPath returns the config file path: the --config flag if set,
// otherwise the environment-based default.
func configPath(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("config") {
		return cmd.Flags().GetString("config")
	}
	return app.DefaultConfigPath()
}

// loadConfig reads the config file. A missing file at the default location
// yields the built-in defaults; a missing file named explicitly via
// --config is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(path)
	if err != nil {
		if !cmd.Flags().Changed("config") && errors.Is(err, os.ErrNotExist) {
			return config.NewConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.Flags().Float64P("interval", "t", 1, "Refresh interval between polling cycles, in seconds")
	rootCmd.Flags().StringP("log", "o", "", "Path to the backup log file (default: discard)")
	rootCmd.Flags().Bool("recursive", false, "Track files inside child directories and mirror their structure")
	rootCmd.Flags().StringArray("exclude", nil, "Base-name regular expression to exclude (repeatable)")
	rootCmd.Flags().Bool("rewrite_log", false, "Truncate the log file instead of appending")
	rootCmd.Flags().String("catalog", "", "Path to the sqlite backup catalog (default: disabled)")
	rootCmd.PersistentFlags().String("config", "", "Path to the config file")

	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of events to show")
	historyCmd.Flags().String("catalog", "", "Path to the sqlite backup catalog")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
