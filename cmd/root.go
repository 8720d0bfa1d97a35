package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"qbt-janitor/cleanup"
	"qbt-janitor/config"
	"qbt-janitor/notify"
	"qbt-janitor/qbt"
	"qbt-janitor/rss"
)

var (
	cfgFile    string
	cfg        *config.Config
	logger     zerolog.Logger
	client     *qbt.Client
	operations *cleanup.Operations

	// Command flags
	dryRun bool

	appVersion   = "dev"
	appBuildTime = "unknown"
)

// SetVersion records the build metadata stamped in by the linker.
func SetVersion(version, buildTime string) {
	appVersion = version
	appBuildTime = buildTime
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qbt-janitor",
	Short: "A tool to clean up qBittorrent torrents based on tracker policies",
	Long: `qbt-janitor inspects your qBittorrent torrent set, applies per-tracker
retention policies (age and tracker-message rules), pauses or deletes expired
torrents in batched calls, reconciles upload and share limits, and ingests
RSS feeds to queue new downloads without re-downloading previously seen items.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "perform a dry run without making changes")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(rssCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration, connects to qBittorrent and builds
// the cleanup engine. Commands that touch the client use it as PreRunE.
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override dry-run from command line if specified
	if cmd.Flags().Changed("dry-run") {
		cfg.Safety.DryRun = dryRun
	}

	logger = setupLogger(cfg.Logging)
	logger.Info().Str("version", appVersion).Msg("qbt-janitor")

	logger.Info().Msg("Signing in to qBittorrent")
	client, err = qbt.NewClient(cmd.Context(), cfg.Qbittorrent.URL, cfg.Qbittorrent.Username, cfg.Qbittorrent.Password, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to qBittorrent: %w", err)
	}

	operations, err = cleanup.NewOperations(client, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Email != nil {
		operations.SetNotifier(notify.NewMailer(*cfg.Email, logger))
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// runCmd performs the full pass: cleanup then feed ingestion.
var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Clean up torrents, then ingest RSS feeds",
	PreRunE: initializeApp,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runClean(cmd); err != nil {
			return err
		}
		return runRSS(cmd)
	},
}

// cleanCmd runs the cleanup pass only.
var cleanCmd = &cobra.Command{
	Use:     "clean",
	Short:   "Apply tracker policies to the torrent set",
	PreRunE: initializeApp,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean(cmd)
	},
}

// rssCmd runs feed ingestion only.
var rssCmd = &cobra.Command{
	Use:     "rss",
	Short:   "Ingest RSS feeds and queue new downloads",
	PreRunE: initializeApp,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRSS(cmd)
	},
}

func runClean(cmd *cobra.Command) error {
	switch {
	case !cfg.Cleanup.DeleteTasks:
		logger.Info().Msg("Filtered torrents will be paused")
	case cfg.Cleanup.DeleteFiles:
		logger.Info().Msg("Filtered torrents will be deleted with their content")
	default:
		logger.Info().Msg("Filtered torrents will be deleted (files will not be deleted)")
	}

	return operations.Run(cmd.Context())
}

func runRSS(cmd *cobra.Command) error {
	if len(cfg.RSS.Feeds) == 0 {
		logger.Info().Msg("No RSS feeds configured")
		return nil
	}

	history, err := rss.LoadHistory(cfg.RSS.HistoryFile)
	if err != nil {
		return err
	}

	ingester := rss.NewIngester(client, history, logger)
	ingester.SetDryRun(cfg.Safety.DryRun)

	return ingester.Run(cmd.Context(), cfg.RSS.Feeds)
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:     "test",
	Short:   "Test the connection to qBittorrent",
	PreRunE: initializeApp,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Testing connection to qBittorrent at %s...\n", cfg.Qbittorrent.URL)
		fmt.Println("✓ Connection successful!")
		fmt.Printf("- Web API version: %s\n", client.WebAPIVersion())

		torrents, err := client.GetTorrents(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get torrents: %w", err)
		}

		fmt.Printf("- Total torrents: %d\n", len(torrents))
		fmt.Printf("- Configured tracker policies: %d\n", len(cfg.Trackers))
		fmt.Printf("- Configured RSS feeds: %d\n", len(cfg.RSS.Feeds))

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("qbt-janitor %s (built %s)\n", appVersion, appBuildTime)
	},
}
