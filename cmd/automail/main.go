package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/breakoutai/automail/internal/app"
	"github.com/breakoutai/automail/internal/config"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "automail",
	Short: "Automail - outreach campaign pipeline",
	Long:  `Automail runs cold-outreach email campaigns: it enriches leads, generates personalized content and tracks every delivery.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// API keys and SMTP credentials may live in a .env file.
		_ = godotenv.Load()
	},
}

var runCmd = &cobra.Command{
	Use:   "run [leads.csv]",
	Short: "Run one campaign pass",
	Long:  `Run one campaign pass over a CSV file, or over the configured Google Sheet when no file is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCampaign,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long:  `Start the delivery dashboard HTTP server, and the campaign scheduler when it is enabled.`,
	RunE:  runServe,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print delivery statistics",
	RunE:  runStats,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("automail version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(runCmd, serveCmd, statsCmd, configCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("config file is required (use -c flag)")
	}
	return config.Load(cfgFile)
}

func runCampaign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Close()

	csvPath := ""
	if len(args) == 1 {
		csvPath = args[0]
	}

	ds, err := application.LoadDataset(ctx, csvPath)
	if err != nil {
		return fmt.Errorf("failed to load leads: %w", err)
	}

	result, err := application.RunCampaign(ctx, ds)
	if err != nil {
		return err
	}

	fmt.Printf("Campaign finished\n")
	fmt.Printf("  Rows:     %d\n", result.Total)
	fmt.Printf("  Sent:     %d\n", result.Sent)
	fmt.Printf("  Failed:   %d\n", result.Failed)
	fmt.Printf("  Enriched: %d\n", result.Enriched)

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Close()

	return application.Serve(ctx)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Close()

	stats, err := application.Store().Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Delivery statistics\n")
	fmt.Printf("  Total:   %d\n", stats.Total)
	fmt.Printf("  Sent:    %d\n", stats.Sent)
	fmt.Printf("  Failed:  %d\n", stats.Failed)
	fmt.Printf("  Pending: %d\n", stats.Pending)
	for reason, count := range stats.ByReason {
		fmt.Printf("    %s: %d\n", reason, count)
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  Relay:    %s:%d\n", cfg.Relay.Host, cfg.Relay.Port)
	fmt.Printf("  From:     %s\n", cfg.Relay.FromEmail)
	fmt.Printf("  Tracking: %s\n", cfg.Tracking.Path)
	fmt.Printf("  API:      %s\n", cfg.API.ListenAddr)
	if cfg.Sheets.Enabled {
		fmt.Printf("  Sheet:    %s (%s)\n", cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName)
	}

	return nil
}
