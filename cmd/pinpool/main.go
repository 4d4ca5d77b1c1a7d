package main

import (
	"fmt"
	"log"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jzx17/pinpool/internal/config"
)

// Build-time variables (injected via -ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
	goVersion = runtime.Version()
	platform  = runtime.GOOS + "/" + runtime.GOARCH

	cfg *config.Config
)

func getVersionInfo() string {
	commitHash := commit
	if len(commit) > 8 {
		commitHash = commit[:8]
	}
	return fmt.Sprintf("pinpool %s (%s) built with %s on %s at %s",
		version, commitHash, goVersion, platform, date)
}

var rootCmd = &cobra.Command{
	Use:     "pinpool",
	Version: version,
	Short:   "CPU-pinned thread pool driver",
	Long:    `Runs a synthetic CPU-bound workload on a pool of workers pinned to CPU cores and reports per-worker statistics.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), getVersionInfo())
	},
}

func init() {
	// Load configuration from environment variables
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVar(&cfg.App.LogLevel, "log-level", cfg.App.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&cfg.App.LogFile, "log-file", cfg.App.LogFile, "Rotated log file (disabled when empty)")
	rootCmd.SetVersionTemplate(getVersionInfo() + "\n")

	rootCmd.AddCommand(runCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
