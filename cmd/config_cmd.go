// Package cmd implements the finboard CLI commands.
package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/cli"
	"github.com/theirongolddev/finboard/internal/config"
	"github.com/theirongolddev/finboard/internal/store"
)

var flagClearCache bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagClearCache, "clear-cache", false, "Drop the offline snapshots and exit (the token is kept)")
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	if flagClearCache {
		n, err := clearOfflineSnapshots(config.DBPath())
		if err != nil {
			return fmt.Errorf("clearing offline snapshots: %w", err)
		}
		fmt.Printf("  Cleared %d offline snapshot%s.\n", n, plural(n, "", "s"))
		return nil
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	base := config.GetAPIURL(cfg)
	if flagAPIURL != "" {
		base = flagAPIURL
	}
	fmt.Printf("    Base URL: %s\n", base)
	switch {
	case flagAPIURL != "":
		fmt.Println("    Source:   --api-url")
	case strings.TrimSpace(os.Getenv(config.APIURLEnv)) != "":
		fmt.Printf("    Source:   %s\n", config.APIURLEnv)
	case cfg.API.BaseURL != "":
		fmt.Println("    Source:   config file")
	default:
		fmt.Println("    Source:   default")
	}
	fmt.Printf("    Timeout:  %ds\n", cfg.API.TimeoutSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh:     %v\n", cfg.TUI.AutoRefresh)
	fmt.Printf("    Refresh interval: %ds\n", cfg.TUI.RefreshIntervalSec)
	fmt.Printf("    Recent limit:     %d\n", cfg.TUI.RecentLimit)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Printf("    File:  %s\n", config.LogPath())
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Database: %s\n", config.DBPath())
	if st, err := store.Open(config.DBPath()); err == nil {
		defer func() { _ = st.Close() }()
		if tok, _ := st.LoadToken(); tok != "" {
			fmt.Printf("    Token:    %s\n", maskToken(tok))
		} else {
			fmt.Println("    Token:    none (run `finboard login`)")
		}
		if times, err := st.SnapshotTimes(); err == nil && len(times) > 0 {
			fmt.Println("    Offline snapshots:")
			for _, path := range sortedKeys(times) {
				fmt.Printf("      %-26s %s\n", path, cli.FormatAgo(times[path]))
			}
		}
	}
	fmt.Println()

	fmt.Println("  Run `finboard setup` to reconfigure.")
	return nil
}

// clearOfflineSnapshots empties the snapshot table at dbPath and returns
// how many responses were dropped.
func clearOfflineSnapshots(dbPath string) (int, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = st.Close() }()

	times, err := st.SnapshotTimes()
	if err != nil {
		return 0, err
	}
	if err := st.ClearSnapshots(); err != nil {
		return 0, err
	}
	return len(times), nil
}

func maskToken(tok string) string {
	if len(tok) > 12 {
		return tok[:4] + "..." + tok[len(tok)-4:]
	}
	if len(tok) > 4 {
		return tok[:4] + "..."
	}
	return "****"
}

func sortedKeys(m map[string]time.Time) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
