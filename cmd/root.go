package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/config"
	"github.com/abhisek/mockprep/internal/logger"
	"github.com/abhisek/mockprep/internal/store"
)

// cfg is loaded once before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mockprep",
	Short: "Timed mock tests for competitive exams",
	Long:  "MockPrep — terminal practice for SSC, banking, railway and UPSC exams: timed mock tests, scoring with negative marking, and a mistake book with tutor explanations.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if u, _ := cmd.Flags().GetString("user"); u != "" {
			cfg.UserID = u
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.LogLevel = lvl
		}
		logger.Setup(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MOCKPREP_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User id to record attempts under (overrides MOCKPREP_USER)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().Bool("skip-welcome", false, "Open straight on the home screen")

	rootCmd.AddCommand(testsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mistakesCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then MOCKPREP_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
