package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/analytics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show readiness, accuracy and weak areas",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		repo := s.AttemptRepo()
		history, err := repo.LoadAttemptHistory(ctx, cfg.UserID, 0)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		mistakes, err := repo.LoadMistakes(ctx, cfg.UserID, 0)
		if err != nil {
			return fmt.Errorf("load mistakes: %w", err)
		}

		st := analytics.Compute(history, mistakes, time.Now())

		fmt.Printf("User:            %s\n", cfg.UserID)
		fmt.Printf("Readiness:       %d%% (%s)\n", st.ReadinessScore, st.Band())
		fmt.Printf("Tests completed: %d\n", st.CompletedTests)
		fmt.Printf("Avg accuracy:    %s%%\n", st.AvgAccuracy.StringFixed(1))
		fmt.Printf("Best score:      %s\n", st.BestScore.String())
		fmt.Printf("Streak:          %d day(s)\n", st.StreakDays)

		if len(st.BySubject) > 0 {
			fmt.Println()
			fmt.Println("Mistakes by subject")
			fmt.Println(strings.Repeat("─", 40))
			for _, sm := range st.BySubject {
				fmt.Printf("%-28s  %5d\n", sm.Subject, sm.Count)
			}
		}

		fmt.Println()
		fmt.Printf("Today: %s\n", st.DailyTask.Text)
		return nil
	},
}
