package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/catalog"
	"github.com/abhisek/mockprep/internal/ui/layout"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past attempts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		attempts, err := s.AttemptRepo().LoadAttemptHistory(cmd.Context(), cfg.UserID, limit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if len(attempts) == 0 {
			fmt.Println("No attempts yet.")
			return nil
		}

		cat := catalog.Default()
		fmt.Printf("%-36s  %-16s  %-28s  %7s  %8s  %7s  %8s\n",
			"ID", "Finished", "Test", "Score", "Accuracy", "Correct", "Time")
		fmt.Println(strings.Repeat("─", 124))
		for _, a := range attempts {
			title := a.TestID
			if t, err := cat.Lookup(a.TestID); err == nil {
				title = t.Title
			}
			fmt.Printf("%-36s  %-16s  %-28s  %7s  %7s%%  %3d/%-3d  %8s\n",
				a.ID,
				a.EndTime.Local().Format("2006-01-02 15:04"),
				truncate(title, 28),
				a.Score.String(),
				a.Accuracy.StringFixed(1),
				a.Correct, a.Total,
				layout.FormatClock(int(a.EndTime.Sub(a.StartTime).Seconds())),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of attempts to show (0 = all)")
}
