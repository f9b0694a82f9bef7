package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/store"
)

var mistakesCmd = &cobra.Command{
	Use:   "mistakes",
	Short: "List questions answered incorrectly",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		mistakes, err := loadMistakes(cmd, s.AttemptRepo())
		if err != nil {
			return err
		}
		if len(mistakes) == 0 {
			fmt.Println("No mistakes yet.")
			return nil
		}

		for i, m := range mistakes {
			q := m.Question
			fmt.Printf("%3d. [%s] %s\n", i+1, q.Subject, firstLine(q.Text))
			fmt.Printf("     your answer: %s   correct: %s   (%s)\n",
				optionText(q, m.SelectedOptionID),
				correctText(q),
				m.AttemptTimestamp.Local().Format("2006-01-02"))
		}
		fmt.Println()
		fmt.Println("Run `mockprep explain <n>` for a tutor explanation.")
		return nil
	},
}

// loadMistakes honours the --attempt and --limit flags shared by the
// mistakes and explain commands.
func loadMistakes(cmd *cobra.Command, repo store.AttemptRepo) ([]exam.MistakeRecord, error) {
	ctx := cmd.Context()
	attemptID, _ := cmd.Flags().GetString("attempt")
	if attemptID != "" {
		m, err := repo.MistakesForAttempt(ctx, attemptID)
		if err != nil {
			return nil, fmt.Errorf("load mistakes for attempt %s: %w", attemptID, err)
		}
		return m, nil
	}
	limit, _ := cmd.Flags().GetInt("limit")
	m, err := repo.LoadMistakes(ctx, cfg.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("load mistakes: %w", err)
	}
	return m, nil
}

func optionText(q exam.Question, id string) string {
	for _, o := range q.Options {
		if o.ID == id {
			return o.Text
		}
	}
	return "(none)"
}

func correctText(q exam.Question) string {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.Text
		}
	}
	return "?"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return truncate(s, 90)
}

func addMistakeFlags(c *cobra.Command) {
	c.Flags().IntP("limit", "n", 50, "Number of mistakes to consider (0 = all)")
	c.Flags().String("attempt", "", "Only mistakes from this attempt id")
}

func init() {
	addMistakeFlags(mistakesCmd)
}
