package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/tutor"
)

var explainCmd = &cobra.Command{
	Use:   "explain <n>",
	Short: "Ask the tutor to explain mistake n from `mockprep mistakes`",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid mistake number %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		mistakes, err := loadMistakes(cmd, s.AttemptRepo())
		if err != nil {
			return err
		}
		if n > len(mistakes) {
			return fmt.Errorf("mistake %d not found (%d listed)", n, len(mistakes))
		}
		m := mistakes[n-1]

		ctx := cmd.Context()
		provider := buildProvider(ctx, s.EventRepo())
		svc, closeCache := buildTutor(ctx, provider)
		defer closeCache()

		exp, err := svc.Explain(ctx, tutor.ViewOf(m))
		if err != nil {
			return fmt.Errorf("explain: %w", err)
		}

		fmt.Println(m.Question.Text)
		fmt.Println()
		fmt.Printf("Your answer: %s\nCorrect:     %s\n\n", optionText(m.Question, m.SelectedOptionID), correctText(m.Question))
		fmt.Println(exp.Markdown())
		return nil
	},
}

func init() {
	addMistakeFlags(explainCmd)
}
