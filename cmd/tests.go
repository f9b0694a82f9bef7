package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/catalog"
	"github.com/abhisek/mockprep/internal/exam"
)

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "List exam categories and their mock tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		for _, c := range cat.Categories() {
			fmt.Printf("%s  %s\n", c.ID, c.Name)
			fmt.Println(strings.Repeat("─", 72))
			for _, t := range cat.ForCategory(c.ID) {
				fmt.Printf("  %-12s  %-28s  %s\n", t.ID, t.Title, describeTest(t))
			}
			fmt.Println()
		}
		return nil
	},
}

func describeTest(t exam.TestDefinition) string {
	if t.Mode == exam.ModeUnbounded {
		return fmt.Sprintf("unlimited, untimed, +%s/-%s", t.PositiveMarks, t.NegativeMarks)
	}
	return fmt.Sprintf("%d Qs, %d min, %d marks, +%s/-%s",
		t.QuestionCount, t.DurationSeconds/60, t.TotalMarks, t.PositiveMarks, t.NegativeMarks)
}
