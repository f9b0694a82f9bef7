package source

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/exam"
)

// Pool is a versioned set of hand-vetted questions.
type Pool struct {
	Version   string          `json:"version"`
	Questions []exam.Question `json:"questions"`
}

// Validate checks every question and rejects duplicate ids.
func (p Pool) Validate() error {
	if len(p.Questions) == 0 {
		return fmt.Errorf("pool %q is empty", p.Version)
	}
	seen := make(map[string]bool, len(p.Questions))
	for _, q := range p.Questions {
		if seen[q.ID] {
			return fmt.Errorf("pool %q: duplicate question id %q", p.Version, q.ID)
		}
		seen[q.ID] = true
		if verr := exam.Validate(q); verr != nil {
			return fmt.Errorf("pool %q: %w", p.Version, verr)
		}
	}
	return nil
}

// LoadPool reads a JSON pool file and validates it.
func LoadPool(path string) (Pool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pool{}, fmt.Errorf("read pool: %w", err)
	}
	var p Pool
	if err := json.Unmarshal(b, &p); err != nil {
		return Pool{}, fmt.Errorf("parse pool: %w", err)
	}
	for i := range p.Questions {
		p.Questions[i].Origin = "curated"
	}
	if err := p.Validate(); err != nil {
		return Pool{}, err
	}
	return p, nil
}

// DefaultPool returns the built-in v1 pool.
func DefaultPool() Pool {
	plus := decimal.NewFromInt(2)
	minus := decimal.RequireFromString("0.5")

	q := func(id, subject string, d exam.Difficulty, text string, correct int, opts ...string) exam.Question {
		options := make([]exam.Option, len(opts))
		for i, o := range opts {
			options[i] = exam.Option{
				ID:        fmt.Sprintf("o%d", i+1),
				Text:      o,
				IsCorrect: i == correct,
			}
		}
		return exam.Question{
			ID:            id,
			Text:          text,
			Options:       options,
			Subject:       subject,
			Difficulty:    d,
			PositiveMarks: plus,
			NegativeMarks: minus,
			Origin:        "curated",
		}
	}

	return Pool{
		Version: "v1",
		Questions: []exam.Question{
			q("pool_q1", "Quantitative Aptitude", exam.DifficultyEasy,
				"If A:B = 2:3 and B:C = 4:5, then find A:B:C.",
				0, "8:12:15", "2:3:5", "8:15:12", "6:9:15"),
			q("pool_q2", "Quantitative Aptitude", exam.DifficultyMedium,
				"A train running at 60 km/hr crosses a pole in 9 seconds. What is the length of the train?",
				2, "120 m", "180 m", "150 m", "324 m"),
			q("pool_q3", "Quantitative Aptitude", exam.DifficultyHard,
				"A does 20% less work than B. If A can complete a piece of work in 7.5 hours, then B can do it in:",
				0, "6 hours", "8 hours", "5.5 hours", "6.5 hours"),
			q("pool_q4", "General Awareness", exam.DifficultyMedium,
				`Which Article deals with "Right to Constitutional Remedies"?`,
				1, "Article 19", "Article 32", "Article 21", "Article 14"),
			q("pool_q5", "General Awareness", exam.DifficultyEasy,
				"Who was the first Governor-General of Bengal?",
				1, "Robert Clive", "Warren Hastings", "Lord Mayo", "Dalhousie"),
			q("pool_q6", "General Intelligence", exam.DifficultyHard,
				"Calendar : Dates :: Dictionary : ?",
				1, "Vocabulary", "Words", "Books", "Language"),
			q("pool_q7", "General Intelligence", exam.DifficultyMedium,
				"Find the odd one out: 3, 5, 11, 14, 17, 21",
				1, "21", "14", "17", "3"),
			q("pool_q8", "English", exam.DifficultyEasy,
				`Select the synonym of "ABANDON".`,
				1, "Keep", "Forsake", "Cherish", "Enlarge"),
			q("pool_q9", "Computer Knowledge", exam.DifficultyMedium,
				"In DBMS, which Normal Form removes transitive dependencies?",
				2, "1NF", "2NF", "3NF", "BCNF"),
		},
	}
}
