// Package catalog resolves test definitions and exam categories.
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/abhisek/mockprep/internal/exam"
)

// ErrTestNotFound is returned when a test id is not in the catalog.
var ErrTestNotFound = errors.New("test not found")

// quickTestIDs are offered under every category.
var quickTestIDs = []string{"mock_10", "mock_25", "unlimited_1"}

var standardSubjects = []string{
	"Quantitative Aptitude",
	"General Awareness",
	"General Intelligence",
	"English",
}

// Catalog is an in-memory, read-only set of categories and tests.
type Catalog struct {
	categories []exam.Category
	tests      []exam.TestDefinition
	byID       map[string]exam.TestDefinition
}

// New builds a catalog. Test ids must be unique.
func New(categories []exam.Category, tests []exam.TestDefinition) (*Catalog, error) {
	byID := make(map[string]exam.TestDefinition, len(tests))
	for _, t := range tests {
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate test id %q", t.ID)
		}
		byID[t.ID] = t
	}
	return &Catalog{categories: categories, tests: tests, byID: byID}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultCategories(), defaultTests())
	if err != nil {
		panic(err)
	}
	return c
}

// Categories returns all exam categories in display order.
func (c *Catalog) Categories() []exam.Category {
	return append([]exam.Category(nil), c.categories...)
}

// Tests returns every test in display order.
func (c *Catalog) Tests() []exam.TestDefinition {
	return append([]exam.TestDefinition(nil), c.tests...)
}

// Lookup resolves a test definition by id.
func (c *Catalog) Lookup(id string) (exam.TestDefinition, error) {
	t, ok := c.byID[id]
	if !ok {
		return exam.TestDefinition{}, fmt.Errorf("%w: %q", ErrTestNotFound, id)
	}
	return t, nil
}

// ForCategory lists the quick tests first, then the category's own tests,
// without duplicates. An empty categoryID lists everything.
func (c *Catalog) ForCategory(categoryID string) []exam.TestDefinition {
	var out []exam.TestDefinition
	seen := make(map[string]bool)

	for _, id := range quickTestIDs {
		if t, ok := c.byID[id]; ok {
			out = append(out, t)
			seen[id] = true
		}
	}
	for _, t := range c.tests {
		if seen[t.ID] {
			continue
		}
		if categoryID == "" || t.Category == categoryID {
			out = append(out, t)
			seen[t.ID] = true
		}
	}
	return out
}

func defaultCategories() []exam.Category {
	return []exam.Category{
		{ID: "1", Name: "SSC (CGL/CHSL)", Description: "Staff Selection Commission Exams"},
		{ID: "2", Name: "Banking (IBPS/SBI)", Description: "PO and Clerk Exams for major banks"},
		{ID: "3", Name: "Railway (RRB)", Description: "NTPC and Group D Recruitment"},
		{ID: "4", Name: "UPSC (Prelims)", Description: "Civil Services Preliminary Examination"},
	}
}

func defaultTests() []exam.TestDefinition {
	plus := decimal.NewFromInt(2)
	minus := decimal.RequireFromString("0.5")

	fixed := func(id, category, title string, minutes, count, marks int) exam.TestDefinition {
		return exam.TestDefinition{
			ID:              id,
			Title:           title,
			Category:        category,
			DurationSeconds: minutes * 60,
			QuestionCount:   count,
			TotalMarks:      marks,
			Mode:            exam.ModeFixed,
			Subjects:        standardSubjects,
			PositiveMarks:   plus,
			NegativeMarks:   minus,
		}
	}

	return []exam.TestDefinition{
		fixed("mock_10", "1", "Quick Mock (10 Qs)", 15, 10, 20),
		fixed("mock_25", "1", "Standard Mock (25 Qs)", 30, 25, 50),
		{
			ID:              "unlimited_1",
			Title:           "Infinite Practice Arena",
			Category:        "1",
			DurationSeconds: 0,
			QuestionCount:   -1,
			Mode:            exam.ModeUnbounded,
			Subjects:        standardSubjects,
			PositiveMarks:   plus,
			NegativeMarks:   minus,
		},
		fixed("t1", "1", "SSC CGL Tier-1 Full Mock", 60, 25, 200),
		fixed("t2", "2", "SBI PO Prelims Speed Test", 60, 25, 100),
	}
}
