package session

import (
	"github.com/rs/zerolog/log"

	"github.com/abhisek/mockprep/internal/exam"
)

// QuestionCache pins every question shown during a session. Entries are
// only ever appended; once an id is present its content is frozen and is
// what grading uses. There is no update or delete.
//
// The cache is owned by the controller loop and is not safe for concurrent use.
type QuestionCache struct {
	entries map[string]exam.Question
	ids     []string
}

// NewQuestionCache returns an empty cache.
func NewQuestionCache() *QuestionCache {
	return &QuestionCache{entries: make(map[string]exam.Question)}
}

// Put appends the batch in order, skipping any id already present, and
// returns the ids that were accepted.
func (c *QuestionCache) Put(batch []exam.Question) []string {
	accepted := make([]string, 0, len(batch))
	for _, q := range batch {
		if _, dup := c.entries[q.ID]; dup {
			log.Warn().Str("question_id", q.ID).Msg("question already cached, ignoring")
			continue
		}
		c.entries[q.ID] = q.Clone()
		c.ids = append(c.ids, q.ID)
		accepted = append(accepted, q.ID)
	}
	return accepted
}

// Get returns a copy of the pinned question.
func (c *QuestionCache) Get(id string) (exam.Question, bool) {
	q, ok := c.entries[id]
	if !ok {
		return exam.Question{}, false
	}
	return q.Clone(), true
}

// Len is the number of cached questions.
func (c *QuestionCache) Len() int { return len(c.ids) }

// Has reports whether id is cached.
func (c *QuestionCache) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// IDs returns cached ids in insertion order.
func (c *QuestionCache) IDs() []string {
	return append([]string(nil), c.ids...)
}

// RecentTexts returns the texts of the last n cached questions.
func (c *QuestionCache) RecentTexts(n int) []string {
	ids := c.ids
	if n > 0 && len(ids) > n {
		ids = ids[len(ids)-n:]
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = c.entries[id].Text
	}
	return out
}
