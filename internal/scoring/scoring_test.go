package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mockprep/internal/exam"
)

func mcq(id string, pos, neg string) exam.Question {
	return exam.Question{
		ID:         id,
		Text:       "Question " + id,
		Subject:    "Quantitative Aptitude",
		Difficulty: exam.DifficultyMedium,
		Options: []exam.Option{
			{ID: "a", Text: "A"},
			{ID: "b", Text: "B", IsCorrect: true},
			{ID: "c", Text: "C"},
			{ID: "d", Text: "D"},
		},
		PositiveMarks: decimal.RequireFromString(pos),
		NegativeMarks: decimal.RequireFromString(neg),
	}
}

func threeQuestions() (MapLookup, []string) {
	cache := MapLookup{
		"q1": mcq("q1", "2", "0.5"),
		"q2": mcq("q2", "2", "0.5"),
		"q3": mcq("q3", "2", "0.5"),
	}
	return cache, []string{"q1", "q2", "q3"}
}

func TestScoreWorkedExample(t *testing.T) {
	cache, order := threeQuestions()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	answers := map[string]string{"q1": "b", "q2": "c"}

	res, err := Score(answers, cache, order, at)
	require.NoError(t, err)

	assert.Equal(t, "1.5", res.Score.String())
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 2, res.Answered)
	assert.Equal(t, 3, res.Total)
	assert.True(t, res.Accuracy.Equal(decimal.NewFromInt(50)), "accuracy = %s", res.Accuracy)

	require.Len(t, res.Mistakes, 1)
	assert.Equal(t, "q2", res.Mistakes[0].QuestionID)
	assert.Equal(t, "c", res.Mistakes[0].SelectedOptionID)
	assert.Equal(t, at, res.Mistakes[0].AttemptTimestamp)
	assert.Equal(t, "Question q2", res.Mistakes[0].Question.Text)
}

func TestScoreZeroAnswers(t *testing.T) {
	cache, order := threeQuestions()
	res, err := Score(map[string]string{}, cache, order, time.Now())
	require.NoError(t, err)

	assert.True(t, res.Score.IsZero())
	assert.True(t, res.Accuracy.IsZero())
	assert.Empty(t, res.Mistakes)
	assert.Equal(t, 0, res.Answered)
}

func TestScoreIsStable(t *testing.T) {
	cache, order := threeQuestions()
	at := time.Now()
	answers := map[string]string{"q1": "a", "q2": "b", "q3": "d"}

	first, err := Score(answers, cache, order, at)
	require.NoError(t, err)
	second, err := Score(answers, cache, order, at)
	require.NoError(t, err)

	assert.True(t, first.Score.Equal(second.Score))
	assert.True(t, first.Accuracy.Equal(second.Accuracy))
	assert.Equal(t, first.Mistakes, second.Mistakes)
}

func TestScoreNoRoundingDrift(t *testing.T) {
	// 1000 wrong answers at 0.1 each is exactly -100, not -99.9999...
	cache := MapLookup{}
	var order []string
	answers := map[string]string{}
	for i := range 1000 {
		id := fmt.Sprintf("q%d", i)
		cache[id] = mcq(id, "1", "0.1")
		order = append(order, id)
		answers[id] = "a"
	}

	res, err := Score(answers, cache, order, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "-100", res.Score.String())
	assert.Len(t, res.Mistakes, 1000)
}

func TestScoreAccuracyRounding(t *testing.T) {
	cache, order := threeQuestions()
	answers := map[string]string{"q1": "b", "q2": "a", "q3": "a"}

	res, err := Score(answers, cache, order, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "33.33", res.Accuracy.StringFixed(AccuracyPlaces))
}

func TestScoreUnknownQuestion(t *testing.T) {
	cache, _ := threeQuestions()
	_, err := Score(nil, cache, []string{"q1", "ghost"}, time.Now())
	assert.Error(t, err)
}

func TestScoreIgnoresAnswersOutsideOrder(t *testing.T) {
	cache, order := threeQuestions()
	answers := map[string]string{"q1": "b", "elsewhere": "a"}

	res, err := Score(answers, cache, order, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Answered)
	assert.Equal(t, "2", res.Score.String())
}
