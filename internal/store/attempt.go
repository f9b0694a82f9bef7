package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mockprep/internal/exam"
)

var attemptColumns = []string{
	"id", "test_id", "user_id", "score", "accuracy", "start_time", "end_time",
	"status", "correct", "answered", "total", "focus_losses", "submit_trigger",
}

var mistakeColumns = []string{
	"attempt_id", "question_id", "selected_option_id", "attempt_timestamp", "question",
}

type attemptRepo struct {
	db *sql.DB
}

func (r *attemptRepo) SaveAttempt(ctx context.Context, a exam.Attempt, mistakes []exam.MistakeRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(AttemptsTable.Name).
		Columns(attemptColumns...).
		Values(
			a.ID, a.TestID, a.UserID,
			a.Score.String(), a.Accuracy.String(),
			a.StartTime.UnixMilli(), a.EndTime.UnixMilli(),
			string(a.Status), a.Correct, a.Answered, a.Total, a.FocusLosses,
			string(a.Trigger),
		).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	if len(mistakes) > 0 {
		insert := entsql.Dialect(dialect.SQLite).
			Insert(MistakesTable.Name).
			Columns(mistakeColumns...)
		for _, m := range mistakes {
			frozen, err := json.Marshal(m.Question)
			if err != nil {
				return fmt.Errorf("encode question %s: %w", m.QuestionID, err)
			}
			insert.Values(a.ID, m.QuestionID, m.SelectedOptionID, m.AttemptTimestamp.UnixMilli(), string(frozen))
		}
		query, args := insert.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert mistakes: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) LoadAttemptHistory(ctx context.Context, userID string, limit int) ([]exam.Attempt, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(attemptColumns...).
		From(entsql.Table(AttemptsTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("end_time"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []exam.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *attemptRepo) GetAttempt(ctx context.Context, id string) (exam.Attempt, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(attemptColumns...).
		From(entsql.Table(AttemptsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return exam.Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (r *attemptRepo) LoadMistakes(ctx context.Context, userID string, limit int) ([]exam.MistakeRecord, error) {
	m := entsql.Table(MistakesTable.Name)
	a := entsql.Table(AttemptsTable.Name)
	sel := entsql.Dialect(dialect.SQLite).
		Select(m.C("attempt_id"), m.C("question_id"), m.C("selected_option_id"), m.C("attempt_timestamp"), m.C("question")).
		From(m).
		Join(a).On(m.C("attempt_id"), a.C("id")).
		Where(entsql.EQ(a.C("user_id"), userID)).
		OrderBy(entsql.Desc(m.C("attempt_timestamp")), entsql.Desc(m.C("id")))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	return r.queryMistakes(ctx, query, args)
}

func (r *attemptRepo) MistakesForAttempt(ctx context.Context, attemptID string) ([]exam.MistakeRecord, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(mistakeColumns...).
		From(entsql.Table(MistakesTable.Name)).
		Where(entsql.EQ("attempt_id", attemptID)).
		OrderBy("id").
		Query()
	return r.queryMistakes(ctx, query, args)
}

func (r *attemptRepo) queryMistakes(ctx context.Context, query string, args []any) ([]exam.MistakeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mistakes: %w", err)
	}
	defer rows.Close()

	var out []exam.MistakeRecord
	for rows.Next() {
		var (
			rec    exam.MistakeRecord
			at     int64
			frozen string
		)
		if err := rows.Scan(&rec.AttemptID, &rec.QuestionID, &rec.SelectedOptionID, &at, &frozen); err != nil {
			return nil, fmt.Errorf("scan mistake: %w", err)
		}
		if err := json.Unmarshal([]byte(frozen), &rec.Question); err != nil {
			return nil, fmt.Errorf("decode question %s: %w", rec.QuestionID, err)
		}
		rec.AttemptTimestamp = time.UnixMilli(at).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (exam.Attempt, error) {
	var (
		a          exam.Attempt
		start, end int64
		status     string
		trigger    string
	)
	err := row.Scan(
		&a.ID, &a.TestID, &a.UserID, &a.Score, &a.Accuracy, &start, &end,
		&status, &a.Correct, &a.Answered, &a.Total, &a.FocusLosses, &trigger,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return exam.Attempt{}, err
		}
		return exam.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	a.StartTime = time.UnixMilli(start).UTC()
	a.EndTime = time.UnixMilli(end).UTC()
	a.Status = exam.AttemptStatus(status)
	a.Trigger = exam.SubmitTrigger(trigger)
	return a, nil
}
