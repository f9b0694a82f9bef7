// Package screens holds the dependencies shared by the TUI screens.
// Each screen lives in its own sub-package.
package screens

import (
	"context"

	"github.com/abhisek/mockprep/internal/catalog"
	"github.com/abhisek/mockprep/internal/session"
	"github.com/abhisek/mockprep/internal/store"
	"github.com/abhisek/mockprep/internal/tutor"
)

// Explainer produces a tutor explanation for one mistake.
type Explainer interface {
	Explain(ctx context.Context, v tutor.MistakeView) (tutor.Explanation, error)
}

// Env is built once by the app and handed to every screen.
type Env struct {
	Catalog  *catalog.Catalog
	Attempts store.AttemptRepo
	Tutor    Explainer
	UserID   string

	// Session carries the question source and saver for new exams.
	Session        session.Deps
	SessionOptions []session.Option
}
