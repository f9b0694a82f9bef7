package session

import (
	"context"
	"errors"

	"github.com/abhisek/mockprep/internal/exam"
	"github.com/abhisek/mockprep/internal/source"
)

// PageState is the pagination state machine.
type PageState int

const (
	PageIdle PageState = iota
	PageFetching
)

func (s PageState) String() string {
	if s == PageFetching {
		return "fetching"
	}
	return "idle"
}

// Paginator guards on-demand growth of an unbounded session. At most one
// page is in flight at a time.
type Paginator struct {
	state    PageState
	pageSize int
	pages    int
}

// NewPaginator returns an idle paginator fetching pageSize questions per page.
func NewPaginator(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Paginator{pageSize: pageSize}
}

// Begin moves IDLE to FETCHING.
func (p *Paginator) Begin() error {
	if p.state == PageFetching {
		return ErrFetchInProgress
	}
	p.state = PageFetching
	return nil
}

// End returns to IDLE. ok records whether the page was applied.
func (p *Paginator) End(ok bool) {
	p.state = PageIdle
	if ok {
		p.pages++
	}
}

func (p *Paginator) State() PageState { return p.state }
func (p *Paginator) PageSize() int    { return p.pageSize }

// Pages is the number of pages appended after the initial batch.
func (p *Paginator) Pages() int { return p.pages }

// fetchPage asks src for the next page. It touches no session state so it
// can run off the controller loop.
func fetchPage(ctx context.Context, src source.Source, fc source.FetchContext, size int) ([]exam.Question, error) {
	batch, err := src.FetchBatch(ctx, fc, size)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, errors.New("source returned an empty page")
	}
	return batch, nil
}
