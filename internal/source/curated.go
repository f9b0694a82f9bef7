package source

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/abhisek/mockprep/internal/exam"
)

// Curated draws from a fixed pool, shuffled without replacement across a
// session. Once the pool is exhausted, batches are padded with clones that
// carry freshly minted ids and a CloneOf back-reference.
type Curated struct {
	pool Pool
	perm func(n int) []int
}

// CuratedOption configures a Curated strategy.
type CuratedOption func(*Curated)

// WithPermutation overrides the shuffle, for deterministic tests.
func WithPermutation(perm func(n int) []int) CuratedOption {
	return func(c *Curated) { c.perm = perm }
}

// NewCurated returns a curated strategy over a validated pool.
func NewCurated(pool Pool, opts ...CuratedOption) (*Curated, error) {
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	c := &Curated{pool: pool, perm: rand.Perm}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Curated) Name() string { return "curated" }

func (c *Curated) Available() bool { return len(c.pool.Questions) > 0 }

// PoolVersion reports the version of the backing pool.
func (c *Curated) PoolVersion() string { return c.pool.Version }

func (c *Curated) Fetch(_ context.Context, fc FetchContext, count int) ([]exam.Question, error) {
	if count <= 0 {
		return nil, nil
	}

	var fresh []exam.Question
	for _, q := range c.pool.Questions {
		if !fc.excluded(q.ID) {
			fresh = append(fresh, q)
		}
	}

	out := make([]exam.Question, 0, count)
	for _, i := range c.perm(len(fresh)) {
		if len(out) == count {
			return out, nil
		}
		out = append(out, fresh[i].Clone())
	}

	// Pool exhausted for this session: pad with re-identified clones.
	all := c.pool.Questions
	for len(out) < count {
		for _, i := range c.perm(len(all)) {
			if len(out) == count {
				break
			}
			out = append(out, cloneWithNewID(all[i]))
		}
	}
	return out, nil
}

func cloneWithNewID(q exam.Question) exam.Question {
	c := q.Clone()
	c.CloneOf = q.ID
	c.ID = q.ID + "~" + uuid.NewString()[:8]
	return c
}
