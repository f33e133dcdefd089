package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

// ErrClosed is returned for requests submitted after Close.
var ErrClosed = errors.New("sentiment: dispatcher closed")

// DefaultTimeout bounds a single Score call.
const DefaultTimeout = 60 * time.Second

// TimeoutError reports a Score call that ran past the dispatcher timeout.
// Cancellation by the caller is reported as the context error instead.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sentiment: scoring timed out after %s", e.After)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-request scoring timeout. Non-positive values keep
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// Request asks for one text to be scored. ID correlates the Result.
type Request struct {
	ID   string
	Text string
}

// Result is the answer to a Request. Results may complete in any order.
type Result struct {
	ID        string
	Sentiment journal.Sentiment
	Err       error
}

type job struct {
	ctx context.Context
	req Request
	out chan Result
}

// Dispatcher scores requests on a fixed pool of workers.
type Dispatcher struct {
	scorer  Scorer
	workers int
	timeout time.Duration
	jobs    chan job
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workers goroutines scoring with scorer.
func NewDispatcher(scorer Scorer, workers int, opts ...Option) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &Dispatcher{
		scorer:  scorer,
		workers: workers,
		timeout: DefaultTimeout,
		jobs:    make(chan job),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.jobs {
		res := Result{ID: j.req.ID}
		if err := j.ctx.Err(); err != nil {
			res.Err = err
		} else {
			s, err := d.score(j.ctx, j.req.Text)
			res.Sentiment, res.Err = s.Clamp(), err
		}
		j.out <- res
	}
}

type scoreResult struct {
	s   journal.Sentiment
	err error
}

// score runs one Score call bounded by the dispatcher timeout. A scorer
// that ignores its context is abandoned when the deadline passes.
func (d *Dispatcher) score(parent context.Context, text string) (journal.Sentiment, error) {
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	done := make(chan scoreResult, 1)
	go func() {
		s, err := d.scorer.Score(ctx, text)
		done <- scoreResult{s, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return journal.Sentiment{}, &TimeoutError{After: d.timeout}
		}
		return r.s, r.err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return journal.Sentiment{}, err
		}
		return journal.Sentiment{}, &TimeoutError{After: d.timeout}
	}
}

// Submit queues a request and returns a channel that receives exactly one
// Result. An empty ID is replaced with a generated one.
func (d *Dispatcher) Submit(ctx context.Context, req Request) <-chan Result {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	out := make(chan Result, 1)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		out <- Result{ID: req.ID, Err: ErrClosed}
		return out
	}

	select {
	case d.jobs <- job{ctx: ctx, req: req, out: out}:
	case <-ctx.Done():
		out <- Result{ID: req.ID, Err: ctx.Err()}
	}
	return out
}

// Close stops the workers after in-flight requests finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

// ScoreAll fills in the sentiment of every unscored entry. Entries that
// already carry a score are left untouched. The returned slice is a copy.
func (d *Dispatcher) ScoreAll(ctx context.Context, entries []journal.Entry) ([]journal.Entry, error) {
	out := make([]journal.Entry, len(entries))
	copy(out, entries)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	scored := 0
	for i := range out {
		if out[i].Sentiment != nil {
			continue
		}
		scored++
		g.Go(func() error {
			id := out[i].ID
			if id == "" {
				id = uuid.NewString()
			}
			res := <-d.Submit(gctx, Request{ID: id, Text: out[i].Text})
			if res.Err != nil {
				return fmt.Errorf("scoring entry %s: %w", id, res.Err)
			}
			if res.ID != id {
				return fmt.Errorf("scoring entry %s: result correlated to %s", id, res.ID)
			}
			s := res.Sentiment
			out[i].Sentiment = &s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug().Int("scored", scored).Int("total", len(out)).Msg("sentiment scoring complete")
	return out, nil
}
