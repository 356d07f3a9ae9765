// Package poller watches a submitted SharpAPI job until it reaches a terminal
// status or the caller's local deadline runs out.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

var (
	ErrEmptyHandle   = errors.New("poller: job handle is empty")
	ErrInvalidPolicy = errors.New("poller: invalid polling policy")
)

// Fetcher issues the status GET for a handle. sharpapi.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, statusURL string) (*sharpapi.Response, error)
}

// Sleeper suspends between polls. Implementations must return ctx.Err() when
// ctx is done before d elapses.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State is the poll loop state.
type State int

const (
	StatePolling State = iota
	StateSuccess
	StateFailed
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome describes how a poll loop ended.
type Outcome struct {
	Record *models.JobRecord
	State  State
	Polls  int
	// Waited is the total time actually slept between polls.
	Waited time.Duration
}

// Poller runs poll loops. A Poller holds no per-job state, so one instance
// can serve any number of concurrent AwaitCompletion calls.
type Poller struct {
	fetcher Fetcher
	sleeper Sleeper
	logger  *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithSleeper replaces the wall-clock sleeper.
func WithSleeper(s Sleeper) Option {
	return func(p *Poller) { p.sleeper = s }
}

// WithLogger sets the logger used for per-poll debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// New creates a Poller that fetches status through f.
func New(f Fetcher, opts ...Option) *Poller {
	p := &Poller{fetcher: f, sleeper: timerSleeper{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AwaitCompletion polls handle until the job is terminal or policy.MaxWait is
// used up, and returns the record built from the last response.
//
// Running out of time is not an error: the returned record then carries the
// last observed non-terminal status and the caller may poll the same handle
// again later.
func (p *Poller) AwaitCompletion(ctx context.Context, handle models.JobHandle, policy Policy) (*models.JobRecord, error) {
	out, err := p.Await(ctx, handle, policy)
	if err != nil {
		return nil, err
	}
	return out.Record, nil
}

// Await is AwaitCompletion with the loop's final state and counters.
func (p *Poller) Await(ctx context.Context, handle models.JobHandle, policy Policy) (*Outcome, error) {
	if handle == "" {
		return nil, ErrEmptyHandle
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	out := &Outcome{State: StatePolling}
	var elapsed time.Duration

	for {
		resp, err := p.fetcher.Fetch(ctx, string(handle))
		if err != nil {
			return nil, err
		}
		out.Polls++

		rec, err := decodeRecord(resp)
		if err != nil {
			return nil, err
		}
		out.Record = rec

		if rec.Status.IsTerminal() {
			out.State = terminalState(rec.Status)
			break
		}

		interval := policy.nextInterval(resp.Header)
		elapsed += interval
		if elapsed >= policy.MaxWait {
			out.State = StateExhausted
			break
		}

		p.logger.Debug("job not finished, waiting",
			"handle", string(handle),
			"status", string(rec.Status),
			"interval", interval.String(),
			"elapsed", elapsed.String(),
		)
		if err := p.sleeper.Sleep(ctx, interval); err != nil {
			return nil, err
		}
		out.Waited += interval
	}

	p.logger.Debug("polling finished",
		"handle", string(handle),
		"state", out.State.String(),
		"polls", out.Polls,
	)
	return out, nil
}

func terminalState(s models.JobStatus) State {
	if s == models.JobStatusSuccess {
		return StateSuccess
	}
	return StateFailed
}

// decodeRecord builds a JobRecord from a status response body shaped
// {"data":{"id":...,"attributes":{"type":...,"status":...,"result":...}}}.
func decodeRecord(resp *sharpapi.Response) (*models.JobRecord, error) {
	var env statusEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.Attributes == nil {
		return nil, fmt.Errorf("%w: missing data.attributes in status response", sharpapi.ErrDecode)
	}

	attrs := env.Data.Attributes
	rec := &models.JobRecord{
		ID:     env.Data.ID,
		Type:   attrs.Type,
		Status: attrs.Status,
	}
	if attrs.Status == models.JobStatusSuccess {
		rec.Result = attrs.Result
	}
	if !rec.HasResult() {
		rec.Result = nil
	}
	return rec, nil
}

// --- status response types ---

type statusEnvelope struct {
	Data *statusData `json:"data"`
}

type statusData struct {
	ID         string            `json:"id"`
	Attributes *statusAttributes `json:"attributes"`
}

type statusAttributes struct {
	Type   string           `json:"type"`
	Status models.JobStatus `json:"status"`
	Result json.RawMessage  `json:"result"`
}
