// Package iterate implements the fixed-point iteration scheduler: it applies
// a loop body built from incremental operators to its own output, round by
// round, until one round produces no delta. Termination is a property of the
// loop body, not of the scheduler -- monotone functions over a bounded
// lattice (distances that only decrease, bounded below by zero) converge,
// arbitrary bodies need not. The scheduler therefore carries a configurable
// round cap and reports exceeding it as a liveness violation rather than
// spinning silently.
package iterate

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/l7mp/dflow/internal/metrics"
	"github.com/l7mp/dflow/pkg/zset"
)

// ErrNotConverged is returned when the loop body still produces deltas at
// the round cap.
var ErrNotConverged = errors.New("iteration exceeded round cap without converging")

// DefaultMaxRounds is the default round cap. The reference model tolerates
// unbounded iteration because work stops once deltas vanish; the cap exists
// so that a non-monotone body fails loudly instead. Set MaxRounds to 0 to
// restore unbounded behavior.
const DefaultMaxRounds = 1 << 16

// State of the iteration.
type State int

const (
	Initializing State = iota
	Rounding
	Converged
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Rounding:
		return "Rounding"
	case Converged:
		return "Converged"
	default:
		return "Unknown"
	}
}

// Body is one application of the loop body to a round delta. Stateful
// operators inside the body keep their history across rounds and across
// successive Run calls; Reset drops it.
type Body[T comparable] interface {
	Step(ctx context.Context, delta *zset.ZSet[T]) (*zset.ZSet[T], error)
	Reset()
}

// BodyFunc adapts a plain function into a stateless Body.
type BodyFunc[T comparable] func(ctx context.Context, delta *zset.ZSet[T]) (*zset.ZSet[T], error)

func (f BodyFunc[T]) Step(ctx context.Context, delta *zset.ZSet[T]) (*zset.ZSet[T], error) {
	return f(ctx, delta)
}

func (f BodyFunc[T]) Reset() {}

type options struct {
	maxRounds int
	log       logr.Logger
}

// Option configures a Scheduler.
type Option func(*options)

// WithMaxRounds sets the round cap. Zero disables the cap.
func WithMaxRounds(n int) Option {
	return func(o *options) { o.maxRounds = n }
}

// WithLogger sets the scheduler logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// Scheduler drives a loop body to its fixed point. It owns the iteration
// context explicitly: each round's delta is an immutable Z-set consumed by
// the next round, and the accumulated collection is returned only once no
// delta remains.
type Scheduler[T comparable] struct {
	body      Body[T]
	maxRounds int
	log       logr.Logger

	state  State
	rounds int
}

// NewScheduler creates a fixed-point scheduler for the loop body.
func NewScheduler[T comparable](body Body[T], opts ...Option) *Scheduler[T] {
	o := options{maxRounds: DefaultMaxRounds, log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Scheduler[T]{
		body:      body,
		maxRounds: o.maxRounds,
		log:       o.log,
		state:     Initializing,
	}
}

// State returns the current scheduler state.
func (s *Scheduler[T]) State() State { return s.state }

// Rounds returns the number of rounds executed by the last Run.
func (s *Scheduler[T]) Rounds() int { return s.rounds }

// Run seeds the loop with the initial delta and rounds until the body emits
// an empty delta. It returns the accumulated fixed point (the sum of all
// body outputs) and the number of rounds taken. The body's retained state is
// not reset, so successive Runs continue incrementally from the previous
// fixed point: feeding the next external delta as the seed recomputes only
// what changed.
//
// Context cancellation is checked between rounds; a batch already admitted
// to the body is processed to completion.
func (s *Scheduler[T]) Run(ctx context.Context, seed *zset.ZSet[T]) (*zset.ZSet[T], int, error) {
	start := time.Now()
	s.state = Initializing
	s.rounds = 0

	result := zset.New[T]()
	delta := seed.DeepCopy()
	s.state = Rounding

	for !delta.IsZero() {
		if err := ctx.Err(); err != nil {
			return nil, s.rounds, err
		}
		if s.maxRounds > 0 && s.rounds >= s.maxRounds {
			metrics.NonConvergence.Inc()
			s.log.Error(ErrNotConverged, "liveness violation", "rounds", s.rounds,
				"pending", delta.TotalSize())
			return nil, s.rounds, ErrNotConverged
		}
		s.rounds++

		out, err := s.body.Step(ctx, delta)
		if err != nil {
			return nil, s.rounds, err
		}

		result.AddMutate(out)
		s.log.V(1).Info("round", "n", s.rounds, "in", delta.TotalSize(), "out", out.TotalSize())
		metrics.IterationRounds.Inc()
		delta = out
	}

	s.state = Converged
	metrics.ConvergenceDuration.Observe(time.Since(start).Seconds())
	s.log.V(1).Info("converged", "rounds", s.rounds, "result", result.UniqueCount())
	return result, s.rounds, nil
}

// Reset drops the loop body's retained state and reinitializes the
// scheduler.
func (s *Scheduler[T]) Reset() {
	s.body.Reset()
	s.state = Initializing
	s.rounds = 0
}
