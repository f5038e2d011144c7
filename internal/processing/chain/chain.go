// Package chain runs an ordered list of named steps over a shared state.
package chain

import (
	"context"
	"fmt"
)

// Step is one stage of a chain. Steps read their inputs from the state and
// attach new outputs to it; they never rewrite outputs of earlier steps.
type Step[S any] interface {
	Apply(ctx context.Context, state S) error
	Name() string
}

// TimingTracker is satisfied by timing.Tracker.
type TimingTracker interface {
	StartTiming(operation string) context.Context
	EndTiming(ctx context.Context)
}

type funcStep[S any] struct {
	name string
	fn   func(ctx context.Context, state S) error
}

func (s funcStep[S]) Apply(ctx context.Context, state S) error { return s.fn(ctx, state) }

func (s funcStep[S]) Name() string { return s.name }

// NewStep adapts a function into a Step.
func NewStep[S any](name string, fn func(ctx context.Context, state S) error) Step[S] {
	return funcStep[S]{name: name, fn: fn}
}

type ProcessingChain[S any] struct {
	steps   []Step[S]
	tracker TimingTracker
}

// NewProcessingChain builds a chain. tracker may be nil.
func NewProcessingChain[S any](steps []Step[S], tracker TimingTracker) *ProcessingChain[S] {
	return &ProcessingChain[S]{
		steps:   steps,
		tracker: tracker,
	}
}

// Execute runs every step in order and stops at the first failure; there is
// no partial result.
func (pc *ProcessingChain[S]) Execute(ctx context.Context, state S) error {
	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var timingCtx context.Context
		if pc.tracker != nil {
			timingCtx = pc.tracker.StartTiming(step.Name())
		}
		err := step.Apply(ctx, state)
		if pc.tracker != nil {
			pc.tracker.EndTiming(timingCtx)
		}
		if err != nil {
			return fmt.Errorf("step %s failed: %w", step.Name(), err)
		}
	}
	return nil
}

// GetStepNames returns the step names in execution order.
func (pc *ProcessingChain[S]) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}
