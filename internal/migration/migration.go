// Package migration orders schema changes by version number so a store can be
// brought from whatever version it persisted to the version the code expects.
//
// The plan is generic over the handle each backend hands to a migration step
// (a *sql.Tx for PostgreSQL, a *badger.Txn for the embedded store). Backends
// own the transaction and the persisted version marker; the plan only decides
// which steps run and in what order.
package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPlan is returned when migrations are not strictly increasing.
	ErrInvalidPlan = errors.New("invalid migration plan")

	// ErrVersionTooNew means the store was written by a newer schema than this build knows.
	ErrVersionTooNew = errors.New("stored schema version is newer than supported")
)

// Migration is one versioned schema step.
type Migration[T any] struct {
	Version int
	Name    string
	Up      func(T) error
}

// Plan is an ordered, validated list of migrations.
type Plan[T any] struct {
	steps []Migration[T]
}

func NewPlan[T any](steps ...Migration[T]) (*Plan[T], error) {
	prev := 0
	for _, s := range steps {
		if s.Version <= 0 {
			return nil, fmt.Errorf("%w: version %d of %q must be positive", ErrInvalidPlan, s.Version, s.Name)
		}
		if s.Version <= prev {
			return nil, fmt.Errorf("%w: version %d of %q does not follow %d", ErrInvalidPlan, s.Version, s.Name, prev)
		}
		if s.Up == nil {
			return nil, fmt.Errorf("%w: version %d of %q has no Up step", ErrInvalidPlan, s.Version, s.Name)
		}
		prev = s.Version
	}
	return &Plan[T]{steps: append([]Migration[T](nil), steps...)}, nil
}

// MustPlan is NewPlan for package-level plans that are known to be valid.
func MustPlan[T any](steps ...Migration[T]) *Plan[T] {
	p, err := NewPlan(steps...)
	if err != nil {
		panic(err)
	}
	return p
}

// Latest returns the version the plan migrates to, or 0 for an empty plan.
func (p *Plan[T]) Latest() int {
	if len(p.steps) == 0 {
		return 0
	}
	return p.steps[len(p.steps)-1].Version
}

// Pending returns the steps newer than current, in order.
func (p *Plan[T]) Pending(current int) ([]Migration[T], error) {
	if current > p.Latest() {
		return nil, fmt.Errorf("%w: stored %d, supported %d", ErrVersionTooNew, current, p.Latest())
	}
	var pending []Migration[T]
	for _, s := range p.steps {
		if s.Version > current {
			pending = append(pending, s)
		}
	}
	return pending, nil
}

// Apply runs each pending step with handle and reports the version reached.
// It stops at the first failing step; the caller decides whether to commit.
func (p *Plan[T]) Apply(handle T, current int) (int, error) {
	pending, err := p.Pending(current)
	if err != nil {
		return current, err
	}
	reached := current
	for _, s := range pending {
		if err := s.Up(handle); err != nil {
			return reached, fmt.Errorf("migration %d (%s): %w", s.Version, s.Name, err)
		}
		reached = s.Version
	}
	return reached, nil
}
