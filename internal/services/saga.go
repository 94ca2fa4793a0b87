package services

import (
	"context"
	"fmt"

	"github.com/arashpm/points-gateway/pkg/logger"
)

type sagaStep struct {
	name       string
	action     func(ctx context.Context) error
	compensate func(ctx context.Context) error // nil when there is nothing to undo
}

// saga runs an ordered list of steps. When a step fails, the compensations
// of every completed step run in reverse order and the step's error is
// returned. Compensation failures are logged, never surfaced: the original
// failure is the one the caller needs.
type saga struct {
	steps []sagaStep
}

func (s *saga) add(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, sagaStep{name: name, action: action, compensate: compensate})
}

func (s *saga) run(ctx context.Context) error {
	var done []sagaStep
	for _, step := range s.steps {
		if err := step.action(ctx); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].compensate == nil {
					continue
				}
				if cerr := done[i].compensate(ctx); cerr != nil {
					logger.Error("saga compensation failed", "step", done[i].name, "error", cerr)
				}
			}
			return fmt.Errorf("%s: %w", step.name, err)
		}
		done = append(done, step)
	}
	return nil
}
