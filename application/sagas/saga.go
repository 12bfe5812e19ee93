package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is a single unit of work in a saga. Compensate undoes the step when
// a later step fails; steps without compensation are skipped on rollback.
type Step struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
}

// State represents the current state of a saga execution
type State string

const (
	StatePending      State = "PENDING"
	StateRunning      State = "RUNNING"
	StateCompleted    State = "COMPLETED"
	StateFailed       State = "FAILED"
	StateCompensating State = "COMPENSATING"
	StateCompensated  State = "COMPENSATED"
)

// Saga orchestrates a series of steps with compensation on failure. Each
// step receives the previous step's output as its input.
type Saga struct {
	id            string
	name          string
	steps         []Step
	compensations []func(ctx context.Context) error
	state         State
	currentStep   int
	logger        *zap.Logger
}

// NewSaga creates a new saga instance
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{
		id:     uuid.New().String(),
		name:   name,
		state:  StatePending,
		logger: logger,
	}
}

// AddStep appends a step to the saga
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the saga to completion or compensates on failure
func (s *Saga) Execute(ctx context.Context, initialData interface{}) (interface{}, error) {
	s.state = StateRunning
	s.logger.Info("starting saga",
		zap.String("sagaID", s.id),
		zap.String("saga", s.name),
		zap.Int("steps", len(s.steps)),
	)

	var data interface{} = initialData
	completed := 0

	for i, step := range s.steps {
		s.currentStep = i

		result, err := s.executeWithRetry(ctx, step, data)
		if err != nil {
			s.state = StateFailed
			s.logger.Error("saga step failed",
				zap.String("sagaID", s.id),
				zap.String("step", step.Name),
				zap.Error(err),
			)

			if compErr := s.compensate(ctx); compErr != nil {
				return nil, fmt.Errorf("saga %s failed at step %s and compensation failed: %w", s.name, step.Name, err)
			}

			s.state = StateCompensated
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}

		data = result
		completed = i + 1

		if step.Compensate != nil {
			stepData := data
			s.compensations = append(s.compensations, func(ctx context.Context) error {
				return step.Compensate(ctx, stepData)
			})
		}
	}

	s.state = StateCompleted
	s.logger.Info("saga completed",
		zap.String("sagaID", s.id),
		zap.String("saga", s.name),
		zap.Int("completedSteps", completed),
	)

	return data, nil
}

func (s *Saga) executeWithRetry(ctx context.Context, step Step, data interface{}) (interface{}, error) {
	maxRetries := step.MaxRetries
	if maxRetries == 0 {
		maxRetries = 1
	}
	retryDelay := step.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}

		lastErr = err
		s.logger.Warn("saga step attempt failed",
			zap.String("sagaID", s.id),
			zap.String("step", step.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("step %s failed after %d attempts: %w", step.Name, maxRetries, lastErr)
}

// compensate runs registered compensations in reverse order. A failing
// compensation is logged and the rest still run.
func (s *Saga) compensate(ctx context.Context) error {
	s.state = StateCompensating
	s.logger.Info("compensating saga",
		zap.String("sagaID", s.id),
		zap.Int("compensations", len(s.compensations)),
	)

	for i := len(s.compensations) - 1; i >= 0; i-- {
		if err := s.compensations[i](ctx); err != nil {
			s.logger.Error("compensation failed",
				zap.String("sagaID", s.id),
				zap.Int("step", i+1),
				zap.Error(err),
			)
		}
	}

	return nil
}

// ID returns the saga's unique identifier
func (s *Saga) ID() string {
	return s.id
}

// GetState returns the saga's current state
func (s *Saga) GetState() State {
	return s.state
}

// CurrentStep returns the index of the step being executed
func (s *Saga) CurrentStep() int {
	return s.currentStep
}
