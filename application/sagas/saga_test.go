package sagas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaga_ExecutesStepsInOrder(t *testing.T) {
	var order []string
	saga := NewSaga("happy-path", zap.NewNop()).
		AddStep(Step{
			Name: "first",
			Execute: func(_ context.Context, data interface{}) (interface{}, error) {
				order = append(order, "first")
				return data.(int) + 1, nil
			},
		}).
		AddStep(Step{
			Name: "second",
			Execute: func(_ context.Context, data interface{}) (interface{}, error) {
				order = append(order, "second")
				return data.(int) * 10, nil
			},
		})

	result, err := saga.Execute(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 20, result)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, StateCompleted, saga.GetState())
}

func TestSaga_CompensatesInReverseOrder(t *testing.T) {
	var compensated []string
	saga := NewSaga("rollback", zap.NewNop()).
		AddStep(Step{
			Name: "first",
			Execute: func(_ context.Context, data interface{}) (interface{}, error) {
				return data, nil
			},
			Compensate: func(_ context.Context, _ interface{}) error {
				compensated = append(compensated, "first")
				return nil
			},
		}).
		AddStep(Step{
			Name: "second",
			Execute: func(_ context.Context, data interface{}) (interface{}, error) {
				return data, nil
			},
			Compensate: func(_ context.Context, _ interface{}) error {
				compensated = append(compensated, "second")
				return nil
			},
		}).
		AddStep(Step{
			Name: "boom",
			Execute: func(_ context.Context, _ interface{}) (interface{}, error) {
				return nil, errors.New("step failed")
			},
		})

	_, err := saga.Execute(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, []string{"second", "first"}, compensated)
	assert.Equal(t, StateCompensated, saga.GetState())
}

func TestSaga_RetriesBeforeFailing(t *testing.T) {
	attempts := 0
	saga := NewSaga("retry", zap.NewNop()).
		AddStep(Step{
			Name:       "flaky",
			MaxRetries: 3,
			RetryDelay: 1,
			Execute: func(_ context.Context, data interface{}) (interface{}, error) {
				attempts++
				if attempts < 3 {
					return nil, errors.New("transient")
				}
				return data, nil
			},
		})

	_, err := saga.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestSaga_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saga := NewSaga("cancelled", zap.NewNop()).
		AddStep(Step{
			Name:       "never-succeeds",
			MaxRetries: 5,
			Execute: func(_ context.Context, _ interface{}) (interface{}, error) {
				return nil, errors.New("fails")
			},
		})

	_, err := saga.Execute(ctx, nil)
	assert.Error(t, err)
}
