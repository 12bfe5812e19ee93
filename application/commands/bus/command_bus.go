package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrHandlerNotFound  = errors.New("command handler not found")
	ErrValidationFailed = errors.New("command validation failed")
)

// Command represents an editing operation that changes state.
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type.
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc adapts a function to the CommandHandler interface.
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// CommandBus routes each command to the single handler registered for its
// concrete type.
type CommandBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]CommandHandler
}

func NewCommandBus() *CommandBus {
	return &CommandBus{handlers: make(map[reflect.Type]CommandHandler)}
}

// Register binds a handler to the command's concrete type. Double
// registration is a wiring bug and fails loudly.
func (b *CommandBus) Register(prototype Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := reflect.TypeOf(prototype)
	if _, taken := b.handlers[key]; taken {
		return fmt.Errorf("command %s already has a handler", key.Name())
	}
	b.handlers[key] = handler
	return nil
}

// Send validates the command and dispatches it.
func (b *CommandBus) Send(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	b.mu.RLock()
	handler, ok := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %T", ErrHandlerNotFound, cmd)
	}

	return handler.Handle(ctx, cmd)
}

// Middleware wraps a command handler with cross-cutting behavior.
type Middleware func(next CommandHandler) CommandHandler

// Pipeline applies middleware in declaration order: the first middleware
// passed to NewPipeline sees the command first.
type Pipeline struct {
	chain []Middleware
}

func NewPipeline(chain ...Middleware) *Pipeline {
	return &Pipeline{chain: chain}
}

func (p *Pipeline) Execute(handler CommandHandler) CommandHandler {
	for i := len(p.chain) - 1; i >= 0; i-- {
		handler = p.chain[i](handler)
	}
	return handler
}

// LoggingMiddleware records each command dispatch and its failure, if any.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			name := reflect.TypeOf(cmd).Name()
			logger.Debug("executing command", zap.String("command", name))

			if err := next.Handle(ctx, cmd); err != nil {
				logger.Error("command failed",
					zap.String("command", name),
					zap.Error(err),
				)
				return err
			}
			return nil
		})
	}
}

// ValidationMiddleware re-checks the command directly before the handler,
// covering handlers invoked outside the bus.
func ValidationMiddleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			if err := cmd.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrValidationFailed, err)
			}
			return next.Handle(ctx, cmd)
		})
	}
}
