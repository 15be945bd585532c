// Package tasks supervises the background work spawned while launching the RPC add-ons.
//
// Tasks come in two flavours. Ordinary tasks fail locally: their error is logged and the
// rest of the node keeps running. Critical tasks guard state other components rely on, so
// an unexpected exit (a returned error or a panic) is escalated to the CriticalHandler,
// which by default terminates the process.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Task is a unit of background work. Returning nil, or an error caused by cancellation of
// ctx, is a graceful exit.
type Task func(ctx context.Context) error

// Spawner launches background tasks.
type Spawner interface {
	// Spawn runs task in the background. Failures are logged and not escalated.
	Spawn(name string, task Task)

	// SpawnCritical runs task in the background. Any unexpected termination is escalated
	// as a CriticalTaskError to the spawner's critical handler.
	SpawnCritical(name string, task Task)
}

// CriticalTaskError reports the unexpected termination of a critical task.
type CriticalTaskError struct {
	// Name is the name the task was spawned with.
	Name string
	// Err is the error returned by the task, or a description of its panic.
	Err error
}

func (e *CriticalTaskError) Error() string {
	return fmt.Sprintf("critical task %q failed: %v", e.Name, e.Err)
}

func (e *CriticalTaskError) Unwrap() error {
	return e.Err
}

// CriticalHandler reacts to the failure of a critical task.
type CriticalHandler func(err *CriticalTaskError)

// Metrics receives task lifecycle notifications.
type Metrics interface {
	CriticalTaskFailed(name string)
}

// FatalHandler returns a CriticalHandler that logs the failure at fatal level, which
// exits the process.
func FatalHandler(logger zerolog.Logger) CriticalHandler {
	return func(err *CriticalTaskError) {
		logger.Fatal().Err(err.Err).Str("task", err.Name).Msg("critical task failed, shutting down")
	}
}

// ChannelHandler returns a CriticalHandler that forwards failures to errs without blocking.
// Failures are dropped once the buffer of errs is full.
func ChannelHandler(errs chan<- error) CriticalHandler {
	return func(err *CriticalTaskError) {
		select {
		case errs <- err:
		default:
		}
	}
}

// Option configures an Executor.
type Option func(*Executor)

// WithCriticalHandler replaces the default FatalHandler.
func WithCriticalHandler(handler CriticalHandler) Option {
	return func(e *Executor) {
		e.onCritical = handler
	}
}

// WithMetrics reports task failures to m.
func WithMetrics(m Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// Executor is the default Spawner. All tasks share the context the executor was created
// with; cancelling it asks every task to stop.
type Executor struct {
	ctx        context.Context
	logger     zerolog.Logger
	onCritical CriticalHandler
	metrics    Metrics

	running *atomic.Int64
	wg      sync.WaitGroup
}

var _ Spawner = (*Executor)(nil)

// NewExecutor creates an executor whose tasks run until ctx is cancelled.
func NewExecutor(ctx context.Context, logger zerolog.Logger, opts ...Option) *Executor {
	logger = logger.With().Str("component", "task-executor").Logger()
	e := &Executor{
		ctx:        ctx,
		logger:     logger,
		onCritical: FatalHandler(logger),
		running:    atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spawn implements Spawner.
func (e *Executor) Spawn(name string, task Task) {
	e.launch(name, task, func(err error) {
		e.logger.Error().Err(err).Str("task", name).Msg("task failed")
	})
}

// SpawnCritical implements Spawner.
func (e *Executor) SpawnCritical(name string, task Task) {
	e.launch(name, task, func(err error) {
		if e.metrics != nil {
			e.metrics.CriticalTaskFailed(name)
		}
		e.onCritical(&CriticalTaskError{Name: name, Err: err})
	})
}

func (e *Executor) launch(name string, task Task, onFailure func(error)) {
	e.wg.Add(1)
	e.running.Inc()
	e.logger.Debug().Str("task", name).Msg("spawning task")

	go func() {
		defer e.wg.Done()
		defer e.running.Dec()

		if err := e.run(task); err != nil {
			onFailure(err)
			return
		}
		e.logger.Debug().Str("task", name).Msg("task finished")
	}()
}

// run executes task and converts a panic into an error.
func (e *Executor) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	err = task(e.ctx)
	if err != nil && e.ctx.Err() != nil && errors.Is(err, e.ctx.Err()) {
		return nil
	}
	return err
}

// Running returns the number of tasks that have not returned yet.
func (e *Executor) Running() int64 {
	return e.running.Load()
}

// Wait blocks until every spawned task has returned.
func (e *Executor) Wait() {
	e.wg.Wait()
}
