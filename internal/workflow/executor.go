package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sift/internal/logging"
	"sift/internal/services"
)

// Error is the structured failure surfaced when a run aborts. It names the
// failing node, the attempts spent on it, and carries the full execution
// history so callers cannot mistake a failed run for a low score.
type Error struct {
	NodeID   string
	Attempts int
	History  History
	Err      error
}

func (e *Error) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("workflow: node %q failed after %d attempt(s): %v", e.NodeID, e.Attempts, e.Err)
	}
	return fmt.Sprintf("workflow: node %q: %v", e.NodeID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is a completed run: the final state plus the full attempt history.
type Result[S any] struct {
	State   *S
	History History
}

// Executor walks a Definition node by node. It is stateless across runs and
// safe to share; each Run owns its state and history exclusively.
type Executor[S any] struct {
	def      *Definition[S]
	logger   *slog.Logger
	maxSteps int
	sleep    func(context.Context, time.Duration) error
}

// ExecOption customizes an Executor.
type ExecOption[S any] func(*Executor[S])

// WithLogger sets the logger used for traversal and retry events.
func WithLogger[S any](logger *slog.Logger) ExecOption[S] {
	return func(e *Executor[S]) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxSteps overrides the traversal step ceiling. The default is twice
// the node count, which any acyclic traversal stays well under.
func WithMaxSteps[S any](steps int) ExecOption[S] {
	return func(e *Executor[S]) {
		if steps > 0 {
			e.maxSteps = steps
		}
	}
}

// WithSleep overrides how retry backoff waits are performed (useful for tests).
func WithSleep[S any](sleep func(context.Context, time.Duration) error) ExecOption[S] {
	return func(e *Executor[S]) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// NewExecutor builds an executor for the definition.
func NewExecutor[S any](def *Definition[S], opts ...ExecOption[S]) *Executor[S] {
	exec := &Executor[S]{
		def:      def,
		logger:   logging.NewNop(),
		maxSteps: 2 * def.NodeCount(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(exec)
	}
	exec.logger = logging.NewComponentLogger(exec.logger, "workflow")
	return exec
}

// Run traverses the graph from its entry node until an exit node completes
// or an unrecoverable error occurs. The returned error, when non-nil, is
// always a *Error.
func (e *Executor[S]) Run(ctx context.Context, state *S) (*Result[S], error) {
	var history History
	current := e.def.Entry()

	for step := 0; ; step++ {
		if step >= e.maxSteps {
			return nil, &Error{
				NodeID:  current,
				History: history,
				Err:     services.Wrap(services.ErrDeadEnd, current, "traverse", fmt.Sprintf("step ceiling %d exceeded, workflow contains a cycle", e.maxSteps), nil),
			}
		}

		node := e.def.node(current)
		nodeCtx := services.WithNode(ctx, current)

		if err := e.runNode(nodeCtx, node, state, &history); err != nil {
			if node.Blocking {
				return nil, &Error{
					NodeID:   current,
					Attempts: history.Attempts(current),
					History:  history,
					Err:      err,
				}
			}
			logging.WithContext(nodeCtx, e.logger).Warn(
				"non-blocking node failed, continuing",
				logging.String(logging.FieldEventType, "node_degraded"),
				logging.Int(logging.FieldAttempt, history.Attempts(current)),
				logging.Error(err),
			)
		}

		if e.def.IsExit(current) {
			return &Result[S]{State: state, History: history}, nil
		}

		next, ok := e.nextNode(current, state)
		if !ok {
			return nil, &Error{
				NodeID:  current,
				History: history,
				Err:     services.Wrap(services.ErrDeadEnd, current, "route", "no outgoing edge predicate matched", nil),
			}
		}
		current = next
	}
}

// nextNode scans outgoing edges in declaration order and returns the target
// of the first edge whose predicate matches.
func (e *Executor[S]) nextNode(current string, state *S) (string, bool) {
	for _, edge := range e.def.edgesFrom(current) {
		if edge.When == nil || edge.When(state) {
			return edge.To, true
		}
	}
	return "", false
}

// runNode executes one node under its retry policy, appending a history
// record per attempt.
func (e *Executor[S]) runNode(ctx context.Context, node Node[S], state *S, history *History) error {
	logger := logging.WithContext(ctx, e.logger)
	attempts := node.Retry.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			*history = append(*history, Record{
				NodeID:    node.ID,
				Attempt:   attempt,
				StartedAt: time.Now().UTC(),
				EndedAt:   time.Now().UTC(),
				Status:    StatusSkipped,
				Error:     err.Error(),
			})
			return err
		}

		started := time.Now().UTC()
		err := e.attempt(ctx, node, state)
		ended := time.Now().UTC()

		status := StatusSuccess
		errText := ""
		if err != nil {
			status = StatusFailed
			if errors.Is(err, services.ErrTimeout) {
				status = StatusTimedOut
			}
			errText = err.Error()
		}
		*history = append(*history, Record{
			NodeID:    node.ID,
			Attempt:   attempt,
			StartedAt: started,
			EndedAt:   ended,
			Duration:  ended.Sub(started),
			Status:    status,
			Error:     errText,
		})

		if err == nil {
			logger.Debug("node completed",
				logging.String(logging.FieldEventType, "node_complete"),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("duration", ended.Sub(started)),
			)
			return nil
		}
		lastErr = err

		if !services.Retryable(err) || errors.Is(err, context.Canceled) {
			break
		}
		if attempt < attempts {
			delay := node.Retry.delay(attempt)
			logger.Warn("node attempt failed, retrying",
				logging.String(logging.FieldEventType, "node_retry"),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration("backoff", delay),
				logging.Error(err),
			)
			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return lastErr
			}
		}
	}
	return lastErr
}

// attempt runs the handler once, bounded by the node timeout when set. On
// timeout the executor stops waiting; the abandoned call keeps the timed-out
// context and its result is discarded.
func (e *Executor[S]) attempt(ctx context.Context, node Node[S], state *S) error {
	if node.Timeout <= 0 {
		return node.Handler(ctx, state)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, node.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- node.Handler(attemptCtx, state)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, node.ID, "execute", fmt.Sprintf("attempt exceeded %s", node.Timeout), err)
		}
		return err
	case <-attemptCtx.Done():
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrTimeout, node.ID, "execute", fmt.Sprintf("attempt exceeded %s", node.Timeout), attemptCtx.Err())
		}
		return ctx.Err()
	}
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
