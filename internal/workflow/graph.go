package workflow

import (
	"context"
	"time"
)

// Kind tags a node's role in the graph. Informational only; the executor
// treats every kind identically.
type Kind string

const (
	KindSource    Kind = "source"
	KindTransform Kind = "transform"
	KindDecision  Kind = "decision"
	KindSink      Kind = "sink"
)

// Handler is one workflow step. Handlers mutate the state they are given
// and must honor context cancellation; after a timeout the executor stops
// waiting, so a handler must re-check ctx before mutating state on a path
// that can outlive its attempt.
type Handler[S any] func(ctx context.Context, state *S) error

// Predicate evaluates state to decide whether an edge should be taken.
// Predicates must be pure: deterministic and free of side effects.
type Predicate[S any] func(state *S) bool

// RetryPolicy bounds repeated attempts of a failing node. The delay doubles
// per attempt from BaseDelay up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = base * 8
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Node is one step of a workflow definition.
type Node[S any] struct {
	ID      string
	Kind    Kind
	Handler Handler[S]
	Retry   RetryPolicy
	// Timeout bounds a single attempt; zero means no limit.
	Timeout time.Duration
	// Blocking controls failure propagation: a blocking node that exhausts
	// its retries aborts the run, a non-blocking one is logged and treated
	// as a no-op.
	Blocking bool
}

// Edge is a directed link between two nodes. A nil When means the edge is
// always taken when reached in declaration order.
type Edge[S any] struct {
	From string
	To   string
	When Predicate[S]
}

// Definition is an immutable, validated workflow graph. Build one through a
// Builder at process startup and reuse it for every run.
type Definition[S any] struct {
	id       string
	name     string
	nodes    map[string]Node[S]
	outgoing map[string][]Edge[S]
	entry    string
	exits    map[string]struct{}
}

// ID returns the graph identifier.
func (d *Definition[S]) ID() string { return d.id }

// Name returns the human-readable graph name.
func (d *Definition[S]) Name() string { return d.name }

// Entry returns the entry node ID.
func (d *Definition[S]) Entry() string { return d.entry }

// NodeCount returns the number of nodes in the graph.
func (d *Definition[S]) NodeCount() int { return len(d.nodes) }

// IsExit reports whether the node ID is an exit node.
func (d *Definition[S]) IsExit(id string) bool {
	_, ok := d.exits[id]
	return ok
}

// node returns the node by ID; the builder guarantees existence for any ID
// reachable from the entry.
func (d *Definition[S]) node(id string) Node[S] {
	return d.nodes[id]
}

func (d *Definition[S]) edgesFrom(id string) []Edge[S] {
	return d.outgoing[id]
}
