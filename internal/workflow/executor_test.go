package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"sift/internal/services"
)

func linearDef(t *testing.T, nodes ...Node[testState]) *Definition[testState] {
	t.Helper()
	builder := NewBuilder[testState]("test", "test graph")
	for _, node := range nodes {
		builder.AddNode(node)
	}
	for i := 0; i < len(nodes)-1; i++ {
		builder.AddEdge(nodes[i].ID, nodes[i+1].ID, nil)
	}
	builder.SetEntry(nodes[0].ID)
	builder.AddExit(nodes[len(nodes)-1].ID)
	def, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return def
}

func instantSleep(_ context.Context, _ time.Duration) error { return nil }

func TestRunWalksLinearGraphInOrder(t *testing.T) {
	def := linearDef(t,
		Node[testState]{ID: "a", Handler: noopHandler("a")},
		Node[testState]{ID: "b", Handler: noopHandler("b")},
		Node[testState]{ID: "c", Handler: noopHandler("c")},
	)
	exec := NewExecutor(def)

	result, err := exec.Run(context.Background(), &testState{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(result.State.visited) != len(want) {
		t.Fatalf("visited %v, want %v", result.State.visited, want)
	}
	for i, id := range want {
		if result.State.visited[i] != id {
			t.Fatalf("visited %v, want %v", result.State.visited, want)
		}
		if result.History[i].NodeID != id || result.History[i].Status != StatusSuccess {
			t.Fatalf("history[%d] = %+v, want success for %q", i, result.History[i], id)
		}
	}
}

func TestRunTakesFirstMatchingEdge(t *testing.T) {
	def, err := NewBuilder[testState]("test", "branch").
		AddNode(Node[testState]{ID: "decide", Handler: noopHandler("decide")}).
		AddNode(Node[testState]{ID: "yes", Handler: noopHandler("yes")}).
		AddNode(Node[testState]{ID: "no", Handler: noopHandler("no")}).
		AddEdge("decide", "yes", func(s *testState) bool { return s.flag }).
		AddEdge("decide", "no", nil).
		AddEdge("yes", "no", nil).
		SetEntry("decide").
		AddExit("no").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	exec := NewExecutor(def)

	result, err := exec.Run(context.Background(), &testState{flag: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.History.Visited("yes") {
		t.Fatalf("predicate edge not taken, history: %+v", result.History)
	}

	result, err = exec.Run(context.Background(), &testState{flag: false})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.History.Visited("yes") {
		t.Fatalf("fallback edge not taken, history: %+v", result.History)
	}
}

func TestRunDeadEndWhenNoPredicateMatches(t *testing.T) {
	def, err := NewBuilder[testState]("test", "dead end").
		AddNode(Node[testState]{ID: "a", Handler: noopHandler("a")}).
		AddNode(Node[testState]{ID: "b", Handler: noopHandler("b")}).
		AddEdge("a", "b", func(s *testState) bool { return false }).
		SetEntry("a").
		AddExit("b").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	exec := NewExecutor(def)

	_, err = exec.Run(context.Background(), &testState{})
	if err == nil {
		t.Fatal("expected dead-end error, got nil")
	}
	if !errors.Is(err, services.ErrDeadEnd) {
		t.Fatalf("expected ErrDeadEnd, got %v", err)
	}
	var wfErr *Error
	if !errors.As(err, &wfErr) || wfErr.NodeID != "a" {
		t.Fatalf("error should name node a: %v", err)
	}
}

func TestRunStepCeilingBreaksCycles(t *testing.T) {
	def, err := NewBuilder[testState]("test", "cycle").
		AddNode(Node[testState]{ID: "a", Handler: noopHandler("a")}).
		AddNode(Node[testState]{ID: "b", Handler: noopHandler("b")}).
		AddNode(Node[testState]{ID: "exit", Handler: noopHandler("exit")}).
		AddEdge("a", "b", nil).
		AddEdge("b", "a", nil).
		AddEdge("b", "exit", nil).
		SetEntry("a").
		AddExit("exit").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	exec := NewExecutor(def)

	_, err = exec.Run(context.Background(), &testState{})
	if !errors.Is(err, services.ErrDeadEnd) {
		t.Fatalf("expected step ceiling to surface ErrDeadEnd, got %v", err)
	}
}

func TestRunRetriesUntilSuccess(t *testing.T) {
	calls := 0
	flaky := Node[testState]{
		ID: "flaky",
		Handler: func(_ context.Context, _ *testState) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		},
		Retry:    RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond},
		Blocking: true,
	}
	def := linearDef(t, flaky, Node[testState]{ID: "done", Handler: noopHandler("done")})
	exec := NewExecutor(def, WithSleep[testState](instantSleep))

	result, err := exec.Run(context.Background(), &testState{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Fatalf("handler ran %d times, want 3", calls)
	}
	// Two failed records plus the succeeding one.
	if got := result.History.Attempts("flaky"); got != 3 {
		t.Fatalf("history records %d attempts, want 3", got)
	}
	if result.History[0].Status != StatusFailed || result.History[2].Status != StatusSuccess {
		t.Fatalf("unexpected attempt statuses: %+v", result.History)
	}
}

func TestRunBlockingNodeExhaustsRetries(t *testing.T) {
	boom := errors.New("provider unavailable")
	failing := Node[testState]{
		ID:       "analyze",
		Handler:  func(_ context.Context, _ *testState) error { return boom },
		Retry:    RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		Blocking: true,
	}
	def := linearDef(t, failing, Node[testState]{ID: "done", Handler: noopHandler("done")})
	exec := NewExecutor(def, WithSleep[testState](instantSleep))

	_, err := exec.Run(context.Background(), &testState{})
	var wfErr *Error
	if !errors.As(err, &wfErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if wfErr.NodeID != "analyze" || wfErr.Attempts != 2 {
		t.Fatalf("error = %+v, want node analyze with 2 attempts", wfErr)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause not preserved: %v", err)
	}
	if len(wfErr.History) != 2 {
		t.Fatalf("history should carry both attempts, got %+v", wfErr.History)
	}
}

func TestRunNonBlockingFailureContinues(t *testing.T) {
	optional := Node[testState]{
		ID:      "pack",
		Handler: func(_ context.Context, _ *testState) error { return errors.New("packing failed") },
	}
	def := linearDef(t, optional, Node[testState]{ID: "done", Handler: noopHandler("done")})
	exec := NewExecutor(def)

	result, err := exec.Run(context.Background(), &testState{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.History[0].Status != StatusFailed {
		t.Fatalf("failed attempt should still be recorded: %+v", result.History)
	}
	if !result.History.Visited("done") {
		t.Fatal("run should continue past a non-blocking failure")
	}
}

func TestRunStopsRetryingNonRetryableErrors(t *testing.T) {
	calls := 0
	invalid := Node[testState]{
		ID: "validate",
		Handler: func(_ context.Context, _ *testState) error {
			calls++
			return services.Wrap(services.ErrValidation, "validate", "check", "missing name", nil)
		},
		Retry:    RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		Blocking: true,
	}
	def := linearDef(t, invalid, Node[testState]{ID: "done", Handler: noopHandler("done")})
	exec := NewExecutor(def, WithSleep[testState](instantSleep))

	_, err := exec.Run(context.Background(), &testState{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error retried %d times", calls)
	}
}

func TestRunTimeoutRecordedAndCountedAsAttempt(t *testing.T) {
	slow := Node[testState]{
		ID: "slow",
		Handler: func(ctx context.Context, _ *testState) error {
			<-ctx.Done()
			return ctx.Err()
		},
		Timeout:  20 * time.Millisecond,
		Retry:    RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		Blocking: true,
	}
	def := linearDef(t, slow, Node[testState]{ID: "done", Handler: noopHandler("done")})
	exec := NewExecutor(def, WithSleep[testState](instantSleep))

	_, err := exec.Run(context.Background(), &testState{})
	var wfErr *Error
	if !errors.As(err, &wfErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	if wfErr.Attempts != 2 {
		t.Fatalf("timeouts must count as attempts, got %d", wfErr.Attempts)
	}
	for _, record := range wfErr.History {
		if record.Status != StatusTimedOut {
			t.Fatalf("expected timed_out records, got %+v", wfErr.History)
		}
	}
}

func TestRunAbandonsSlowHandlerWithoutWaiting(t *testing.T) {
	release := make(chan struct{})
	stuck := Node[testState]{
		ID: "stuck",
		Handler: func(_ context.Context, _ *testState) error {
			<-release
			return nil
		},
		Timeout:  10 * time.Millisecond,
		Blocking: true,
	}
	def := linearDef(t, stuck, Node[testState]{ID: "done", Handler: noopHandler("done")})
	exec := NewExecutor(def)

	start := time.Now()
	_, err := exec.Run(context.Background(), &testState{})
	elapsed := time.Since(start)
	close(release)

	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("executor waited on an abandoned handler for %s", elapsed)
	}
}

func TestRunCancelledContextRecordsSkip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	def := linearDef(t,
		Node[testState]{ID: "a", Handler: noopHandler("a"), Blocking: true},
		Node[testState]{ID: "b", Handler: noopHandler("b")},
	)
	exec := NewExecutor(def)

	_, err := exec.Run(ctx, &testState{})
	var wfErr *Error
	if !errors.As(err, &wfErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(wfErr.History) != 1 || wfErr.History[0].Status != StatusSkipped {
		t.Fatalf("expected one skipped record, got %+v", wfErr.History)
	}
}

func TestRetryPolicyDelayDoublesAndCaps(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 500 * time.Millisecond}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 500 * time.Millisecond},
		{5, 500 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := policy.delay(tc.attempt); got != tc.want {
			t.Fatalf("delay(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
	if (RetryPolicy{}).attempts() != 1 {
		t.Fatal("zero policy must mean a single attempt")
	}
}
