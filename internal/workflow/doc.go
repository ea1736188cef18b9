// Package workflow implements the generic graph execution engine driving
// multi-stage pipelines.
//
// A Definition is an immutable description of nodes and predicate edges,
// validated at build time by the Builder so structural mistakes surface at
// pipeline-assembly time instead of during a live run. The Executor walks a
// definition strictly sequentially: it runs the current node under its retry
// and timeout policy, appends one history record per attempt, then follows
// the first outgoing edge whose predicate matches the state. Non-blocking
// nodes degrade gracefully; blocking nodes abort the run with a structured
// error naming the node and attempt count. A step ceiling guards against
// predicate logic that creates an unintended cycle.
//
// The engine is generic over the state type. State is owned exclusively by
// one in-flight run and needs no locking; concurrency, where it exists,
// lives inside individual node handlers.
package workflow
