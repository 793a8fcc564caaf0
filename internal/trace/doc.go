// Package trace provides a tracing subsystem for logcompare runs.
//
// The trace package records what the comparator did: which run started,
// which line pairs were compared and which field decided the outcome. It is
// meant for diagnosing a divergence report, not for the report itself.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	logcompare --trace=- --trace-level=line ../logs
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelRun: Run boundaries and divergences
//   - LevelLine: One event per compared line pair
//   - LevelField: Everything including per-field values
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeRun, "compare", 0)
//	defer span.End("")
package trace
