// Package trace records what a lint run is doing: run and pass boundaries,
// one span per analyzed unit and, at debug level, per rule.
//
// Enable it from the command line:
//
//	lintel check --trace=- --trace-level=detail src/
//
// Levels filter by scope:
//
//   - LevelPhase: run and pass boundaries
//   - LevelDetail: plus one span per unit
//   - LevelDebug: plus rule-level events
//
// The tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeUnit, path)
//	defer span.End("")
package trace
