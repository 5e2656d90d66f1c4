// Package trace records spans and point events for fracas requests.
//
// Tracers travel through the resolver, the search engine and the symbol
// cache inside a context.Context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeTier, "definition:enum")
//	defer span.End("")
//
// # Levels
//
//   - LevelOff: nothing is recorded
//   - LevelError: nothing but crash dumps of the ring buffer
//   - LevelPhase: requests and resolution tiers
//   - LevelDetail: adds project-wide text searches
//   - LevelDebug: adds per-file cache refreshes
//
// # Tracers
//
//   - Nop: zero-cost default
//   - StreamTracer: writes each event as it happens (text or NDJSON)
//   - RingTracer: keeps the last N events for a dump on failure
//   - MultiTracer: fans out to several tracers
package trace
