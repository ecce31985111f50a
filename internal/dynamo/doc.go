// Package dynamo provides the core primitives shared by the ocean model.
//
// The package defines the value types and contracts every stage of a run
// passes between each other:
//
//   - [Field]: one scalar per mesh cell, row-major
//   - [State]: surface elevation plus staggered velocities at a point in time
//   - [Metric]: scalar diagnostic observed after every committed step
//   - [Observer]: callback notified after every committed step
//   - [ParallelFor]: row partitioning used by the per-step kernels
//
// It also owns the error taxonomy surfaced to callers: [MalformedGridError],
// [EmptyDomainError], [InvalidConfigurationError] and
// [NumericalInstabilityError]. Each wraps a sentinel so callers can match
// with [errors.Is].
//
// # Example
//
//	s := dynamo.NewState(m.Cells())
//	if !s.IsValid() {
//	    return dynamo.Invalidf("initial", "state has non-finite values")
//	}
//
//	var instab *dynamo.NumericalInstabilityError
//	if errors.As(err, &instab) {
//	    fmt.Println("last stable step:", instab.LastStableStep)
//	}
//
// # Thread Safety
//
// State values are NOT thread-safe. The engine double-buffers them so that a
// worker only ever reads the committed state and writes its own rows of the
// next one.
package dynamo
