// Package dynamo provides the shared primitives of the race simulation.
//
// The package defines the value types exchanged between the simulation
// core and its consumers:
//
//   - [Vec3]: 3D point used for anchors, rail samples and render positions
//   - [Snapshot]: per-tick view of every body, consumed by observers
//   - [Event]: discrete lifecycle transitions (release, impact, stop)
//   - [Observer] and [Metric]: per-tick hooks
//   - [Result]: the outcome of a complete run
//
// # Example
//
//	sc, _ := sim.New(settings)
//	result, _ := sc.Run(ctx, dynamo.DefaultConfig())
//	for _, s := range result.Summaries {
//	    fmt.Println(s.Name, s.FirstImpact)
//	}
//
// # Thread Safety
//
// Values in this package are plain data. A [Snapshot] handed to an observer
// is owned by the observer and is never mutated afterwards.
package dynamo
