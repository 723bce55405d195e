// Package physics advances the racing bodies along their tracks.
//
// A [Body] starts pinned to the release platform. After [Body.Release] every
// [Body.Update] call reads the slope of the shared track geometry, applies
// gravity and velocity-opposing friction, converts the velocity into a new
// curve parameter through the track length, and lets a [Policy] decide what
// happens at either end of the track:
//
//   - first far-wall impact: reverse with restitution, pull back to t=0.98
//   - later impacts: reverse with restitution^n while rebounds remain
//   - otherwise: stop at the wall
//   - start wall: always bounce forward
//
// Gravity always pulls toward the far end; the slope sign never reverses it.
//
// # Example
//
//	b, _ := physics.NewBody("Cycloid", geom, platform, physics.DefaultParams(ramp.Cycloid))
//	b.Release()
//	for !b.Finished() {
//	    b.Update(dt, now)
//	    now += dt
//	}
package physics
