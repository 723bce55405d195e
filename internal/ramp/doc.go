// Package ramp builds the three competing tracks of the race.
//
// A [Config] fixes the anchor pair (A high, B low) and the lateral
// separation between tracks. Each [Kind] maps to a [Curve] variant that is
// evaluated at a normalized parameter t in [0, 1]. [Build] samples a curve
// into a [Geometry]: rail polylines, an arc-length table and a slope table,
// which are immutable once built and safe to share between goroutines.
package ramp
