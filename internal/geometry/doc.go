// Package geometry provides the integer interval and box primitives used to
// describe regions of a leaf photograph.
//
// An Interval is a half-open span [Origin, Origin+Length) on one pixel axis.
// A Box pairs a horizontal and a vertical Interval into an axis-aligned
// rectangle. Both serialize to JSON as plain objects so they can be stored in
// feature records:
//
//	{"origin": 120, "length": 340}
//	{"horizontal": {"origin": 120, "length": 340}, "vertical": {"origin": 80, "length": 900}}
//
// Violations of the halving contract (asking for the other half of an interval
// that is not a half) are reported as *GeometryError. They indicate a bug in the
// caller, not bad input.
package geometry
