package geometry

import (
	"encoding/json"
	"fmt"
)

// GeometryError reports a broken precondition on an interval operation.
type GeometryError struct {
	Op  string
	Msg string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s: %s", e.Op, e.Msg)
}

// Interval is a half-open span of pixels on a single axis.
//
// Length is never negative; an interval with Length 0 is empty.
type Interval struct {
	Origin int `json:"origin"`
	Length int `json:"length"`
}

// Span returns the interval covering [start, end). A reversed range yields an
// empty interval at start.
func Span(start, end int) Interval {
	if end < start {
		return Interval{Origin: start}
	}
	return Interval{Origin: start, Length: end - start}
}

// End returns the first coordinate past the interval.
func (i Interval) End() int {
	return i.Origin + i.Length
}

// IsEmpty reports whether the interval covers no pixel.
func (i Interval) IsEmpty() bool {
	return i.Length <= 0
}

// Contains reports whether p lies inside the interval.
func (i Interval) Contains(p int) bool {
	return p >= i.Origin && p < i.End()
}

// Intersect returns the overlap of two intervals. Disjoint intervals give an
// empty interval positioned at the larger origin.
func (i Interval) Intersect(o Interval) Interval {
	start := max(i.Origin, o.Origin)
	end := min(i.End(), o.End())
	return Span(start, end)
}

// Middle returns the midpoint coordinate, rounded toward the origin.
func (i Interval) Middle() int {
	return i.Origin + i.Length/2
}

// FirstHalf returns the lower half. For odd lengths it is the shorter one.
func (i Interval) FirstHalf() Interval {
	return Interval{Origin: i.Origin, Length: i.Length / 2}
}

// SecondHalf returns the remainder after FirstHalf.
func (i Interval) SecondHalf() Interval {
	first := i.FirstHalf()
	return Interval{Origin: first.End(), Length: i.Length - first.Length}
}

// OtherHalf returns the sibling of half, which must be exactly one of
// FirstHalf or SecondHalf.
func (i Interval) OtherHalf(half Interval) (Interval, error) {
	first, second := i.FirstHalf(), i.SecondHalf()
	switch half {
	case first:
		return second, nil
	case second:
		return first, nil
	}
	return Interval{}, &GeometryError{
		Op:  "other half",
		Msg: fmt.Sprintf("%v is not a half of %v", half, i),
	}
}

// Grow extends the interval by n pixels on both sides, clamped to bound.
func (i Interval) Grow(n int, bound Interval) Interval {
	return Span(i.Origin-n, i.End()+n).Intersect(bound)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.Origin, i.End())
}

// UnmarshalJSON requires both keys and a non-negative length.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var raw struct {
		Origin *int `json:"origin"`
		Length *int `json:"length"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Origin == nil || raw.Length == nil {
		return fmt.Errorf("interval requires origin and length")
	}
	if *raw.Length < 0 {
		return fmt.Errorf("interval length %d is negative", *raw.Length)
	}
	i.Origin, i.Length = *raw.Origin, *raw.Length
	return nil
}
