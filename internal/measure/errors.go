package measure

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/leafmetrics/internal/geometry"
)

// ErrDetection matches any *DetectionFailure via errors.Is.
var ErrDetection = errors.New("detection failure")

// ErrInvalidInput matches any *InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// DetectionFailure reports that a stage could not find what it looks for in
// the photo: no paper edges, no leaf pixels, no tip segments.
type DetectionFailure struct {
	Stage  string
	Reason string
}

func (e *DetectionFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

// Is lets errors.Is(err, ErrDetection) match.
func (e *DetectionFailure) Is(target error) bool { return target == ErrDetection }

// InvalidInputError reports malformed arguments or records.
type InvalidInputError struct {
	What string
	Err  error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("invalid %s", e.What)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func detectionFailure(stage, format string, args ...interface{}) error {
	return &DetectionFailure{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

var errEmptyPhoto = errors.New("photo is empty")

func errBoxOutside(b geometry.Box, bounds image.Rectangle) error {
	return fmt.Errorf("region %v is empty or outside %v", b, bounds)
}

var errEmptyInterval = errors.New("interval is empty")
