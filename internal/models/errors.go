package models

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch matches any *ShapeMismatchError through errors.Is.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNumericGuardTriggered marks a divisor that was clamped to the
	// epsilon floor. It is reported, never returned from a stage.
	ErrNumericGuardTriggered = errors.New("numeric guard triggered")
)

// ShapeMismatchError reports two grids that were wired together with
// different spatial sizes.
type ShapeMismatchError struct {
	Op   string
	Want Shape
	Got  Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %s, got %s", e.Op, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// CheckShapes returns a *ShapeMismatchError when want and got differ.
func CheckShapes(op string, want, got Shape) error {
	if want != got {
		return &ShapeMismatchError{Op: op, Want: want, Got: got}
	}
	return nil
}

// DecodeError is returned when a source image cannot be read or decoded.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
