package inference

import (
	"errors"
	"fmt"
)

// ModelLoadError reports that the model artifact could not be turned into a
// session: missing file, malformed graph, or a runtime that failed to start.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InvalidInputError reports an input vector of the wrong arity.
type InvalidInputError struct {
	Got int
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("input must be exactly %d numbers, got %d", InputSize, e.Got)
}

// InferenceError reports a forward pass that faulted or produced no usable output.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

var (
	errNoOutput       = errors.New("no output tensor found")
	errNotFloatOutput = errors.New("output tensor is not float32")
)

// IsModelLoad reports whether err is, or wraps, a *ModelLoadError.
func IsModelLoad(err error) bool {
	var target *ModelLoadError
	return errors.As(err, &target)
}

// IsInvalidInput reports whether err is, or wraps, an *InvalidInputError.
func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

// IsInference reports whether err is, or wraps, an *InferenceError.
func IsInference(err error) bool {
	var target *InferenceError
	return errors.As(err, &target)
}
