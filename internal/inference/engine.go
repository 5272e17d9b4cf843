package inference

import (
	"context"
	"math"
)

// InputSize is the number of observations the model consumes per forward pass.
const InputSize = 15

// Engine defines the single-shot prediction contract.
// This abstraction allows for easy mocking in tests and swapping implementations.
type Engine interface {
	// EnsureReady builds the underlying session if it does not exist yet.
	// It is idempotent and retries from scratch after a failed attempt.
	EnsureReady(ctx context.Context) error

	// Predict runs one forward pass on exactly InputSize values and returns
	// the first scalar of the first output, rounded to two decimals.
	Predict(ctx context.Context, input []float32) (float32, error)

	// ModelInfo describes the loaded model's tensor names.
	ModelInfo(ctx context.Context) (ModelInfo, error)

	// Close releases any resources held by the engine.
	Close() error
}

// ModelInfo lists the named inputs and outputs of a model.
type ModelInfo struct {
	Path    string   `json:"path"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Round rounds v to two decimal places.
func Round(v float32) float32 {
	return float32(math.Round(float64(v)*100) / 100)
}
