package inference

import (
	"context"
	"sync"
)

// Mock is a deterministic Engine for tests and --mock mode.
// It never touches the ONNX shared library.
type Mock struct {
	mu sync.Mutex

	// Value is returned, rounded, by every successful Predict.
	Value float32
	// Err, when set, is returned by Predict instead of a value.
	Err error
	// LoadErr, when set, is returned by EnsureReady and Predict to simulate
	// a model that cannot be loaded.
	LoadErr error
	// Gate, when non-nil, blocks Predict until it receives or is closed.
	Gate chan struct{}

	calls  int
	inputs [][]float32
}

// NewMock creates a Mock that predicts value.
func NewMock(value float32) *Mock {
	return &Mock{Value: value}
}

// EnsureReady reports the configured load error, if any.
func (m *Mock) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return &ModelLoadError{Path: "mock", Err: m.LoadErr}
	}
	return nil
}

// Predict records the input and returns the configured value or error.
func (m *Mock) Predict(ctx context.Context, input []float32) (float32, error) {
	m.mu.Lock()
	m.calls++
	m.inputs = append(m.inputs, append([]float32(nil), input...))
	gate := m.Gate
	m.mu.Unlock()

	if len(input) != InputSize {
		return 0, &InvalidInputError{Got: len(input)}
	}
	if err := m.EnsureReady(ctx); err != nil {
		return 0, err
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, &InferenceError{Err: ctx.Err()}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return Round(m.Value), nil
}

// ModelInfo describes the mock model.
func (m *Mock) ModelInfo(ctx context.Context) (ModelInfo, error) {
	if err := m.EnsureReady(ctx); err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{Path: "mock", Inputs: []string{"input"}, Outputs: []string{"output"}}, nil
}

// Close is a no-op for the mock implementation
func (m *Mock) Close() error {
	return nil
}

// SetValue changes the predicted value.
func (m *Mock) SetValue(v float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Value = v
}

// SetError makes subsequent Predict calls fail with err. A nil err clears it.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// CallCount returns how many times Predict was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Inputs returns a copy of every input Predict received, in call order.
func (m *Mock) Inputs() [][]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]float32, len(m.inputs))
	for i, in := range m.inputs {
		out[i] = append([]float32(nil), in...)
	}
	return out
}

// Ensure Mock implements Engine at compile time
var _ Engine = (*Mock)(nil)
