package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SyedDaiam9101/window-predictor/internal/metrics"
)

var tracer = otel.Tracer("github.com/SyedDaiam9101/window-predictor/internal/inference")

// envMu serializes initialization of the process-wide ONNX environment.
var envMu sync.Mutex

// Options tunes how a Session builds and runs its model.
type Options struct {
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// runtime's default lookup.
	LibraryPath string
	// InputName is the model's input tensor name. Empty uses the first
	// declared input.
	InputName string
	// OutputName is the model's output tensor name. Empty uses the first
	// declared output.
	OutputName string
	// Timeout bounds how long Predict waits for a forward pass. Zero waits
	// indefinitely.
	Timeout time.Duration
}

// Session wraps a lazily built ONNX runtime session bound to one model file.
// It implements the Engine interface.
type Session struct {
	modelPath string
	opts      Options

	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string

	running sync.WaitGroup
}

// New returns a Session for the model at modelPath. Nothing is loaded until
// the first EnsureReady or Predict call.
func New(modelPath string, opts Options) *Session {
	return &Session{
		modelPath: modelPath,
		opts:      opts,
	}
}

// EnsureReady builds the ONNX session on first use. A failed attempt leaves
// nothing behind, so the next call starts over.
func (s *Session) EnsureReady(ctx context.Context) error {
	_, err := s.ready(ctx)
	return err
}

func (s *Session) ready(ctx context.Context) (*ort.DynamicAdvancedSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return s.session, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &ModelLoadError{Path: s.modelPath, Err: err}
	}

	start := time.Now()
	session, inputs, outputs, err := s.load()
	metrics.RecordModelLoad(err == nil)
	if err != nil {
		log.Error().Err(err).Str("model", s.modelPath).Msg("model load failed")
		return nil, &ModelLoadError{Path: s.modelPath, Err: err}
	}

	s.session = session
	s.inputs = inputs
	s.outputs = outputs
	metrics.SetModelReady(true)
	log.Info().
		Str("model", s.modelPath).
		Strs("inputs", inputs).
		Strs("outputs", outputs).
		Dur("took", time.Since(start)).
		Msg("model session ready")

	return s.session, nil
}

func (s *Session) load() (*ort.DynamicAdvancedSession, []string, []string, error) {
	if _, err := os.Stat(s.modelPath); err != nil {
		return nil, nil, nil, fmt.Errorf("model artifact: %w", err)
	}

	if err := initEnvironment(s.opts.LibraryPath); err != nil {
		return nil, nil, nil, err
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(s.modelPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read model metadata: %w", err)
	}
	inputs := tensorNames(inputInfo)
	outputs := tensorNames(outputInfo)

	inputName := s.opts.InputName
	if inputName == "" {
		if len(inputs) == 0 {
			return nil, nil, nil, errors.New("model declares no inputs")
		}
		inputName = inputs[0]
	}
	outputName := s.opts.OutputName
	if outputName == "" {
		if len(outputs) == 0 {
			return nil, nil, nil, errors.New("model declares no outputs")
		}
		outputName = outputs[0]
	}

	session, err := ort.NewDynamicAdvancedSession(
		s.modelPath,
		[]string{inputName},
		[]string{outputName},
		nil, // Use default session options
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return session, inputs, outputs, nil
}

func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func tensorNames(info []ort.InputOutputInfo) []string {
	names := make([]string, 0, len(info))
	for _, i := range info {
		names = append(names, i.Name)
	}
	return names
}

// Predict runs a single [1, InputSize] forward pass.
func (s *Session) Predict(ctx context.Context, input []float32) (float32, error) {
	ctx, span := tracer.Start(ctx, "inference.Predict")
	defer span.End()

	start := time.Now()
	value, err := s.predict(ctx, input)
	metrics.RecordInference(outcome(err), time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Float64("prediction", float64(value)))
	return value, nil
}

func (s *Session) predict(ctx context.Context, input []float32) (float32, error) {
	if len(input) != InputSize {
		return 0, &InvalidInputError{Got: len(input)}
	}

	session, err := s.ready(ctx)
	if err != nil {
		return 0, err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	type result struct {
		value float32
		err   error
	}
	done := make(chan result, 1)

	// The runtime call cannot be aborted; if the caller gives up, it still
	// runs to completion in the background.
	data := make([]float32, InputSize)
	copy(data, input)
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		v, err := run(session, data)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return 0, &InferenceError{Err: ctx.Err()}
	}
}

func run(session *ort.DynamicAdvancedSession, data []float32) (float32, error) {
	inputTensor, err := ort.NewTensor(ort.NewShape(1, InputSize), data)
	if err != nil {
		return 0, &InferenceError{Err: fmt.Errorf("failed to create input tensor: %w", err)}
	}
	defer inputTensor.Destroy()

	// A nil output lets onnxruntime allocate a tensor of the declared shape.
	outputs := []ort.ArbitraryTensor{nil}
	if err := session.Run([]ort.ArbitraryTensor{inputTensor}, outputs); err != nil {
		return 0, &InferenceError{Err: err}
	}
	if outputs[0] == nil {
		return 0, &InferenceError{Err: errNoOutput}
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return 0, &InferenceError{Err: errNotFloatOutput}
	}
	values := outputTensor.GetData()
	if len(values) == 0 {
		return 0, &InferenceError{Err: errNoOutput}
	}

	return Round(values[0]), nil
}

// ModelInfo loads the model if needed and reports its tensor names.
func (s *Session) ModelInfo(ctx context.Context) (ModelInfo, error) {
	if _, err := s.ready(ctx); err != nil {
		return ModelInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return ModelInfo{
		Path:    s.modelPath,
		Inputs:  append([]string(nil), s.inputs...),
		Outputs: append([]string(nil), s.outputs...),
	}, nil
}

// Close waits for outstanding forward passes, then releases the session and
// the ONNX environment.
func (s *Session) Close() error {
	s.running.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		metrics.SetModelReady(false)
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	envMu.Lock()
	defer envMu.Unlock()
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsInvalidInput(err):
		return "invalid_input"
	case IsModelLoad(err):
		return "model_load_error"
	default:
		return "inference_error"
	}
}

// Ensure Session implements Engine at compile time
var _ Engine = (*Session)(nil)
