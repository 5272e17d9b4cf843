package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/SyedDaiam9101/window-predictor/internal/inference"
	"github.com/SyedDaiam9101/window-predictor/internal/window"
)

// Handler implements the WindowServiceServer interface on top of a window
// controller and the engine that backs it.
type Handler struct {
	ctrl   *window.Controller
	engine inference.Engine
}

// New creates a new Handler for ctrl. engine serves ModelInfo and should be
// the same engine the controller predicts with.
func New(ctrl *window.Controller, engine inference.Engine) *Handler {
	return &Handler{
		ctrl:   ctrl,
		engine: engine,
	}
}

func (h *Handler) ready() error {
	if h.ctrl == nil {
		return failedPreconditionError("window controller not initialized")
	}
	return nil
}

func (h *Handler) snapshot() *WindowResponse {
	return &WindowResponse{Window: h.ctrl.Snapshot()}
}

// GetWindow returns the current window.
func (h *Handler) GetWindow(ctx context.Context, req *Empty) (*WindowResponse, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	return h.snapshot(), nil
}

// SetSlot parses and writes one observation.
func (h *Handler) SetSlot(ctx context.Context, req *SetSlotRequest) (*WindowResponse, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalidArgumentError("request cannot be nil")
	}

	value, err := window.ParseValue(req.Value)
	if err != nil {
		return nil, grpcError(err)
	}
	if err := h.ctrl.SetSlot(req.Index, value); err != nil {
		return nil, grpcError(err)
	}
	return h.snapshot(), nil
}

// ClearSlot empties one observation.
func (h *Handler) ClearSlot(ctx context.Context, req *ClearSlotRequest) (*WindowResponse, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalidArgumentError("request cannot be nil")
	}

	if err := h.ctrl.ClearSlot(req.Index); err != nil {
		return nil, grpcError(err)
	}
	return h.snapshot(), nil
}

// StageActual parses and stages the observed next value.
func (h *Handler) StageActual(ctx context.Context, req *StageActualRequest) (*WindowResponse, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalidArgumentError("request cannot be nil")
	}

	value, err := window.ParseValue(req.Value)
	if err != nil {
		return nil, grpcError(err)
	}
	if err := h.ctrl.StageActual(value); err != nil {
		return nil, grpcError(err)
	}
	return h.snapshot(), nil
}

// Predict asks the model for the next value of the current window.
func (h *Handler) Predict(ctx context.Context, req *Empty) (*PredictResponse, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()

	prediction, err := h.ctrl.RequestPrediction(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("predict rejected")
		return nil, grpcError(err)
	}

	logger.Info().
		Float64("prediction", prediction).
		Float64("total_ms", float64(time.Since(start).Microseconds())/1000.0).
		Msg("predict")

	return &PredictResponse{
		Prediction: prediction,
		Window:     h.ctrl.Snapshot(),
	}, nil
}

// Shift confirms the staged actual value and advances the window.
func (h *Handler) Shift(ctx context.Context, req *Empty) (*WindowResponse, error) {
	if err := h.ready(); err != nil {
		return nil, err
	}

	if err := h.ctrl.Shift(); err != nil {
		return nil, grpcError(err)
	}
	return h.snapshot(), nil
}

// ModelInfo reports the model's tensor names, loading the model if needed.
func (h *Handler) ModelInfo(ctx context.Context, req *Empty) (*ModelInfoResponse, error) {
	if h.engine == nil {
		return nil, failedPreconditionError("inference engine not initialized")
	}

	info, err := h.engine.ModelInfo(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ModelInfoResponse{
		Path:    info.Path,
		Inputs:  info.Inputs,
		Outputs: info.Outputs,
	}, nil
}

// Ensure Handler implements WindowServiceServer at compile time
var _ WindowServiceServer = (*Handler)(nil)
