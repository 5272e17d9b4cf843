package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/SyedDaiam9101/window-predictor/internal/inference"
	"github.com/SyedDaiam9101/window-predictor/internal/metrics"
)

// Engine serves repeated windows from Redis and forwards misses to the
// wrapped engine. Redis failures degrade to uncached inference.
type Engine struct {
	next  inference.Engine
	cache *Cache
	ttl   time.Duration
}

// NewEngine wraps next with cache. A zero ttl keeps entries until evicted.
func NewEngine(next inference.Engine, cache *Cache, ttl time.Duration) *Engine {
	return &Engine{next: next, cache: cache, ttl: ttl}
}

// EnsureReady delegates to the wrapped engine.
func (e *Engine) EnsureReady(ctx context.Context) error {
	return e.next.EnsureReady(ctx)
}

// Predict returns a cached prediction for input when one exists.
func (e *Engine) Predict(ctx context.Context, input []float32) (float32, error) {
	if len(input) != inference.InputSize {
		return e.next.Predict(ctx, input)
	}

	value, ok, err := e.cache.GetPrediction(ctx, input)
	switch {
	case err != nil:
		metrics.RecordCacheLookup("error")
		log.Warn().Err(err).Msg("prediction cache lookup failed")
	case ok:
		metrics.RecordCacheLookup("hit")
		return value, nil
	default:
		metrics.RecordCacheLookup("miss")
	}

	value, err = e.next.Predict(ctx, input)
	if err != nil {
		return 0, err
	}

	if err := e.cache.SetPrediction(ctx, input, value, e.ttl); err != nil {
		log.Warn().Err(err).Msg("prediction cache store failed")
	}
	return value, nil
}

// ModelInfo delegates to the wrapped engine.
func (e *Engine) ModelInfo(ctx context.Context) (inference.ModelInfo, error) {
	return e.next.ModelInfo(ctx)
}

// Close closes the wrapped engine. The Redis client is closed by its owner.
func (e *Engine) Close() error {
	return e.next.Close()
}

var _ inference.Engine = (*Engine)(nil)
