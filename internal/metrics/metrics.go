package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GRPCServerHandlingSeconds is a histogram for gRPC server request latencies
	GRPCServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of gRPC that had been application-level handled by the server.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "code"},
	)

	// InferenceLatencySeconds is a histogram for inference-only latency,
	// including the one-time session construction on first use.
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of inference latency (seconds) excluding gRPC overhead.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
		},
	)

	// InferenceRequestsTotal counts forward passes by outcome.
	InferenceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_requests_total",
			Help: "Total number of inference calls by outcome.",
		},
		[]string{"outcome"},
	)

	// ModelLoadsTotal counts session construction attempts.
	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_loads_total",
			Help: "Total number of model session construction attempts by result.",
		},
		[]string{"result"},
	)

	// ModelReady is 1 while an inference session is built.
	ModelReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_ready",
			Help: "Whether the inference session is built (1) or not (0).",
		},
	)

	// PredictionRequestsTotal counts controller prediction requests by result.
	PredictionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "window_prediction_requests_total",
			Help: "Total number of window prediction requests by result.",
		},
		[]string{"result"},
	)

	// WindowShiftsTotal counts successful shifts.
	WindowShiftsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "window_shifts_total",
			Help: "Total number of confirmed window shifts.",
		},
	)

	// WindowState reports the controller state (0 idle, 1 predicting, 2 predicted).
	WindowState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "window_state",
			Help: "Current window controller state (0 = idle, 1 = predicting, 2 = predicted).",
		},
	)

	// PredictionCacheTotal counts prediction cache lookups by result.
	PredictionCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_cache_requests_total",
			Help: "Total number of prediction cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordGRPCLatency records the latency of a gRPC method call
func RecordGRPCLatency(method, code string, seconds float64) {
	GRPCServerHandlingSeconds.WithLabelValues(method, code).Observe(seconds)
}

// RecordInference records the outcome and latency of an inference call
func RecordInference(outcome string, seconds float64) {
	InferenceRequestsTotal.WithLabelValues(outcome).Inc()
	InferenceLatencySeconds.Observe(seconds)
}

// RecordModelLoad records a session construction attempt
func RecordModelLoad(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	ModelLoadsTotal.WithLabelValues(result).Inc()
}

// SetModelReady flips the model readiness gauge
func SetModelReady(ready bool) {
	if ready {
		ModelReady.Set(1)
		return
	}
	ModelReady.Set(0)
}

// RecordPredictionRequest records a controller prediction request result
func RecordPredictionRequest(result string) {
	PredictionRequestsTotal.WithLabelValues(result).Inc()
}

// RecordShift records a confirmed shift
func RecordShift() {
	WindowShiftsTotal.Inc()
}

// SetWindowState records the controller state
func SetWindowState(state int) {
	WindowState.Set(float64(state))
}

// RecordCacheLookup records a prediction cache lookup result
func RecordCacheLookup(result string) {
	PredictionCacheTotal.WithLabelValues(result).Inc()
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
