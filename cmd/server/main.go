package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/SyedDaiam9101/window-predictor/internal/cache"
	"github.com/SyedDaiam9101/window-predictor/internal/config"
	"github.com/SyedDaiam9101/window-predictor/internal/handler"
	"github.com/SyedDaiam9101/window-predictor/internal/inference"
	"github.com/SyedDaiam9101/window-predictor/internal/metrics"
	"github.com/SyedDaiam9101/window-predictor/internal/middleware"
	"github.com/SyedDaiam9101/window-predictor/internal/window"
)

const serviceName = "window-predictor"

func main() {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config invalid")
	}

	setupLogging(cfg.LogLevel, cfg.LogFormat)

	log.Info().
		Int("port", cfg.Port).
		Int("metrics_port", cfg.MetricsPort).
		Str("model", cfg.Model).
		Str("redis", cfg.Redis).
		Bool("otel", cfg.OTELEnabled).
		Bool("mock", cfg.UseMockInference).
		Msgf("Starting %s", serviceName)

	// Initialize OpenTelemetry tracer
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = initTracer(cfg.OTELEndpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize tracer")
		} else {
			log.Info().Str("endpoint", cfg.OTELEndpoint).Msg("OpenTelemetry tracing enabled")
		}
	}

	// The model is loaded on the first prediction, not here.
	var engine inference.Engine
	if cfg.UseMockInference {
		log.Info().Msg("Using mock inference engine")
		engine = inference.NewMock(0)
	} else {
		engine = inference.New(cfg.Model, inference.Options{
			LibraryPath: cfg.ORTLibrary,
			InputName:   cfg.InputName,
			OutputName:  cfg.OutputName,
			Timeout:     cfg.PredictTimeout,
		})
	}

	// Initialize Redis cache (optional)
	if cfg.Redis != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cacheClient, err := cache.New(ctx, cfg.Redis)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, continuing without prediction cache")
		} else {
			defer cacheClient.Close()
			engine = cache.NewEngine(engine, cacheClient, cfg.CacheTTL)
			log.Info().Str("redis", cfg.Redis).Msg("prediction cache enabled")
		}
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close inference engine")
		}
	}()

	ctrl := window.New(engine)

	// Create gRPC health server
	healthServer := health.NewServer()

	// Start HTTP server for metrics and health checks
	httpServer := startHTTPServer(cfg.MetricsPort, healthServer)

	interceptors := []grpc.UnaryServerInterceptor{
		middleware.UnaryRequestIDInterceptor(),
		middleware.UnaryLoggingInterceptor(),
		middleware.UnaryMetricsInterceptor(),
	}
	if cfg.OTELEnabled {
		interceptors = append(interceptors, otelgrpc.UnaryServerInterceptor())
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors...),
	)

	handler.RegisterWindowServiceServer(grpcServer, handler.New(ctrl, engine))
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable server reflection for debugging
	reflection.Register(grpcServer)

	addr := fmt.Sprintf(":%d", cfg.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("failed to listen")
	}

	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING) // Overall health
	metrics.SetHealthy()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

		healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		metrics.SetUnhealthy()

		// Give time for load balancers to detect unhealthy status
		time.Sleep(5 * time.Second)

		grpcServer.GracefulStop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("HTTP server shutdown")
		}

		if tracerShutdown != nil {
			if err := tracerShutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("tracer shutdown")
			}
		}
	}()

	log.Info().Str("addr", addr).Msgf("%s is ready to accept requests", serviceName)

	if err := grpcServer.Serve(lis); err != nil {
		log.Error().Err(err).Msg("failed to serve")
		return
	}

	log.Info().Msg("Server shutdown complete")
}

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = log.With().Str("service", serviceName).Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

func startHTTPServer(port int, healthServer *health.Server) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	serving := func(w http.ResponseWriter, r *http.Request, notOK, ok string) {
		resp, err := healthServer.Check(r.Context(), &healthpb.HealthCheckRequest{})
		if err != nil || resp.Status != healthpb.HealthCheckResponse_SERVING {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(notOK))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(ok))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		serving(w, r, "Service Unavailable", "OK")
	})
	// Readiness does not wait for the model; it is built on first use.
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		serving(w, r, "Not Ready", "Ready")
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening (metrics, health)")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	return server
}

func initTracer(endpoint string) (func(context.Context) error, error) {
	// OTLP export needs a collector; spans go to stdout until one is wired.
	if endpoint != "" {
		log.Info().Str("endpoint", endpoint).Msg("using stdout trace exporter")
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
