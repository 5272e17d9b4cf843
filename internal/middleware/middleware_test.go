package middleware

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var testInfo = &grpc.UnaryServerInfo{FullMethod: "/window.v1.WindowService/Predict"}

func TestUnaryRequestIDInterceptor_GeneratesID(t *testing.T) {
	interceptor := UnaryRequestIDInterceptor()

	var capturedCtx context.Context
	mockHandler := func(ctx context.Context, req interface{}) (interface{}, error) {
		capturedCtx = ctx
		return "response", nil
	}

	_, err := interceptor(context.Background(), nil, testInfo, mockHandler)
	require.NoError(t, err)

	// UUID format is 36 chars with dashes
	requestID := GetRequestID(capturedCtx)
	assert.Len(t, requestID, 36)
	assert.NotNil(t, zerolog.Ctx(capturedCtx))
}

func TestUnaryRequestIDInterceptor_PreservesExistingID(t *testing.T) {
	interceptor := UnaryRequestIDInterceptor()
	existingID := "test-request-id-12345"

	var capturedCtx context.Context
	mockHandler := func(ctx context.Context, req interface{}) (interface{}, error) {
		capturedCtx = ctx
		return "response", nil
	}

	md := metadata.Pairs(RequestIDHeader, existingID)
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_, err := interceptor(ctx, nil, testInfo, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, existingID, GetRequestID(capturedCtx))
}

func TestGetRequestID_EmptyContext(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestUnaryLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())
	interceptor := UnaryLoggingInterceptor()

	_, err := interceptor(ctx, nil, testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.FailedPrecondition, "enter the actual 16th number before shifting")
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"code":"FailedPrecondition"`)
	assert.Contains(t, out, `"method":"/window.v1.WindowService/Predict"`)
}

func TestUnaryMetricsInterceptor_PassesThrough(t *testing.T) {
	interceptor := UnaryMetricsInterceptor()

	resp, err := interceptor(context.Background(), "req", testInfo, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "OK", statusCode(nil))
	assert.Equal(t, "Unavailable", statusCode(status.Error(codes.Unavailable, "busy")))
	assert.Equal(t, "Unknown", statusCode(assert.AnError))
}
