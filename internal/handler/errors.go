package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SyedDaiam9101/window-predictor/internal/inference"
	"github.com/SyedDaiam9101/window-predictor/internal/window"
)

// grpcError maps controller and engine errors to gRPC status errors. The
// status message is the notice shown to the user, so it is the error text
// unchanged.
func grpcError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()

	switch {
	case window.IsValidation(err):
		return status.Error(codes.InvalidArgument, msg)

	case errors.Is(err, window.ErrIncompleteWindow),
		errors.Is(err, window.ErrMissingActual),
		errors.Is(err, window.ErrNoPrediction):
		return status.Error(codes.FailedPrecondition, msg)

	case errors.Is(err, window.ErrBusy):
		return status.Error(codes.Unavailable, msg)

	case errors.Is(err, window.ErrWindowChanged):
		return status.Error(codes.Aborted, msg)

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)

	case inference.IsModelLoad(err):
		return status.Error(codes.FailedPrecondition, msg)

	case inference.IsInvalidInput(err):
		// The controller only sends full windows, so this is a contract violation.
		return status.Errorf(codes.Internal, "internal error: %s", msg)

	case inference.IsInference(err):
		return status.Error(codes.Internal, msg)

	default:
		return status.Errorf(codes.Internal, "internal error: %s", msg)
	}
}

// invalidArgumentError creates an InvalidArgument gRPC error
func invalidArgumentError(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// failedPreconditionError creates a FailedPrecondition gRPC error
func failedPreconditionError(format string, args ...interface{}) error {
	return status.Errorf(codes.FailedPrecondition, format, args...)
}
