package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/pantry-service/internal/cache"
	"github.com/fekuna/pantry-service/internal/model"
)

// Error maps a use case error to a gRPC status.
func Error(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(Code(err), err.Error())
}

func Code(err error) codes.Code {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, model.ErrInvalidLine):
		return codes.InvalidArgument
	case errors.Is(err, model.ErrNegativeQuantity):
		return codes.FailedPrecondition
	case errors.Is(err, model.ErrItemExists):
		return codes.AlreadyExists
	case errors.Is(err, model.ErrConcurrentUpdate):
		return codes.Aborted
	case errors.Is(err, cache.ErrLockBusy):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}
