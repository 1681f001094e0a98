package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/fekuna/pantry-service/internal/cache"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
)

func TestCodec_Registered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)

	b, err := codec.Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	var out map[string]int
	require.NoError(t, codec.Unmarshal(b, &out))
	assert.Equal(t, 1, out["a"])
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{model.ErrNotFound, codes.NotFound},
		{fmt.Errorf("%w: empty name", model.ErrInvalidLine), codes.InvalidArgument},
		{model.ErrNegativeQuantity, codes.FailedPrecondition},
		{model.ErrItemExists, codes.AlreadyExists},
		{model.ErrConcurrentUpdate, codes.Aborted},
		{fmt.Errorf("lock milk: %w", cache.ErrLockBusy), codes.Unavailable},
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
			assert.Equal(t, tt.want, status.Code(Error(tt.err)))
		})
	}

	assert.NoError(t, Error(nil))
	st := status.Error(codes.PermissionDenied, "no")
	assert.Equal(t, st, Error(st))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2030-03-04")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)))

	_, err = ParseDate("04/03/2030")
	assert.ErrorIs(t, err, model.ErrInvalidLine)
}

type echoRequest struct {
	Text string `json:"text"`
}

func TestUnary_DecodesAndIntercepts(t *testing.T) {
	desc := ServiceDesc("test.Echo", Unary("Echo", func(_ context.Context, req *echoRequest) (*echoRequest, error) {
		return &echoRequest{Text: req.Text + "!"}, nil
	}))
	require.Len(t, desc.Methods, 1)
	handler := desc.Methods[0].Handler

	dec := func(v interface{}) error {
		v.(*echoRequest).Text = "hi"
		return nil
	}
	resp, err := handler(struct{}{}, context.Background(), dec, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi!", resp.(*echoRequest).Text)

	var seen string
	intercept := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (interface{}, error) {
		seen = info.FullMethod
		return next(ctx, req)
	}
	_, err = handler(struct{}{}, context.Background(), dec, intercept)
	require.NoError(t, err)
	assert.Equal(t, FullMethod("test.Echo", "Echo"), seen)

	_, err = handler(struct{}{}, context.Background(), func(interface{}) error { return errors.New("bad json") }, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestLoggingInterceptor_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	intercept := LoggingInterceptor(logger.New(zap.New(core)))
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Echo/Echo"}

	for _, err := range []error{nil, Error(model.ErrNotFound), Error(errors.New("db down"))} {
		_, _ = intercept(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			return nil, err
		})
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "NotFound", entries[1].ContextMap()["code"])
}
