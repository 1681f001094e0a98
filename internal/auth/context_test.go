package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func incoming(owner string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(OwnerHeader, owner))
}

func TestGetOwnerID(t *testing.T) {
	assert.Equal(t, "", GetOwnerID(context.Background()))
	assert.Equal(t, "u1", GetOwnerID(incoming(" u1 ")))
	assert.Equal(t, "u2", GetOwnerID(WithOwner(incoming("u1"), "u2")))
}

func TestOwnerInterceptor(t *testing.T) {
	intercept := OwnerInterceptor()
	var got string
	next := func(ctx context.Context, _ interface{}) (interface{}, error) {
		got = GetOwnerID(ctx)
		return "ok", nil
	}

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/pantry.v1.InventoryService/ListItems"}, next)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	resp, err := intercept(incoming("u1"), nil, &grpc.UnaryServerInfo{FullMethod: "/pantry.v1.InventoryService/ListItems"}, next)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "u1", got)

	_, err = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, next)
	assert.NoError(t, err)
}
