package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// OwnerHeader carries the owner identity set by the gateway in front of the
// service.
const OwnerHeader = "x-owner-id"

type ownerKey struct{}

func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// GetOwnerID returns the owner placed on ctx by the interceptor, falling back
// to incoming metadata.
func GetOwnerID(ctx context.Context) string {
	if val, ok := ctx.Value(ownerKey{}).(string); ok {
		return val
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if val := md.Get(OwnerHeader); len(val) > 0 {
			return strings.TrimSpace(val[0])
		}
	}
	return ""
}

// OwnerInterceptor rejects calls without an owner. Methods under the grpc.*
// namespace (health, reflection) are let through.
func OwnerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, "/grpc.") {
			return handler(ctx, req)
		}
		owner := GetOwnerID(ctx)
		if owner == "" {
			return nil, status.Errorf(codes.Unauthenticated, "missing %s", OwnerHeader)
		}
		return handler(WithOwner(ctx, owner), req)
	}
}
