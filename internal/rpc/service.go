package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Method is one unary RPC of a service.
type Method struct {
	Name    string
	handler func(service string) grpc.MethodDesc
}

// Unary declares a method whose request and response are plain JSON structs.
func Unary[Req any, Resp any](name string, fn func(ctx context.Context, req *Req) (*Resp, error)) Method {
	return Method{
		Name: name,
		handler: func(service string) grpc.MethodDesc {
			fullMethod := "/" + service + "/" + name
			return grpc.MethodDesc{
				MethodName: name,
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(Req)
					if err := dec(req); err != nil {
						return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
					}
					if interceptor == nil {
						return fn(ctx, req)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
					return interceptor(ctx, req, info, func(ctx context.Context, r interface{}) (interface{}, error) {
						return fn(ctx, r.(*Req))
					})
				},
			}
		},
	}
}

// ServiceDesc assembles a service description for grpc.Server.RegisterService.
// Handlers are closures, so the registered implementation is not inspected.
func ServiceDesc(name string, methods ...Method) *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*interface{})(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    name,
	}
	for _, m := range methods {
		desc.Methods = append(desc.Methods, m.handler(name))
	}
	return desc
}

// Register adds the service to s.
func Register(s grpc.ServiceRegistrar, desc *grpc.ServiceDesc) {
	s.RegisterService(desc, struct{}{})
}

// FullMethod is the path a client invokes, e.g. "/pantry.v1.InventoryService/GetItem".
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}
