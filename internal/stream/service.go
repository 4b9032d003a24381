// Package stream serves joint angle updates over gRPC.
//
// The service has no generated stubs: requests and responses are
// google.protobuf.Struct values and the service descriptor is declared by
// hand, so any gRPC client that knows the method names can consume it.
package stream

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName     = "angles.v1.AngleStream"
	watchMethod     = "/" + ServiceName + "/Watch"
	latestMethod    = "/" + ServiceName + "/Latest"
	serviceMetadata = "angles/v1/stream.proto"
)

// AngleStreamServer is the server API for the AngleStream service.
type AngleStreamServer interface {
	// Latest returns the most recent sample.
	Latest(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Watch streams every handled frame until the client goes away.
	Watch(*structpb.Struct, grpc.ServerStream) error
}

// RegisterAngleStreamServer registers srv with s.
func RegisterAngleStreamServer(s grpc.ServiceRegistrar, srv AngleStreamServer) {
	s.RegisterService(&AngleStreamServiceDesc, srv)
}

func latestHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AngleStreamServer).Latest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: latestMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AngleStreamServer).Latest(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AngleStreamServer).Watch(in, stream)
}

// AngleStreamServiceDesc is the grpc.ServiceDesc for the AngleStream
// service.
var AngleStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AngleStreamServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Latest",
			Handler:    latestHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: serviceMetadata,
}
