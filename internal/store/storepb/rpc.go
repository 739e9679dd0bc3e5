package storepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Full method names of the Store service.
const (
	Store_Info_FullMethodName   = "/thanos.Store/Info"
	Store_Series_FullMethodName = "/thanos.Store/Series"
)

// StoreClient is the client API for the Store service.
type StoreClient interface {
	Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error)
	// Series streams each matching series as an individual response frame.
	Series(ctx context.Context, in *SeriesRequest, opts ...grpc.CallOption) (Store_SeriesClient, error)
}

// Store_SeriesClient is the client side of one Series stream.
type Store_SeriesClient = grpc.ServerStreamingClient[SeriesResponse]

type storeClient struct {
	cc grpc.ClientConnInterface
}

// NewStoreClient returns a StoreClient talking over cc.
func NewStoreClient(cc grpc.ClientConnInterface) StoreClient {
	return &storeClient{cc}
}

func (c *storeClient) Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	out := new(InfoResponse)
	if err := c.cc.Invoke(ctx, Store_Info_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *storeClient) Series(ctx context.Context, in *SeriesRequest, opts ...grpc.CallOption) (Store_SeriesClient, error) {
	stream, err := c.cc.NewStream(ctx, &Store_ServiceDesc.Streams[0], Store_Series_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SeriesRequest, SeriesResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// StoreServer is the server API for the Store service.
type StoreServer interface {
	Info(ctx context.Context, in *InfoRequest) (*InfoResponse, error)
	Series(req *SeriesRequest, srv Store_SeriesServer) error
}

// Store_SeriesServer is the server side of one Series stream.
type Store_SeriesServer = grpc.ServerStreamingServer[SeriesResponse]

// UnimplementedStoreServer can be embedded for forward compatibility.
type UnimplementedStoreServer struct{}

func (UnimplementedStoreServer) Info(context.Context, *InfoRequest) (*InfoResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Info not implemented")
}

func (UnimplementedStoreServer) Series(*SeriesRequest, Store_SeriesServer) error {
	return status.Error(codes.Unimplemented, "method Series not implemented")
}

// RegisterStoreServer registers the Store service implementation on s.
func RegisterStoreServer(s grpc.ServiceRegistrar, srv StoreServer) {
	s.RegisterService(&Store_ServiceDesc, srv)
}

func _Store_Info_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(InfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StoreServer).Info(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Store_Info_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(StoreServer).Info(ctx, req.(*InfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Store_Series_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(SeriesRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(StoreServer).Series(m, &grpc.GenericServerStream[SeriesRequest, SeriesResponse]{ServerStream: stream})
}

// Store_ServiceDesc is the grpc.ServiceDesc for the Store service.
var Store_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "thanos.Store",
	HandlerType: (*StoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Info",
			Handler:    _Store_Info_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Series",
			Handler:       _Store_Series_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "internal/store/storepb/storepb.proto",
}
