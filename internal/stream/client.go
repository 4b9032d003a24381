package stream

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls an AngleStream service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Latest fetches the newest sample.
func (c *Client) Latest(ctx context.Context, opts ...grpc.CallOption) (Reading, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, latestMethod, &structpb.Struct{}, out, opts...); err != nil {
		return Reading{}, err
	}
	return DecodeReading(out)
}

// Watcher receives readings from a Watch call.
type Watcher struct {
	stream grpc.ClientStream
}

// Watch opens a stream of readings.
func (c *Client) Watch(ctx context.Context, includeOccluded bool, opts ...grpc.CallOption) (*Watcher, error) {
	stream, err := c.cc.NewStream(ctx, &AngleStreamServiceDesc.Streams[0], watchMethod, opts...)
	if err != nil {
		return nil, err
	}
	req, err := structpb.NewStruct(map[string]interface{}{"include_occluded": includeOccluded})
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &Watcher{stream: stream}, nil
}

// Recv blocks for the next reading.
func (w *Watcher) Recv() (Reading, error) {
	m := new(structpb.Struct)
	if err := w.stream.RecvMsg(m); err != nil {
		return Reading{}, err
	}
	return DecodeReading(m)
}
