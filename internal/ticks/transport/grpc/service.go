package grpc

import (
	"context"

	"ticksession/internal/dto"

	"google.golang.org/grpc"
)

const (
	serviceName       = "ticks.v1.TicksService"
	replayTicksMethod = "/" + serviceName + "/ReplayTicks"
)

// ReplayRequest selects instruments to replay. An empty list replays everything.
type ReplayRequest struct {
	InstrumentIDs []string `json:"instrument_ids,omitempty"`
}

type TicksServiceServer interface {
	ReplayTicks(*ReplayRequest, TicksService_ReplayTicksServer) error
}

type TicksService_ReplayTicksServer interface {
	Send(*dto.Data) error
	grpc.ServerStream
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TicksServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ReplayTicks",
			Handler:       replayTicksHandler,
			ServerStreams: true,
		},
	},
	Metadata: "ticks/v1/ticks.proto",
}

func replayTicksHandler(srv any, stream grpc.ServerStream) error {
	req := new(ReplayRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(TicksServiceServer).ReplayTicks(req, &replayTicksServer{stream})
}

type replayTicksServer struct {
	grpc.ServerStream
}

func (x *replayTicksServer) Send(d *dto.Data) error {
	return x.ServerStream.SendMsg(d)
}

// NewServer returns a grpc.Server that speaks the JSON codec.
func NewServer(opts ...grpc.ServerOption) *grpc.Server {
	return grpc.NewServer(append([]grpc.ServerOption{grpc.ForceServerCodec(Codec{})}, opts...)...)
}

func RegisterTicksServiceServer(s grpc.ServiceRegistrar, srv TicksServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ReplayStream receives merged ticks until io.EOF.
type ReplayStream struct {
	stream grpc.ClientStream
}

func (c *Client) ReplayTicks(ctx context.Context, req *ReplayRequest, opts ...grpc.CallOption) (*ReplayStream, error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], replayTicksMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &ReplayStream{stream: stream}, nil
}

func (s *ReplayStream) Recv() (dto.Data, error) {
	var d dto.Data
	if err := s.stream.RecvMsg(&d); err != nil {
		return dto.Data{}, err
	}
	return d, nil
}
