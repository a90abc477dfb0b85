package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service speaks only protobuf well-known types, so no generated code
// is needed:
//
//	service MatchService {
//	  rpc Submit(google.protobuf.StringValue) returns (google.protobuf.ListValue);
//	  rpc Snapshot(google.protobuf.Empty) returns (google.protobuf.ListValue);
//	}
const (
	ServiceName = "matchbook.v1.MatchService"

	submitMethod   = "/" + ServiceName + "/Submit"
	snapshotMethod = "/" + ServiceName + "/Snapshot"
)

// MatchServer is the server API for MatchService.
type MatchServer interface {
	// Submit executes one command line and returns the trade lines it produced.
	Submit(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	// Snapshot returns the current depth view as snapshot lines.
	Snapshot(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: submitHandler},
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matchbook/v1/match.proto",
}

func Register(s grpc.ServiceRegistrar, srv MatchServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func submitHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: submitMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatchServer).Submit(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func snapshotHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MatchServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: snapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MatchServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Client is a thin typed client for MatchService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Submit(ctx context.Context, line string, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, submitMethod, wrapperspb.String(line), out, opts...); err != nil {
		return nil, err
	}
	return listStrings(out), nil
}

func (c *Client) Snapshot(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, snapshotMethod, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}
	return listStrings(out), nil
}

func listStrings(l *structpb.ListValue) []string {
	out := make([]string, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

func stringList(lines []string) *structpb.ListValue {
	vals := make([]*structpb.Value, 0, len(lines))
	for _, l := range lines {
		vals = append(vals, structpb.NewStringValue(l))
	}
	return &structpb.ListValue{Values: vals}
}
