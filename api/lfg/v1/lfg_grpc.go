package lfgv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	LfgService_SubmitTicket_FullMethodName       = "/lfg.v1.LfgService/SubmitTicket"
	LfgService_CancelTicket_FullMethodName       = "/lfg.v1.LfgService/CancelTicket"
	LfgService_GetTicketState_FullMethodName     = "/lfg.v1.LfgService/GetTicketState"
	LfgService_SubmitRole_FullMethodName         = "/lfg.v1.LfgService/SubmitRole"
	LfgService_AnswerProposal_FullMethodName     = "/lfg.v1.LfgService/AnswerProposal"
	LfgService_StreamUpdates_FullMethodName      = "/lfg.v1.LfgService/StreamUpdates"
	LfgService_ValidateEntryToken_FullMethodName = "/lfg.v1.LfgService/ValidateEntryToken"
)

type LfgServiceClient interface {
	SubmitTicket(ctx context.Context, in *SubmitTicketRequest, opts ...grpc.CallOption) (*SubmitTicketResponse, error)
	CancelTicket(ctx context.Context, in *CancelTicketRequest, opts ...grpc.CallOption) (*CancelTicketResponse, error)
	GetTicketState(ctx context.Context, in *GetTicketStateRequest, opts ...grpc.CallOption) (*TicketStateResponse, error)
	SubmitRole(ctx context.Context, in *SubmitRoleRequest, opts ...grpc.CallOption) (*SubmitRoleResponse, error)
	AnswerProposal(ctx context.Context, in *AnswerProposalRequest, opts ...grpc.CallOption) (*AnswerProposalResponse, error)
	StreamUpdates(ctx context.Context, in *StreamUpdatesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Update], error)
	ValidateEntryToken(ctx context.Context, in *ValidateEntryTokenRequest, opts ...grpc.CallOption) (*ValidateEntryTokenResponse, error)
}

type lfgServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLfgServiceClient(cc grpc.ClientConnInterface) LfgServiceClient {
	return &lfgServiceClient{cc}
}

func (c *lfgServiceClient) SubmitTicket(ctx context.Context, in *SubmitTicketRequest, opts ...grpc.CallOption) (*SubmitTicketResponse, error) {
	out := new(SubmitTicketResponse)
	if err := c.cc.Invoke(ctx, LfgService_SubmitTicket_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lfgServiceClient) CancelTicket(ctx context.Context, in *CancelTicketRequest, opts ...grpc.CallOption) (*CancelTicketResponse, error) {
	out := new(CancelTicketResponse)
	if err := c.cc.Invoke(ctx, LfgService_CancelTicket_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lfgServiceClient) GetTicketState(ctx context.Context, in *GetTicketStateRequest, opts ...grpc.CallOption) (*TicketStateResponse, error) {
	out := new(TicketStateResponse)
	if err := c.cc.Invoke(ctx, LfgService_GetTicketState_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lfgServiceClient) SubmitRole(ctx context.Context, in *SubmitRoleRequest, opts ...grpc.CallOption) (*SubmitRoleResponse, error) {
	out := new(SubmitRoleResponse)
	if err := c.cc.Invoke(ctx, LfgService_SubmitRole_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lfgServiceClient) AnswerProposal(ctx context.Context, in *AnswerProposalRequest, opts ...grpc.CallOption) (*AnswerProposalResponse, error) {
	out := new(AnswerProposalResponse)
	if err := c.cc.Invoke(ctx, LfgService_AnswerProposal_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lfgServiceClient) StreamUpdates(ctx context.Context, in *StreamUpdatesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Update], error) {
	stream, err := c.cc.NewStream(ctx, &LfgService_ServiceDesc.Streams[0], LfgService_StreamUpdates_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamUpdatesRequest, Update]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *lfgServiceClient) ValidateEntryToken(ctx context.Context, in *ValidateEntryTokenRequest, opts ...grpc.CallOption) (*ValidateEntryTokenResponse, error) {
	out := new(ValidateEntryTokenResponse)
	if err := c.cc.Invoke(ctx, LfgService_ValidateEntryToken_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type LfgServiceServer interface {
	SubmitTicket(context.Context, *SubmitTicketRequest) (*SubmitTicketResponse, error)
	CancelTicket(context.Context, *CancelTicketRequest) (*CancelTicketResponse, error)
	GetTicketState(context.Context, *GetTicketStateRequest) (*TicketStateResponse, error)
	SubmitRole(context.Context, *SubmitRoleRequest) (*SubmitRoleResponse, error)
	AnswerProposal(context.Context, *AnswerProposalRequest) (*AnswerProposalResponse, error)
	StreamUpdates(*StreamUpdatesRequest, grpc.ServerStreamingServer[Update]) error
	ValidateEntryToken(context.Context, *ValidateEntryTokenRequest) (*ValidateEntryTokenResponse, error)
}

// UnimplementedLfgServiceServer can be embedded to keep forward
// compatibility.
type UnimplementedLfgServiceServer struct{}

func (UnimplementedLfgServiceServer) SubmitTicket(context.Context, *SubmitTicketRequest) (*SubmitTicketResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitTicket not implemented")
}
func (UnimplementedLfgServiceServer) CancelTicket(context.Context, *CancelTicketRequest) (*CancelTicketResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CancelTicket not implemented")
}
func (UnimplementedLfgServiceServer) GetTicketState(context.Context, *GetTicketStateRequest) (*TicketStateResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetTicketState not implemented")
}
func (UnimplementedLfgServiceServer) SubmitRole(context.Context, *SubmitRoleRequest) (*SubmitRoleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitRole not implemented")
}
func (UnimplementedLfgServiceServer) AnswerProposal(context.Context, *AnswerProposalRequest) (*AnswerProposalResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AnswerProposal not implemented")
}
func (UnimplementedLfgServiceServer) StreamUpdates(*StreamUpdatesRequest, grpc.ServerStreamingServer[Update]) error {
	return status.Errorf(codes.Unimplemented, "method StreamUpdates not implemented")
}
func (UnimplementedLfgServiceServer) ValidateEntryToken(context.Context, *ValidateEntryTokenRequest) (*ValidateEntryTokenResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ValidateEntryToken not implemented")
}

func RegisterLfgServiceServer(s grpc.ServiceRegistrar, srv LfgServiceServer) {
	s.RegisterService(&LfgService_ServiceDesc, srv)
}

func _LfgService_SubmitTicket_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitTicketRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LfgServiceServer).SubmitTicket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LfgService_SubmitTicket_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LfgServiceServer).SubmitTicket(ctx, req.(*SubmitTicketRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LfgService_CancelTicket_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CancelTicketRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LfgServiceServer).CancelTicket(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LfgService_CancelTicket_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LfgServiceServer).CancelTicket(ctx, req.(*CancelTicketRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LfgService_GetTicketState_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetTicketStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LfgServiceServer).GetTicketState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LfgService_GetTicketState_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LfgServiceServer).GetTicketState(ctx, req.(*GetTicketStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LfgService_SubmitRole_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubmitRoleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LfgServiceServer).SubmitRole(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LfgService_SubmitRole_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LfgServiceServer).SubmitRole(ctx, req.(*SubmitRoleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LfgService_AnswerProposal_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AnswerProposalRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LfgServiceServer).AnswerProposal(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LfgService_AnswerProposal_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LfgServiceServer).AnswerProposal(ctx, req.(*AnswerProposalRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _LfgService_StreamUpdates_Handler(srv any, stream grpc.ServerStream) error {
	m := new(StreamUpdatesRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(LfgServiceServer).StreamUpdates(m, &grpc.GenericServerStream[StreamUpdatesRequest, Update]{ServerStream: stream})
}

func _LfgService_ValidateEntryToken_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ValidateEntryTokenRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LfgServiceServer).ValidateEntryToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LfgService_ValidateEntryToken_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LfgServiceServer).ValidateEntryToken(ctx, req.(*ValidateEntryTokenRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var LfgService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "lfg.v1.LfgService",
	HandlerType: (*LfgServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitTicket", Handler: _LfgService_SubmitTicket_Handler},
		{MethodName: "CancelTicket", Handler: _LfgService_CancelTicket_Handler},
		{MethodName: "GetTicketState", Handler: _LfgService_GetTicketState_Handler},
		{MethodName: "SubmitRole", Handler: _LfgService_SubmitRole_Handler},
		{MethodName: "AnswerProposal", Handler: _LfgService_AnswerProposal_Handler},
		{MethodName: "ValidateEntryToken", Handler: _LfgService_ValidateEntryToken_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamUpdates",
			Handler:       _LfgService_StreamUpdates_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "api/lfg/v1/lfg.go",
}
