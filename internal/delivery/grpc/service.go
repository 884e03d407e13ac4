package grpc

import (
	"context"
	"fmt"

	lfgv1 "github.com/vogiaan1904/realm-lfg/api/lfg/v1"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/internal/service"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
	resp "github.com/vogiaan1904/realm-lfg/pkg/response"
	"github.com/vogiaan1904/realm-lfg/pkg/util"
	"google.golang.org/grpc"
)

type grpcService struct {
	svc          service.LfgService
	l            logger.Logger
	streamBuffer int
	lfgv1.UnimplementedLfgServiceServer
}

func NewGrpcService(svc service.LfgService, l logger.Logger, streamBuffer int) lfgv1.LfgServiceServer {
	if streamBuffer <= 0 {
		streamBuffer = 16
	}
	return &grpcService{
		svc:          svc,
		l:            l,
		streamBuffer: streamBuffer,
	}
}

func (s *grpcService) SubmitTicket(ctx context.Context, req *lfgv1.SubmitTicketRequest) (*lfgv1.SubmitTicketResponse, error) {
	out, err := s.svc.SubmitTicket(ctx, service.SubmitTicketInput{
		Members:    req.Members,
		Roles:      toRoles(req.Roles),
		Dungeons:   req.Dungeons,
		QueueType:  models.QueueType(req.QueueType),
		LfgGroupID: req.LfgGroupID,
		Ignores:    req.Ignores,
	})
	if err != nil {
		s.l.Warnf(ctx, "Failed to submit ticket: %v", err)
		return nil, resp.ParseGRPCError(s.mapGRPCError(err))
	}

	return &lfgv1.SubmitTicketResponse{
		TicketID:   out.TicketID,
		State:      uint32(out.State),
		StateName:  out.State.String(),
		QueuedAt:   util.TimeToISO8601Str(out.QueuedAt),
		JoinResult: uint32(models.JoinResultOK),
	}, nil
}

func (s *grpcService) CancelTicket(ctx context.Context, req *lfgv1.CancelTicketRequest) (*lfgv1.CancelTicketResponse, error) {
	if err := s.svc.CancelTicket(ctx, req.TicketID); err != nil {
		return nil, resp.ParseGRPCError(s.mapGRPCError(err))
	}

	return &lfgv1.CancelTicketResponse{
		TicketID: req.TicketID,
		Message:  "Ticket cancelled successfully",
	}, nil
}

func (s *grpcService) GetTicketState(ctx context.Context, req *lfgv1.GetTicketStateRequest) (*lfgv1.TicketStateResponse, error) {
	out, err := s.svc.GetTicketState(ctx, req.TicketID)
	if err != nil {
		return nil, resp.ParseGRPCError(s.mapGRPCError(err))
	}

	return &lfgv1.TicketStateResponse{
		TicketID:          out.TicketID,
		State:             uint32(out.State),
		StateName:         out.StateName,
		Members:           out.Members,
		QueueType:         uint32(out.QueueType),
		Dungeons:          out.Dungeons,
		ProposalID:        out.ProposalID,
		InstanceRef:       out.InstanceRef,
		Position:          out.Position,
		QueueLength:       out.QueueLength,
		QueuedAt:          util.TimeToISO8601Str(out.QueuedAt),
		WaitSeconds:       int64(out.WaitTime.Seconds()),
		BestCompatibility: uint32(out.BestCompatibility),
	}, nil
}

func (s *grpcService) SubmitRole(ctx context.Context, req *lfgv1.SubmitRoleRequest) (*lfgv1.SubmitRoleResponse, error) {
	roles := toRoles(map[string]uint32{req.Member: req.Roles})
	if err := s.svc.SubmitRole(ctx, service.SubmitRoleInput{
		TicketID: req.TicketID,
		Member:   req.Member,
		Roles:    roles[req.Member],
	}); err != nil {
		return nil, resp.ParseGRPCError(s.mapGRPCError(err))
	}
	return &lfgv1.SubmitRoleResponse{}, nil
}

func (s *grpcService) AnswerProposal(ctx context.Context, req *lfgv1.AnswerProposalRequest) (*lfgv1.AnswerProposalResponse, error) {
	if err := s.svc.AnswerProposal(ctx, service.AnswerProposalInput{
		ProposalID: req.ProposalID,
		Member:     req.Member,
		Agree:      req.Agree,
	}); err != nil {
		return nil, resp.ParseGRPCError(s.mapGRPCError(err))
	}
	return &lfgv1.AnswerProposalResponse{}, nil
}

func (s *grpcService) ValidateEntryToken(ctx context.Context, req *lfgv1.ValidateEntryTokenRequest) (*lfgv1.ValidateEntryTokenResponse, error) {
	out, err := s.svc.ValidateEntryToken(ctx, req.Token)
	if err != nil {
		return nil, resp.ParseGRPCError(s.mapGRPCError(err))
	}

	return &lfgv1.ValidateEntryTokenResponse{
		Valid:       true,
		Member:      out.Member,
		TicketID:    out.TicketID,
		ProposalID:  out.ProposalID,
		DungeonID:   out.DungeonID,
		Role:        uint32(out.Role),
		InstanceRef: out.InstanceRef,
		ExpiresAt:   util.TimeToISO8601Str(out.ExpiresAt),
	}, nil
}

func (s *grpcService) StreamUpdates(req *lfgv1.StreamUpdatesRequest, stream grpc.ServerStreamingServer[lfgv1.Update]) error {
	ctx := stream.Context()

	s.l.Infow(ctx, "Starting update stream", "member", req.Member)

	upds := make(chan models.LfgUpdate, s.streamBuffer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.svc.StreamUpdates(ctx, req.Member, upds)
	}()

	for {
		select {
		case <-ctx.Done():
			s.l.Infow(ctx, "Update stream cancelled by client", "member", req.Member)
			return ctx.Err()

		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				s.l.Errorw(ctx, "Update stream error",
					"member", req.Member,
					"error", err,
				)
				return resp.ParseGRPCError(s.mapGRPCError(err))
			}
			s.l.Infow(ctx, "Update stream completed", "member", req.Member)
			return nil

		case u := <-upds:
			if err := stream.Send(toUpdate(req.Member, u)); err != nil {
				s.l.Errorw(ctx, "Failed to send update",
					"member", req.Member,
					"error", err,
				)
				return fmt.Errorf("send update %s: %w", u.ID, err)
			}

			s.l.Debugw(ctx, "Sent update to client",
				"member", req.Member,
				"type", u.Type.String(),
				"state", u.State.String(),
			)
		}
	}
}
