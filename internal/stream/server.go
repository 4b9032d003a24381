package stream

import (
	"context"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/angle.report/internal/session"
)

// Ensure Server implements the gRPC interface.
var _ AngleStreamServer = (*Server)(nil)

// Server implements AngleStream over a session state.
type Server struct {
	state *session.State
}

// NewServer creates a new gRPC service.
func NewServer(state *session.State) *Server {
	return &Server{state: state}
}

// Latest returns the newest sample or NotFound.
func (s *Server) Latest(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	e, ok := s.state.Latest()
	if !ok {
		return nil, status.Error(codes.NotFound, "no samples yet")
	}
	out, err := FromEntry(e).Encode()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	return out, nil
}

// Watch streams updates. With include_occluded set, Occluded frames are
// sent too; otherwise only new samples are.
func (s *Server) Watch(req *structpb.Struct, stream grpc.ServerStream) error {
	includeOccluded := req.GetFields()["include_occluded"].GetBoolValue()
	log.Printf("[gRPC] Watch started: include_occluded=%v", includeOccluded)

	id, updates := s.state.Subscribe()
	defer s.state.Unsubscribe(id)

	ctx := stream.Context()
	sent := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("[gRPC] Watch ended after %d readings", sent)
			return nil
		case u, ok := <-updates:
			if !ok {
				return status.Error(codes.Unavailable, "session closed")
			}
			if u.Entry == nil && !includeOccluded {
				continue
			}
			msg, err := FromUpdate(u).Encode()
			if err != nil {
				return status.Errorf(codes.Internal, "encode: %v", err)
			}
			if err := stream.SendMsg(msg); err != nil {
				log.Printf("[gRPC] Watch send failed: %v", err)
				return err
			}
			sent++
		}
	}
}
