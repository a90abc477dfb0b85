package grpcserver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"matchbook/api/lineproto"
	"matchbook/domain/orderbook"
	"matchbook/service"
	"matchbook/snapshot"
)

// Server adapts MatchService to gRPC.
type Server struct {
	svc *service.MatchService
	log *zap.Logger
}

func NewServer(svc *service.MatchService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, log: log.With(zap.String("component", "grpc"))}
}

// -------------------- Commands --------------------

func (s *Server) Submit(
	ctx context.Context,
	req *wrapperspb.StringValue,
) (*structpb.ListValue, error) {
	trades, err := s.svc.SubmitLine(ctx, req.GetValue())
	if err != nil && !errors.Is(err, service.ErrOutbox) {
		return nil, toStatus(err)
	}
	if err != nil {
		s.log.Warn("trades executed but not queued for delivery", zap.Error(err))
	}
	return stringList(lineproto.FormatTrades(trades)), nil
}

// -------------------- Queries --------------------

func (s *Server) Snapshot(
	ctx context.Context,
	_ *emptypb.Empty,
) (*structpb.ListValue, error) {
	return stringList(snapshot.Lines(s.svc.Snapshot())), nil
}

// -------------------- Errors --------------------

func toStatus(err error) error {
	switch {
	case errors.Is(err, orderbook.ErrUnknownOrder):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, orderbook.ErrDuplicateOrder):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrJournal):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.InvalidArgument, err.Error())
	}
}

// -------------------- Interceptors --------------------

// UnaryLogger logs every call with its duration and status code.
func UnaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("took", time.Since(start)),
			zap.Stringer("code", status.Code(err)),
		}
		if err != nil {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc call", fields...)
		}
		return resp, err
	}
}
