package grpc

import (
	"context"
	"errors"

	"ticksession/internal/ticks/catalog"
	"ticksession/utils/token"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Catalog interface {
	ToQueryResult(ctx context.Context) (*catalog.QueryResult, error)
}

// TicksServer replays a catalog. Every stream merges its own fresh query result, so slow or
// late clients never affect each other.
type TicksServer struct {
	catalog Catalog
}

func NewTicksServer(c Catalog) *TicksServer {
	return &TicksServer{
		catalog: c,
	}
}

func (s *TicksServer) ReplayTicks(req *ReplayRequest, stream TicksService_ReplayTicksServer) error {
	subscribed := make(map[string]struct{}, len(req.InstrumentIDs))
	for _, raw := range req.InstrumentIDs {
		id, err := token.ParseInstrumentID(raw)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		subscribed[id.String()] = struct{}{}
	}

	ctx := stream.Context()
	logger := log.With().Str("subscription", uuid.NewString()).Logger()
	logger.Info().Strs("instruments", req.InstrumentIDs).Msg("client subscribed for ticks")

	result, err := s.catalog.ToQueryResult(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open catalog")
		return status.Error(codes.Unavailable, err.Error())
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close query result")
		}
	}()

	sent := 0
	for d, err := range result.Flatten(ctx) {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info().Int("sent", sent).Msg("client unsubscribed for ticks")
				return status.FromContextError(err).Err()
			}
			logger.Error().Err(err).Int("sent", sent).Msg("merge failed")
			return status.Error(codes.Internal, err.Error())
		}
		if len(subscribed) > 0 {
			if _, ok := subscribed[d.InstrumentID().String()]; !ok {
				continue
			}
		}
		if err := stream.Send(&d); err != nil {
			logger.Err(err).Msg("failed to send stream")
			return err
		}
		sent++
	}

	logger.Info().Int("sent", sent).Msg("replay finished")
	return nil
}
