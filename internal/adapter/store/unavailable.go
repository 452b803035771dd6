package store

import (
	"context"
	"fmt"

	"recserve/internal/domain/entity"
	"recserve/internal/domain/repository"
)

var _ repository.PredictionStore = (*UnavailablePredictions)(nil)

// UnavailablePredictions stands in for the prediction log when the
// database is unreachable or unconfigured at startup. The serving path
// must not depend on the analytics side-channel, so the server boots
// anyway and every write reports a persistence failure.
type UnavailablePredictions struct {
	cause error
}

func NewUnavailablePredictions(cause error) *UnavailablePredictions {
	return &UnavailablePredictions{cause: cause}
}

func (s *UnavailablePredictions) InsertBatch(ctx context.Context, preds []entity.Prediction) error {
	return fmt.Errorf("%w: prediction store unavailable: %v", entity.ErrPersistenceFailure, s.cause)
}
