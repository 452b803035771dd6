package repository

import (
	"context"

	"recserve/internal/domain/entity"
)

// Named-input / named-output keys shared with the model adapters. The
// names follow the serving signature of the exported artifacts.
const (
	InputTopK        = "k"
	OutputIDs        = "output_0"
	OutputAffinities = "output_1"
	OutputScore      = "output_0"
)

// Model is the capability boundary around an inference runtime. The core
// never touches runtime-specific code; each adapter maps named inputs to
// named outputs for one loaded artifact.
type Model interface {
	Name() string
	Infer(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// PredictionStore persists one ranking call's records as a single logical
// unit. InsertBatch is all-or-nothing; failures wrap
// entity.ErrPersistenceFailure.
type PredictionStore interface {
	InsertBatch(ctx context.Context, preds []entity.Prediction) error
}

// RetrievalCache caches retrieval results keyed by request fingerprint.
// A miss is (nil, nil), not an error.
type RetrievalCache interface {
	Get(ctx context.Context, key string) ([]string, error)
	Set(ctx context.Context, key string, ids []string) error
}
