package store

import (
	"context"
	"fmt"
	"strconv"

	"recserve/internal/adapter/client"
	"recserve/internal/domain/repository"

	"github.com/qdrant/go-client/qdrant"
)

var _ repository.Model = (*QdrantIndex)(nil)

// QdrantIndex is the approximate retrieval model: the artifact's user
// tower encodes the query and a qdrant collection of precomputed item
// embeddings answers the nearest-neighbor search.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	art        *client.Artifact
}

func NewQdrantIndex(qc *qdrant.Client, collection string, art *client.Artifact) *QdrantIndex {
	return &QdrantIndex{
		client:     qc,
		collection: collection,
		art:        art,
	}
}

func (s *QdrantIndex) Name() string { return "approximate-retrieval" }

func (s *QdrantIndex) Infer(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	k, _ := inputs[repository.InputTopK].(int)
	if k <= 0 {
		return nil, fmt.Errorf("approximate-retrieval: non-positive k")
	}

	userEmb := s.art.UserTower.Encode(inputs)
	vector := make([]float32, len(userEmb))
	for i, v := range userEmb {
		vector[i] = float32(v)
	}

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	ids := make([]string, 0, len(res))
	affinities := make([]float64, 0, len(res))
	for _, point := range res {
		ids = append(ids, pointIdentifier(point))
		affinities = append(affinities, float64(point.Score))
	}

	return map[string]any{
		repository.OutputIDs:        ids,
		repository.OutputAffinities: affinities,
	}, nil
}

// pointIdentifier prefers the movie_id payload field written at index
// build time and falls back to the raw point id.
func pointIdentifier(point *qdrant.ScoredPoint) string {
	if id := point.Payload["movie_id"].GetStringValue(); id != "" {
		return id
	}
	if point.Id == nil {
		return ""
	}
	if uid := point.Id.GetUuid(); uid != "" {
		return uid
	}
	return strconv.FormatUint(point.Id.GetNum(), 10)
}
