package client

import (
	"context"
	"fmt"
	"sort"

	"recserve/internal/domain/repository"
)

// BruteForceIndex is the exact retrieval model: an exhaustive similarity
// scan over the artifact's item embedding table. It is the correctness
// baseline the approximate index is evaluated against.
type BruteForceIndex struct {
	art *Artifact
}

func NewBruteForceIndex(path string) (*BruteForceIndex, error) {
	art, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	if len(art.ItemEmbeddings) == 0 {
		return nil, fmt.Errorf("artifact %s: no item embeddings", path)
	}
	return &BruteForceIndex{art: art}, nil
}

func (m *BruteForceIndex) Name() string { return "exact-retrieval" }

func (m *BruteForceIndex) Infer(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, _ := inputs[repository.InputTopK].(int)
	if k <= 0 {
		return nil, fmt.Errorf("exact-retrieval: non-positive k")
	}

	userEmb := m.art.UserTower.Encode(inputs)

	type hit struct {
		id       string
		affinity float64
	}
	hits := make([]hit, 0, len(m.art.ItemEmbeddings))
	for id, emb := range m.art.ItemEmbeddings {
		hits = append(hits, hit{id: id, affinity: dot(userEmb, emb)})
	}

	// Descending affinity; ties break on id so repeated calls against the
	// same table stay byte-for-byte identical.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].affinity != hits[j].affinity {
			return hits[i].affinity > hits[j].affinity
		}
		return hits[i].id < hits[j].id
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	ids := make([]string, len(hits))
	affinities := make([]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
		affinities[i] = h.affinity
	}

	return map[string]any{
		repository.OutputIDs:        ids,
		repository.OutputAffinities: affinities,
	}, nil
}
