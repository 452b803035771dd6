package client

import (
	"context"
	"fmt"

	"recserve/internal/domain/repository"
)

// TwoTowerRanker scores a single (user, item) pair: both towers encode
// their side of the merged feature map and the affinity is their dot
// product. One invocation, one score.
type TwoTowerRanker struct {
	art *Artifact
}

func NewTwoTowerRanker(path string) (*TwoTowerRanker, error) {
	art, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	if art.ItemTower == nil {
		return nil, fmt.Errorf("artifact %s: missing item tower", path)
	}
	return &TwoTowerRanker{art: art}, nil
}

func (m *TwoTowerRanker) Name() string { return "ranking" }

func (m *TwoTowerRanker) Infer(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	userEmb := m.art.UserTower.Encode(inputs)
	itemEmb := m.art.ItemTower.Encode(inputs)

	return map[string]any{
		repository.OutputScore: dot(userEmb, itemEmb),
	}, nil
}
