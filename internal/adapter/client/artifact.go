package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Artifact is an exported two-tower model in the serving format: linear
// tower projections plus, for retrieval artifacts, the precomputed item
// embedding table. Exported as a single model.json per artifact directory.
type Artifact struct {
	Name           string               `json:"name"`
	EmbeddingDim   int                  `json:"embedding_dim"`
	UserTower      *Tower               `json:"user_tower"`
	ItemTower      *Tower               `json:"item_tower,omitempty"`
	ItemEmbeddings map[string][]float64 `json:"item_embeddings,omitempty"`
}

// Tower maps named features into the shared embedding space. Numeric
// features are projected through per-feature weight rows; string features
// either hit a learned id embedding or fall back to a hashed bucket value.
type Tower struct {
	Dim        int                  `json:"dim"`
	Bias       []float64            `json:"bias,omitempty"`
	Weights    map[string][]float64 `json:"weights,omitempty"`
	Embeddings map[string][]float64 `json:"id_embeddings,omitempty"`
}

// LoadArtifact reads a serving artifact. The path may point at the
// model.json itself or at the artifact directory containing it.
func LoadArtifact(path string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, "model.json")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}

	var art Artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	if art.UserTower == nil {
		return nil, fmt.Errorf("artifact %s: missing user tower", path)
	}
	return &art, nil
}

// Encode folds the named features the tower knows about into one vector.
// Unknown features are ignored and missing ones simply contribute nothing.
// The model's behavior on absent fields is authoritative, there is no
// imputation upstream.
func (t *Tower) Encode(features map[string]any) []float64 {
	out := make([]float64, t.Dim)
	copy(out, t.Bias)

	for name, value := range features {
		switch v := value.(type) {
		case float64:
			t.accumulate(out, name, v)
		case int:
			t.accumulate(out, name, float64(v))
		case string:
			if v == "" {
				continue
			}
			if emb, ok := t.Embeddings[v]; ok {
				addVec(out, emb)
				continue
			}
			t.accumulate(out, name, hashBucket(v))
		}
	}
	return out
}

func (t *Tower) accumulate(out []float64, name string, v float64) {
	row, ok := t.Weights[name]
	if !ok {
		return
	}
	for i := range out {
		if i < len(row) {
			out[i] += v * row[i]
		}
	}
}

func addVec(out, vec []float64) {
	for i := range out {
		if i < len(vec) {
			out[i] += vec[i]
		}
	}
}

// hashBucket folds an arbitrary string feature into [0,1). xxhash keeps
// the value stable across processes and platforms.
func hashBucket(s string) float64 {
	return float64(xxhash.Sum64String(s)%1000) / 1000
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
