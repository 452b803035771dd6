package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Variant is one named branch of the online experiment with its share of
// the bucket space.
type Variant struct {
	Name   string
	Weight uint64
}

// Assigner deterministically buckets user ids into experiment variants.
// Assignment is a pure function of the id: xxhash is stable across
// processes and replicas, so horizontally scaled instances always agree.
type Assigner struct {
	variants []Variant
	total    uint64
}

func NewAssigner(variants []Variant) (*Assigner, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("at least one variant is required")
	}
	var total uint64
	for _, v := range variants {
		if v.Name == "" || v.Weight == 0 {
			return nil, fmt.Errorf("variant %q: name and positive weight required", v.Name)
		}
		total += v.Weight
	}
	return &Assigner{variants: variants, total: total}, nil
}

// ParseVariants parses a split definition like "A:90,B:10".
func ParseVariants(s string) ([]Variant, error) {
	var variants []Variant
	for _, part := range strings.Split(s, ",") {
		name, weight, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("malformed variant %q, want name:weight", part)
		}
		w, err := strconv.ParseUint(weight, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", name, err)
		}
		variants = append(variants, Variant{Name: name, Weight: w})
	}
	return variants, nil
}

// Assign maps a user id onto a variant. Same id, same variant, for the
// lifetime of the split definition.
func (a *Assigner) Assign(userID string) string {
	bucket := xxhash.Sum64String(userID) % a.total
	var cumulative uint64
	for _, v := range a.variants {
		cumulative += v.Weight
		if bucket < cumulative {
			return v.Name
		}
	}
	// Unreachable: bucket < total == sum of weights.
	return a.variants[len(a.variants)-1].Name
}
