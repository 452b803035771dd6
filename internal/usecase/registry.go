package usecase

import (
	"fmt"
	"time"

	"recserve/internal/domain/entity"
	"recserve/internal/domain/repository"
	"recserve/internal/metrics"

	"github.com/rs/zerolog"
)

// Canonical model names known to the registry.
const (
	ModelApproximateRetrieval = "approximate-retrieval"
	ModelExactRetrieval       = "exact-retrieval"
	ModelRanking              = "ranking"
)

// Registry holds the process-lifetime model handles. Models are loaded
// once at startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	models   map[string]repository.Model
	loadTime time.Duration
	logger   zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		models: make(map[string]repository.Model),
		logger: logger,
	}
}

// Load builds one named model and records it. A build failure records the
// model as absent rather than aborting startup; availability is checked
// per call instead. Load duration feeds the model_load_time_seconds gauge.
func (r *Registry) Load(name string, build func() (repository.Model, error)) {
	start := time.Now()
	m, err := build()
	elapsed := time.Since(start)
	r.loadTime += elapsed
	metrics.ModelLoadTime.Set(r.loadTime.Seconds())

	if err != nil {
		r.logger.Warn().Err(err).Str("model", name).Msg("model not loaded, recorded as absent")
		return
	}
	r.models[name] = m
	r.logger.Info().Str("model", name).Dur("load_time", elapsed).Msg("model loaded")
}

// Available reports whether a named model was loaded.
func (r *Registry) Available(name string) bool {
	_, ok := r.models[name]
	return ok
}

// Get returns the named model handle or an error the caller can surface.
func (r *Registry) Get(name string) (repository.Model, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, entity.ErrModelUnavailable)
	}
	return m, nil
}
