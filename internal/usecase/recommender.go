package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"recserve/internal/domain/entity"
	"recserve/internal/domain/repository"
	"recserve/internal/metrics"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Recommender coordinates the two-stage serving path: candidate retrieval
// and per-pair ranking. The two operations are independent entry points;
// callers compose them so item metadata can be attached between stages.
type Recommender struct {
	registry    *Registry
	assigner    *Assigner
	tracker     *UserTracker
	predictions repository.PredictionStore
	cache       repository.RetrievalCache // nil disables the result cache
	modelGuard  callGuard
	storeGuard  callGuard
	logger      zerolog.Logger
}

func NewRecommender(
	registry *Registry,
	assigner *Assigner,
	tracker *UserTracker,
	predictions repository.PredictionStore,
	cache repository.RetrievalCache,
	modelTimeout, storeTimeout time.Duration,
	logger zerolog.Logger,
) *Recommender {
	if modelTimeout <= 0 {
		modelTimeout = 5 * time.Second
	}
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}
	return &Recommender{
		registry:    registry,
		assigner:    assigner,
		tracker:     tracker,
		predictions: predictions,
		cache:       cache,
		modelGuard:  callGuard{timeout: modelTimeout, target: "model"},
		storeGuard:  callGuard{timeout: storeTimeout, target: "storage"},
		logger:      logger,
	}
}

// Retrieve produces up to k candidate item ids for the user, in the order
// reported by the selected index.
//
// Strategy selection: an approximate request falls through to the exact
// index when the approximate one is absent, but an exact request with no
// exact index fails outright. Fallback in the other direction would mix
// non-interchangeable result populations into the experiment logs, so it
// stays an explicit caller decision.
func (r *Recommender) Retrieve(ctx context.Context, user entity.User, k int, approximate bool) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", k, entity.ErrInvalidArgument)
	}
	r.tracker.Track(user.UserID)

	variant := r.assigner.Assign(user.UserID)

	name := ModelExactRetrieval
	if approximate && r.registry.Available(ModelApproximateRetrieval) {
		name = ModelApproximateRetrieval
	}
	model, err := r.registry.Get(name)
	if err != nil {
		return nil, err
	}

	key := retrievalCacheKey(name, user, k)
	if ids := r.cacheLookup(ctx, key); ids != nil {
		return ids, nil
	}

	inputs := user.Features()
	inputs[repository.InputTopK] = k

	out, err := r.modelGuard.infer(ctx, model, inputs)
	if err != nil {
		return nil, err
	}

	ids, ok := out[repository.OutputIDs].([]string)
	if !ok {
		return nil, fmt.Errorf("model %s: unexpected identifier output", name)
	}
	if len(ids) > k {
		ids = ids[:k]
	}

	// Companion affinities are not used downstream yet; surface them in
	// debug logs so they stay reachable for diagnosis.
	if affinities, ok := out[repository.OutputAffinities].([]float64); ok {
		r.logger.Debug().
			Str("user_id", user.UserID).
			Str("variant", variant).
			Str("model", name).
			Floats64("affinities", affinities).
			Msg("retrieval served")
	}

	r.cacheStore(key, ids)
	return ids, nil
}

// Rank scores every candidate for the user and persists the batch for
// offline evaluation. The ranking model scores one (user, item) pair per
// invocation; the first failure aborts the batch, so no partial mapping is
// ever returned as success.
func (r *Recommender) Rank(ctx context.Context, user entity.User, movies []entity.Movie) (map[string]float64, error) {
	r.tracker.Track(user.UserID)
	variant := r.assigner.Assign(user.UserID)

	model, err := r.registry.Get(ModelRanking)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(movies))
	preds := make([]entity.Prediction, 0, len(movies))
	batchID := uuid.NewString()

	for _, movie := range movies {
		inputs := user.Features()
		for name, value := range movie.Features() {
			inputs[name] = value
		}

		out, err := r.modelGuard.infer(ctx, model, inputs)
		if err != nil {
			return nil, err
		}
		score, ok := out[repository.OutputScore].(float64)
		if !ok {
			return nil, fmt.Errorf("model %s: unexpected score output", ModelRanking)
		}

		scores[movie.MovieID] = score
		preds = append(preds, entity.Prediction{
			UserID:       user.UserID,
			ItemID:       movie.MovieID,
			ModelVersion: variant,
			Score:        score,
			BatchID:      batchID,
		})
	}

	// Losing an analytics record must not degrade the serving path: log
	// failures are reported through telemetry, never to the caller.
	err = r.storeGuard.run(ctx, func(cctx context.Context) error {
		return r.predictions.InsertBatch(cctx, preds)
	})
	if err != nil {
		metrics.PredictionLogFailures.Inc()
		r.logger.Warn().Err(err).
			Str("user_id", user.UserID).
			Str("variant", variant).
			Int("records", len(preds)).
			Msg("prediction batch not persisted")
	}

	return scores, nil
}

// TrackedUsers exposes the unique-user count for diagnostics.
func (r *Recommender) TrackedUsers() int {
	return r.tracker.Count()
}

func (r *Recommender) cacheLookup(ctx context.Context, key string) []string {
	if r.cache == nil {
		return nil
	}
	ids, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Debug().Err(err).Msg("retrieval cache lookup failed")
		return nil
	}
	if ids == nil {
		metrics.RetrievalCacheMisses.Inc()
		return nil
	}
	metrics.RetrievalCacheHits.Inc()
	return ids
}

func (r *Recommender) cacheStore(key string, ids []string) {
	if r.cache == nil {
		return
	}
	// Off the request path; the request context may already be gone.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.cache.Set(ctx, key, ids); err != nil {
			r.logger.Debug().Err(err).Msg("retrieval cache store failed")
		}
	}()
}

// retrievalCacheKey fingerprints the selected index plus every feature
// that shapes the result. Model state is fixed for the process lifetime,
// so identical fingerprints yield identical results.
func retrievalCacheKey(model string, user entity.User, k int) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%s|%d|%s|%g|%d|%d",
		model, user.UserID, user.Gender, user.ZipCode,
		user.BucketizedAge, user.OccupationLabel, k)
	return "retrieval:" + strconv.FormatUint(h.Sum64(), 16)
}
