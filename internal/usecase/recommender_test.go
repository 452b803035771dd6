package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"recserve/internal/domain/entity"
	"recserve/internal/domain/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPredictionStore struct {
	mu      sync.Mutex
	batches [][]entity.Prediction
	err     error
}

func (s *memPredictionStore) InsertBatch(ctx context.Context, preds []entity.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]entity.Prediction, len(preds))
	copy(batch, preds)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *memPredictionStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func testUser() entity.User {
	return entity.User{
		UserID:          "138",
		Gender:          1,
		ZipCode:         "53211",
		BucketizedAge:   45.0,
		OccupationLabel: 4,
	}
}

func newTestRecommender(t *testing.T, registry *Registry, store repository.PredictionStore) *Recommender {
	t.Helper()
	variants, err := ParseVariants("A:90,B:10")
	require.NoError(t, err)
	assigner, err := NewAssigner(variants)
	require.NoError(t, err)
	return NewRecommender(registry, assigner, NewUserTracker(), store, nil, 0, 0, zerolog.Nop())
}

func retrievalStub(name string, ids []string) stubModel {
	return stubModel{
		name: name,
		fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			affinities := make([]float64, len(ids))
			for i := range ids {
				affinities[i] = 1.0 - float64(i)*0.1
			}
			return map[string]any{
				repository.OutputIDs:        ids,
				repository.OutputAffinities: affinities,
			}, nil
		},
	}
}

func TestRetrieveRejectsNonPositiveK(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelExactRetrieval, func() (repository.Model, error) {
		return retrievalStub(ModelExactRetrieval, []string{"1"}), nil
	})
	rec := newTestRecommender(t, registry, &memPredictionStore{})

	_, err := rec.Retrieve(context.Background(), testUser(), 0, false)
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)

	_, err = rec.Retrieve(context.Background(), testUser(), -3, true)
	assert.ErrorIs(t, err, entity.ErrInvalidArgument)
}

func TestRetrieveFailsWhenExactIndexAbsent(t *testing.T) {
	store := &memPredictionStore{}
	rec := newTestRecommender(t, NewRegistry(zerolog.Nop()), store)

	_, err := rec.Retrieve(context.Background(), testUser(), 10, false)
	assert.ErrorIs(t, err, entity.ErrModelUnavailable)
	assert.Zero(t, store.batchCount(), "a failed retrieval leaves no log records")
}

func TestRetrieveExactRequestNeverFallsBackToApproximate(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelApproximateRetrieval, func() (repository.Model, error) {
		return retrievalStub(ModelApproximateRetrieval, []string{"1"}), nil
	})
	rec := newTestRecommender(t, registry, &memPredictionStore{})

	_, err := rec.Retrieve(context.Background(), testUser(), 10, false)
	assert.ErrorIs(t, err, entity.ErrModelUnavailable)
}

func TestRetrieveApproximateRequestFallsThroughToExact(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelExactRetrieval, func() (repository.Model, error) {
		return retrievalStub(ModelExactRetrieval, []string{"7", "8"}), nil
	})
	rec := newTestRecommender(t, registry, &memPredictionStore{})

	ids, err := rec.Retrieve(context.Background(), testUser(), 10, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8"}, ids)
}

func TestRetrievePrefersApproximateWhenPresent(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelApproximateRetrieval, func() (repository.Model, error) {
		return retrievalStub(ModelApproximateRetrieval, []string{"approx"}), nil
	})
	registry.Load(ModelExactRetrieval, func() (repository.Model, error) {
		return retrievalStub(ModelExactRetrieval, []string{"exact"}), nil
	})
	rec := newTestRecommender(t, registry, &memPredictionStore{})

	ids, err := rec.Retrieve(context.Background(), testUser(), 5, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"approx"}, ids)

	ids, err = rec.Retrieve(context.Background(), testUser(), 5, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"exact"}, ids)
}

func TestRetrievePreservesOrderAndHonorsK(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelExactRetrieval, func() (repository.Model, error) {
		return retrievalStub(ModelExactRetrieval, []string{"5", "3", "9", "1", "4"}), nil
	})
	rec := newTestRecommender(t, registry, &memPredictionStore{})

	ids, err := rec.Retrieve(context.Background(), testUser(), 3, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "3", "9"}, ids)

	// Identical input against unchanged model state yields identical output.
	again, err := rec.Retrieve(context.Background(), testUser(), 3, false)
	require.NoError(t, err)
	assert.Equal(t, ids, again)
}

func TestRetrieveMapsDeadlineToUpstreamTimeout(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelExactRetrieval, func() (repository.Model, error) {
		return stubModel{
			name: ModelExactRetrieval,
			fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Second):
					return nil, nil
				}
			},
		}, nil
	})

	variants, err := ParseVariants("A:90,B:10")
	require.NoError(t, err)
	assigner, err := NewAssigner(variants)
	require.NoError(t, err)
	rec := NewRecommender(registry, assigner, NewUserTracker(), &memPredictionStore{}, nil,
		10*time.Millisecond, time.Second, zerolog.Nop())

	_, err = rec.Retrieve(context.Background(), testUser(), 5, false)
	assert.ErrorIs(t, err, entity.ErrUpstreamTimeout)
}

func rankingStub(t *testing.T, failOn string) stubModel {
	t.Helper()
	return stubModel{
		name: ModelRanking,
		fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
			id, _ := inputs["movie_id"].(string)
			if failOn != "" && id == failOn {
				return nil, fmt.Errorf("scoring %s failed", id)
			}
			// Score derived from the pair so assertions can recompute it.
			return map[string]any{repository.OutputScore: float64(len(id)) + 0.5}, nil
		},
	}
}

func testMovies(ids ...string) []entity.Movie {
	movies := make([]entity.Movie, len(ids))
	for i, id := range ids {
		movies[i] = entity.Movie{MovieID: id, Title: "Movie " + id, ReleaseYear: "1998"}
	}
	return movies
}

func TestRankScoresEveryCandidateAndLogsBatch(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelRanking, func() (repository.Model, error) {
		return rankingStub(t, ""), nil
	})
	store := &memPredictionStore{}
	rec := newTestRecommender(t, registry, store)

	user := testUser()
	scores, err := rec.Rank(context.Background(), user, testMovies("1", "22", "333"))
	require.NoError(t, err)

	require.Len(t, scores, 3)
	assert.Equal(t, 1.5, scores["1"])
	assert.Equal(t, 2.5, scores["22"])
	assert.Equal(t, 3.5, scores["333"])

	require.Equal(t, 1, store.batchCount(), "one ranking call, one batch")
	batch := store.batches[0]
	require.Len(t, batch, 3)

	variants, _ := ParseVariants("A:90,B:10")
	assigner, _ := NewAssigner(variants)
	wantVariant := assigner.Assign(user.UserID)
	for _, p := range batch {
		assert.Equal(t, user.UserID, p.UserID)
		assert.Equal(t, wantVariant, p.ModelVersion)
		assert.Equal(t, scores[p.ItemID], p.Score)
		assert.Equal(t, batch[0].BatchID, p.BatchID, "all rows share the call's batch id")
	}
}

func TestRankAbortsBatchOnModelFailure(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelRanking, func() (repository.Model, error) {
		return rankingStub(t, "B"), nil
	})
	store := &memPredictionStore{}
	rec := newTestRecommender(t, registry, store)

	scores, err := rec.Rank(context.Background(), testUser(), testMovies("A", "B", "C"))
	assert.Error(t, err)
	assert.Nil(t, scores, "no partial mapping is returned as success")
	assert.Zero(t, store.batchCount(), "aborted batches are not persisted")
}

func TestRankStillAnswersWhenPersistenceFails(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	registry.Load(ModelRanking, func() (repository.Model, error) {
		return rankingStub(t, ""), nil
	})
	store := &memPredictionStore{
		err: fmt.Errorf("%w: connection refused", entity.ErrPersistenceFailure),
	}
	rec := newTestRecommender(t, registry, store)

	scores, err := rec.Rank(context.Background(), testUser(), testMovies("1", "22"))
	require.NoError(t, err, "losing the analytics log must not degrade serving")
	assert.Len(t, scores, 2)
}

func TestRankFailsWhenRankingModelAbsent(t *testing.T) {
	rec := newTestRecommender(t, NewRegistry(zerolog.Nop()), &memPredictionStore{})

	_, err := rec.Rank(context.Background(), testUser(), testMovies("1"))
	assert.ErrorIs(t, err, entity.ErrModelUnavailable)
}

func TestTrackerCountsConcurrentDistinctUsers(t *testing.T) {
	tracker := NewUserTracker()

	const users = 100
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			// Hammer the same id from several goroutines too.
			for j := 0; j < 5; j++ {
				tracker.Track(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, users, tracker.Count(), "no lost updates, no double counting")
}
