package api

import (
	"errors"
	"time"

	"recserve/internal/domain/entity"
	"recserve/internal/metrics"
	"recserve/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RecommendHandler is the HTTP boundary for the two-stage pipeline.
type RecommendHandler struct {
	recommender *usecase.Recommender
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewRecommendHandler(recommender *usecase.Recommender, logger zerolog.Logger) *RecommendHandler {
	return &RecommendHandler{
		recommender: recommender,
		validate:    validator.New(),
		logger:      logger,
	}
}

func (h *RecommendHandler) Healthcheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON("OK")
}

// Retrieval returns up to top_k candidate item ids for the user profile
// in the request body.
func (h *RecommendHandler) Retrieval(c *fiber.Ctx) error {
	start := time.Now()
	metrics.RecommendationRequests.WithLabelValues("retrieval").Inc()
	defer func() {
		metrics.RecommendationLatency.WithLabelValues("retrieval").Observe(time.Since(start).Seconds())
	}()

	var user entity.User
	if err := c.BodyParser(&user); err != nil {
		return badRequest(c, "invalid user profile")
	}
	if err := h.validate.Struct(user); err != nil {
		return badRequest(c, err.Error())
	}

	topK := c.QueryInt("top_k", 10)
	approximate := c.QueryBool("approximate", true)

	ids, err := h.recommender.Retrieve(c.UserContext(), user, topK, approximate)
	if err != nil {
		return h.fail(c, "retrieval", err)
	}
	return c.Status(fiber.StatusOK).JSON(ids)
}

type rankingRequest struct {
	Movies []entity.Movie `json:"movies" validate:"required,min=1,dive"`
	User   entity.User    `json:"user" validate:"required"`
}

// Ranking scores each candidate movie for the user and returns the
// id-to-score mapping. Callers sort if they need an ordering.
func (h *RecommendHandler) Ranking(c *fiber.Ctx) error {
	start := time.Now()
	metrics.RecommendationRequests.WithLabelValues("ranking").Inc()
	defer func() {
		metrics.RecommendationLatency.WithLabelValues("ranking").Observe(time.Since(start).Seconds())
	}()

	var req rankingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid ranking request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	scores, err := h.recommender.Rank(c.UserContext(), req.User, req.Movies)
	if err != nil {
		return h.fail(c, "ranking", err)
	}
	return c.Status(fiber.StatusOK).JSON(scores)
}

// fail maps domain errors onto HTTP status codes.
func (h *RecommendHandler) fail(c *fiber.Ctx, endpoint string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	case errors.Is(err, entity.ErrModelUnavailable):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, entity.ErrUpstreamTimeout):
		status = fiber.StatusGatewayTimeout
	}

	if status >= fiber.StatusInternalServerError {
		h.logger.Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
