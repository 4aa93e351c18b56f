package handler

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/internal/app/model"
	"github.com/sifan077/VisitAudit/internal/app/service"
	httpUtil "github.com/sifan077/VisitAudit/internal/http/util"
	infraPrometheus "github.com/sifan077/VisitAudit/internal/infra/prometheus"
	"go.uber.org/zap"
)

// VisitDeps groups dependencies required by the ingestion handler.
type VisitDeps struct {
	Logger       *zap.Logger
	VisitService service.VisitService
	Metrics      *infraPrometheus.Metrics
}

// VisitHandler accepts visit records from the collector.
type VisitHandler struct {
	logger  *zap.Logger
	visits  service.VisitService
	metrics *infraPrometheus.Metrics
}

// NewVisitHandler creates a visit handler with the provided dependencies.
func NewVisitHandler(deps VisitDeps) *VisitHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitHandler{
		logger:  logger,
		visits:  deps.VisitService,
		metrics: deps.Metrics,
	}
}

// Register wires ingestion routes onto the provided router.
func (h *VisitHandler) Register(router fiber.Router) {
	router.Post("/api/log-unsubscribe", h.LogVisit)
}

// LogVisit handles POST /api/log-unsubscribe. The body is parsed as JSON whatever the
// declared content type.
func (h *VisitHandler) LogVisit(c *fiber.Ctx) error {
	var visit model.VisitRecord
	if err := json.Unmarshal(c.Body(), &visit); err != nil {
		h.metrics.Ingested(infraPrometheus.OutcomeMalformed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid visit payload",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	stored, err := h.visits.Ingest(ctx, service.IngestInput{
		Visit:     &visit,
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Network:   httpUtil.NetworkFromHeaders(func(name string) string { return c.Get(name) }),
	})
	if err != nil {
		h.logger.Error("failed to log visit", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to log visit",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Visit logged successfully",
		"timestamp": stored.ServerTimestamp.UTC().Format(time.RFC3339Nano),
	})
}
