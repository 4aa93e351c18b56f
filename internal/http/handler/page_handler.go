package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/internal/http/view"
	"go.uber.org/zap"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// PageDeps groups dependencies required by page and probe handlers.
type PageDeps struct {
	Logger   *zap.Logger
	SiteName string
	Checks   map[string]ReadinessCheck
}

// PageHandler serves the unsubscribe page and the health probes.
type PageHandler struct {
	logger   *zap.Logger
	siteName string
	checks   map[string]ReadinessCheck
}

// NewPageHandler creates a page handler with the provided dependencies.
func NewPageHandler(deps PageDeps) *PageHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	siteName := deps.SiteName
	if siteName == "" {
		siteName = "VisitAudit"
	}
	return &PageHandler{logger: logger, siteName: siteName, checks: deps.Checks}
}

// Register wires page routes onto the provided router.
func (h *PageHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/readyz", h.Ready)
	router.Get("/unsubscribe", h.Unsubscribe)
}

// Health is a simple root endpoint so we know the service is running.
func (h *PageHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "VisitAudit",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready runs every readiness check and answers 503 when any fails.
func (h *PageHandler) Ready(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	status := fiber.StatusOK
	results := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = "unavailable"
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "unavailable"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": results,
	})
}

// Unsubscribe renders the confirmation page carrying the collector script. Rendering
// never depends on whether the visit is later recorded.
func (h *PageHandler) Unsubscribe(c *fiber.Ctx) error {
	html, err := view.RenderUnsubscribePage(view.UnsubscribePageData{
		SiteName: h.siteName,
	})
	if err != nil {
		h.logger.Error("failed to render unsubscribe page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to render page",
		})
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}
