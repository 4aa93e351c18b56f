package handler

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/VisitAudit/internal/app/service"
	"github.com/sifan077/VisitAudit/internal/http/middleware"
	httpUtil "github.com/sifan077/VisitAudit/internal/http/util"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by admin handlers.
type AdminDeps struct {
	Logger           *zap.Logger
	AuthService      service.AuthService
	VisitService     service.VisitService
	AnalyticsService service.AnalyticsService
}

// AdminHandler implements login, token verification and the gated query endpoints.
type AdminHandler struct {
	logger    *zap.Logger
	auth      service.AuthService
	visits    service.VisitService
	analytics service.AnalyticsService
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger:    logger,
		auth:      deps.AuthService,
		visits:    deps.VisitService,
		analytics: deps.AnalyticsService,
	}
}

// Register wires admin routes onto the provided router.
func (h *AdminHandler) Register(router fiber.Router) {
	requireAdmin := middleware.RequireAdmin(h.auth)

	api := router.Group("/api")
	{
		admin := api.Group("/admin")
		{
			admin.Post("/login", h.Login)
			admin.Get("/verify", requireAdmin, h.Verify)
			admin.Get("/unsubscribe-logs", requireAdmin, h.ListLogs)
		}
		api.Get("/unsubscribe-analytics", requireAdmin, h.Analytics)
	}
}

// LoginRequest represents the request body for an admin login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	res, err := h.auth.Login(h.ctx(c), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        httpUtil.ClientIP(func(name string) string { return c.Get(name) }),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid email or password",
			})
		}
		h.logger.Error("admin login failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   res.Token,
		"message": "Login successful",
	})
}

// Verify handles GET /api/admin/verify
func (h *AdminHandler) Verify(c *fiber.Ctx) error {
	identity := middleware.AdminIdentity(c)
	return c.JSON(fiber.Map{
		"success": true,
		"email":   identity.Email,
		"role":    identity.Role,
		"exp":     identity.Exp,
	})
}

// ListLogs handles GET /api/admin/unsubscribe-logs
func (h *AdminHandler) ListLogs(c *fiber.Ctx) error {
	logs, err := h.visits.List(h.ctx(c))
	if err != nil {
		h.logger.Error("failed to fetch visit logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch logs",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"logs":    logs,
		"total":   len(logs),
	})
}

// Analytics handles GET /api/unsubscribe-analytics
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	summary, err := h.analytics.Summary(h.ctx(c))
	if err != nil {
		h.logger.Error("failed to build analytics summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to fetch analytics",
		})
	}
	return c.JSON(summary)
}

func (h *AdminHandler) ctx(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
