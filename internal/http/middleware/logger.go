package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	httpUtil "github.com/sifan077/VisitAudit/internal/http/util"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// probePaths are logged at debug level so orchestrator polling does not flood the log.
var probePaths = map[string]struct{}{
	"/":       {},
	"/health": {},
	"/readyz": {},
}

// Logger writes one entry per request. Server errors log at error level, client
// errors at warn, probes at debug and everything else at info.
func Logger(logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", httpUtil.ClientIP(func(name string) string { return c.Get(name) })),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}
		if rid := GetRequestID(c); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if admin := AdminIdentity(c); admin != nil {
			fields = append(fields, zap.String("admin", admin.Email))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		logger.Log(requestLevel(c.Path(), status, err), "request", fields...)
		return err
	}
}

func requestLevel(path string, status int, err error) zapcore.Level {
	switch {
	case status >= fiber.StatusInternalServerError || (err != nil && status < fiber.StatusBadRequest):
		return zapcore.ErrorLevel
	case status >= fiber.StatusBadRequest:
		return zapcore.WarnLevel
	}
	if _, ok := probePaths[path]; ok {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
