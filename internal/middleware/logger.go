package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"community-service/internal/api/response"
	"community-service/internal/apperr"
	"community-service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler recovers panics as 500 and logs every request with its
// status and latency.
func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorLogger.Error(fmt.Sprintf("Recovered from panic: %v", r),
					zap.String("stack", string(debug.Stack())))
				err = apperr.Wrap(apperr.Internal, fmt.Errorf("panic: %v", r), "Internal server error")
			}

			status := c.Response().StatusCode()
			if err != nil {
				status = response.StatusOf(err)
			}
			logger.RequestLogger.Info("Incoming request",
				zap.String("method", c.Method()),
				zap.String("url", c.OriginalURL()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.IP()),
			)
		}()
		return c.Next()
	}
}
