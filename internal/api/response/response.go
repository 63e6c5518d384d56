// Package response writes every reply in the same envelope:
// {"message", "success", "status", "data"?, "errors"?}.
package response

import (
	"errors"
	"fmt"

	"community-service/internal/apperr"
	"community-service/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Envelope struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func JSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Message: message, Success: true, Status: status, Data: data})
}

func OK(c *fiber.Ctx, message string, data any) error {
	return JSON(c, fiber.StatusOK, message, data)
}

func Created(c *fiber.Ctx, message string, data any) error {
	return JSON(c, fiber.StatusCreated, message, data)
}

// StatusOf maps an error to the HTTP status it is rendered with.
func StatusOf(err error) int {
	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.As(err, &fe):
		return fe.Code
	default:
		return apperr.StatusCode(err)
	}
}

// Error renders err. It is also installed as the fiber ErrorHandler.
func Error(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	body := Envelope{Status: status, Message: apperr.Message(err)}

	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		body.Message = "Validation error"
		body.Errors = fieldErrors(ve)
	case errors.As(err, &fe):
		body.Message = fe.Message
	}

	switch {
	case status >= fiber.StatusInternalServerError:
		logger.ErrorLogger.Error("Request failed",
			zap.String("method", c.Method()), zap.String("url", c.OriginalURL()), zap.Error(err))
	case status == fiber.StatusUnauthorized || status == fiber.StatusForbidden:
		logger.SecurityLogger.Warn(body.Message,
			zap.String("method", c.Method()), zap.String("url", c.OriginalURL()), zap.String("ip", c.IP()))
	}
	return c.Status(status).JSON(body)
}

func fieldErrors(ve validator.ValidationErrors) []string {
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return out
}
