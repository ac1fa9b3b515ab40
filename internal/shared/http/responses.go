package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
}

type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return respond(c, fiber.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func CreatedResponse(c *fiber.Ctx, message string, data interface{}) error {
	return respond(c, fiber.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

func BadRequestResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return ErrorResponse(c, fiber.StatusBadRequest, "BAD_REQUEST", message, details)
}

func ValidationErrorResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return ErrorResponse(c, fiber.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", message, nil)
}

func InternalServerErrorResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message, details)
}

// ConfigurationErrorResponse is returned when a required credential or
// connection string is missing. The message is meant for the site admin.
func ConfigurationErrorResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return ErrorResponse(c, fiber.StatusInternalServerError, "CONFIGURATION_ERROR", message, details)
}

func BadGatewayResponse(c *fiber.Ctx, message string, details map[string]interface{}) error {
	return ErrorResponse(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", message, details)
}

func ErrorResponse(c *fiber.Ctx, status int, code, message string, details map[string]interface{}) error {
	return respond(c, status, APIResponse{
		Message: message,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

func respond(c *fiber.Ctx, status int, body APIResponse) error {
	body.Timestamp = time.Now().UTC()
	body.RequestID = requestID(c)
	return c.Status(status).JSON(body)
}

// requestID prefers the caller's header, then the requestid middleware, and
// mints one as a last resort so every envelope is traceable.
func requestID(c *fiber.Ctx) string {
	if id := c.Get(requestIDHeader); id != "" {
		return id
	}
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}

	id := uuid.New().String()
	c.Set(requestIDHeader, id)
	return id
}
