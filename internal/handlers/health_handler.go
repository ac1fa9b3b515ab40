package handlers

import (
	sharedHTTP "github.com/Frankish0014/baho-coffee-sub000/internal/shared/http"
	"github.com/gofiber/fiber/v2"
)

// Components reports which integrations have credentials.
type Components struct {
	Storage  string `json:"storage"`
	Leads    string `json:"leads"`
	Payments bool   `json:"payments"`
	Webhooks bool   `json:"webhooks"`
	Email    bool   `json:"email"`
}

type HealthHandler struct {
	service    string
	components Components
}

func NewHealthHandler(service string, components Components) *HealthHandler {
	return &HealthHandler{service: service, components: components}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	return sharedHTTP.SuccessResponse(c, "Storefront service is healthy", map[string]interface{}{
		"service":    h.service,
		"status":     "healthy",
		"components": h.components,
	})
}
