package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/repository"
	"github.com/spec-kit/crm/internal/service"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// ClientsHandler exposes client endpoints.
type ClientsHandler struct {
	service *service.ClientService
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService) *ClientsHandler {
	return &ClientsHandler{service: clientService}
}

// CreateClient POST /clients.
func (h *ClientsHandler) CreateClient(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("collaborator required")
	}
	var req dto.CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	client, err := h.service.Create(c.UserContext(), principal.ID, service.ClientInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromClient(client)})
}

// ListClients GET /clients. ?mine=true restricts to the caller's clients.
func (h *ClientsHandler) ListClients(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("collaborator required")
	}
	filter := repository.ClientFilter{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	if c.QueryBool("mine") {
		filter.CommercialContactID = &principal.ID
	}
	clients, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromClients(clients)})
}
