package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm/internal/api/dto"
	"github.com/spec-kit/crm/internal/repository"
	"github.com/spec-kit/crm/internal/service"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// RecordsHandler exposes read-only listings of contracts, events and collaborators.
type RecordsHandler struct {
	contracts     *service.ContractService
	events        *service.EventService
	collaborators *service.CollaboratorService
}

// NewRecordsHandler constructs handler.
func NewRecordsHandler(contracts *service.ContractService, events *service.EventService, collaborators *service.CollaboratorService) *RecordsHandler {
	return &RecordsHandler{contracts: contracts, events: events, collaborators: collaborators}
}

// ListContracts GET /contracts.
func (h *RecordsHandler) ListContracts(c *fiber.Ctx) error {
	filter := repository.ContractFilter{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	clientID, err := optionalID(c, "client_id")
	if err != nil {
		return err
	}
	filter.ClientID = clientID
	if raw := c.Query("signed"); raw != "" {
		signed := c.QueryBool("signed")
		filter.Signed = &signed
	}
	contracts, err := h.contracts.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromContracts(contracts)})
}

// ListEvents GET /events.
func (h *RecordsHandler) ListEvents(c *fiber.Ctx) error {
	filter := repository.EventFilter{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	id, err := optionalID(c, "contract_id")
	if err != nil {
		return err
	}
	filter.ContractID = id
	list, err := h.events.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromEvents(list)})
}

// ListCollaborators GET /collaborators.
func (h *RecordsHandler) ListCollaborators(c *fiber.Ctx) error {
	users, err := h.collaborators.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromUsers(users)})
}

func optionalID(c *fiber.Ctx, key string) (*int64, error) {
	if c.Query(key) == "" {
		return nil, nil
	}
	id := int64(c.QueryInt(key))
	if id <= 0 {
		return nil, apperrors.NewValidationError(key+" must be a positive integer", nil)
	}
	return &id, nil
}
