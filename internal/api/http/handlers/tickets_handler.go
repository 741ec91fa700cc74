package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Category:      req.Category,
		SubCategory:   req.SubCategory,
		DynamicFields: req.DynamicFields,
		Attachments:   req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"ticket": ticketResponse(ticket)},
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}

	tickets, err := h.service.ListTickets(c.UserContext(), actor, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(items),
		"data":    fiber.Map{"tickets": items},
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"ticket": ticketResponse(ticket)},
	})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), service.TicketPatch{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		Category:      req.Category,
		SubCategory:   req.SubCategory,
		DynamicFields: req.DynamicFields,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"ticket": ticketResponse(ticket)},
	})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.DeleteTicket(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"message": "ticket deleted successfully"},
	})
}

// AddResponse POST /tickets/:id/responses.
func (h *TicketsHandler) AddResponse(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AddResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.AddResponse(c.UserContext(), actor, c.Params("id"), req.Message, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"ticket": ticketResponse(ticket)},
	})
}

// AssignTicket PUT /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	ticket, err := h.service.AssignTicket(c.UserContext(), actor, c.Params("id"), service.AssignmentInput{
		TechnicianID:    req.TechnicianID,
		TechnicianName:  req.TechnicianName,
		TechnicianEmail: req.TechnicianEmail,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"ticket": ticketResponse(ticket)},
	})
}

// GetStats GET /tickets/stats.
func (h *TicketsHandler) GetStats(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	stats, err := h.service.GetStats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{"stats": dto.StatsResponse{
			StatusStats:   groupCounts(stats.ByStatus),
			PriorityStats: groupCounts(stats.ByPriority),
			CategoryStats: groupCounts(stats.ByCategory),
		}},
	})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if val := c.Query("status"); val != "" {
		status := domain.TicketStatus(val)
		filter.Status = &status
	}
	if val := c.Query("priority"); val != "" {
		priority := domain.TicketPriority(val)
		filter.Priority = &priority
	}
	if val := c.Query("category"); val != "" {
		category := val
		filter.Category = &category
	}
	if val := c.Query("search"); val != "" {
		search := val
		filter.Search = &search
	}
	return filter
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	responses := ticket.Responses
	if responses == nil {
		responses = []domain.TicketResponse{}
	}
	attachments := ticket.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return dto.TicketResponse{
		TicketID:                ticket.TicketID,
		Title:                   ticket.Title,
		Description:             ticket.Description,
		Status:                  ticket.Status,
		Priority:                ticket.Priority,
		Category:                ticket.Category,
		SubCategory:             ticket.SubCategory,
		ClientName:              ticket.ClientName,
		ClientEmail:             ticket.ClientEmail,
		ClientPhone:             ticket.ClientPhone,
		Department:              ticket.Department,
		AssignedTo:              ticket.AssignedTo,
		AssignedTechnicianName:  ticket.AssignedTechnicianName,
		AssignedTechnicianEmail: ticket.AssignedTechnicianEmail,
		Responses:               responses,
		Attachments:             attachments,
		DynamicFields:           ticket.DynamicFields,
		LastResponseBy:          ticket.LastResponseBy,
		LastResponseAt:          ticket.LastResponseAt,
		CreatedAt:               ticket.CreatedAt,
		UpdatedAt:               ticket.UpdatedAt,
	}
}

func groupCounts(counts []repository.GroupCount) []dto.GroupCountResponse {
	out := make([]dto.GroupCountResponse, 0, len(counts))
	for _, gc := range counts {
		out = append(out, dto.GroupCountResponse{Key: gc.Key, Count: gc.Count})
	}
	return out
}
