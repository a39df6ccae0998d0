package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketflow/helpdesk/internal/api/dto"
	"github.com/ticketflow/helpdesk/internal/auth"
	"github.com/ticketflow/helpdesk/internal/repository"
	"github.com/ticketflow/helpdesk/internal/service"
	"github.com/ticketflow/helpdesk/pkg/apperrors"
)

// TicketsHandler manages the ticket lifecycle endpoints. Visibility
// and permission rules live in the service's policy checks; handlers
// only parse and render.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid payload")
	}
	ticket, err := h.service.CreateTicket(c.Context(), principal.Actor(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		PriorityID:  req.PriorityID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseListQuery(c)
	tickets, err := h.service.ListTickets(c.Context(), principal.Actor(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.TicketFromDomain(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, comments, err := h.service.GetTicket(c.Context(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	detail := dto.TicketDetailResponse{
		TicketResponse: dto.TicketFromDomain(ticket),
		Comments:       make([]dto.CommentResponse, 0, len(comments)),
	}
	for i := range comments {
		detail.Comments = append(detail.Comments, dto.CommentFromDomain(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": detail})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid payload")
	}
	comment, err := h.service.AddComment(c.Context(), principal.Actor(), c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CommentFromDomain(comment)})
}

// ChangeStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid payload")
	}
	ticket, err := h.service.ChangeStatus(c.Context(), principal.Actor(), c.Params("id"), req.StatusID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ChangePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) ChangePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid payload")
	}
	ticket, err := h.service.ChangePriority(c.Context(), principal.Actor(), c.Params("id"), req.PriorityID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Assign PATCH /tickets/:id/assignee.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid payload")
	}
	ticket, err := h.service.Assign(c.Context(), principal.Actor(), c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Catalog GET /tickets/catalog.
func (h *TicketsHandler) Catalog(c *fiber.Ctx) error {
	priorities, err := h.service.ListPriorities(c.Context())
	if err != nil {
		return err
	}
	statuses, err := h.service.ListStatuses(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CatalogResponse{Priorities: priorities, Statuses: statuses}})
}

// DashboardStats GET /dashboard/stats.
func (h *TicketsHandler) DashboardStats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.DashboardStats(c.Context(), principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

func parseListQuery(c *fiber.Ctx) service.ListFilter {
	filter := service.ListFilter{}
	switch c.Query("status") {
	case "open":
		filter.Status = repository.StatusOpenOnly
	case "closed":
		filter.Status = repository.StatusClosedOnly
	default:
		filter.Status = repository.StatusAny
	}
	switch c.Query("assignment") {
	case "unassigned":
		filter.Assignment = repository.AssignmentUnassigned
	case "assigned":
		filter.Assignment = repository.AssignmentAssigned
	case "mine":
		filter.Assignment = repository.AssignmentMine
	default:
		filter.Assignment = repository.AssignmentAny
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
