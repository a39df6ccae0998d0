package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticketflow/helpdesk/internal/api/dto"
	"github.com/ticketflow/helpdesk/internal/auth"
	"github.com/ticketflow/helpdesk/internal/service"
	"github.com/ticketflow/helpdesk/pkg/apperrors"
)

// UsersHandler manages the admin account endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// ListUsers GET /admin/users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	users, roleCounts, err := h.service.ListUsers(c.Context(), principal.Actor())
	if err != nil {
		return err
	}
	resp := dto.UsersListResponse{
		Users:      make([]dto.UserWithStatsResponse, 0, len(users)),
		RoleCounts: make(map[string]int, len(roleCounts)),
	}
	for i := range users {
		resp.Users = append(resp.Users, dto.UserWithStatsFromDomain(&users[i]))
	}
	for role, count := range roleCounts {
		resp.RoleCounts[string(role)] = count
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetUser GET /admin/users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := h.service.GetUser(c.Context(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}

// ChangeRole PATCH /admin/users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidation("invalid payload")
	}
	user, err := h.service.ChangeRole(c.Context(), principal.Actor(), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserFromDomain(user)})
}

// DeleteUser DELETE /admin/users/:id.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteUser(c.Context(), principal.Actor(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
