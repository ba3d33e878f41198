package handlers

import (
	"errors"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/core/services"
	"koperasi-bci/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SavingHandler handles savings endpoints
type SavingHandler struct {
	savingService *services.SavingService
	userService   *services.UserService
}

// NewSavingHandler creates a new saving handler
func NewSavingHandler(savingService *services.SavingService, userService *services.UserService) *SavingHandler {
	return &SavingHandler{savingService: savingService, userService: userService}
}

// Deposit records a savings deposit
// @Summary Deposit savings
// @Description Record a pokok, wajib or sukarela deposit for the caller
// @Tags Savings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.DepositInput true "Deposit data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /savings [post]
func (h *SavingHandler) Deposit(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.DepositInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	saving, err := h.savingService.Deposit(c.Context(), userID, &input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to record deposit")
	}

	return response.Created(c, "Deposit recorded", saving.ToResponse())
}

// History lists the caller's deposits
// @Summary List my savings history
// @Tags Savings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /savings [get]
func (h *SavingHandler) History(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	savings, err := h.savingService.History(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list savings")
	}

	responses := make([]*models.SavingResponse, len(savings))
	for i, saving := range savings {
		responses[i] = saving.ToResponse()
	}

	return response.Success(c, "Savings retrieved successfully", responses)
}

// Balance sums the caller's savings per type
// @Summary Get my savings balance
// @Tags Savings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /savings/balance [get]
func (h *SavingHandler) Balance(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	balance, err := h.savingService.Balance(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to get savings balance")
	}

	return response.Success(c, "Savings balance retrieved successfully", balance)
}

// AdminDeposit records a deposit on behalf of a member
// @Summary Record a member deposit (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body services.DepositInput true "Deposit data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/savings [post]
func (h *SavingHandler) AdminDeposit(c *fiber.Ctx) error {
	userID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	if _, err := h.userService.GetUserByID(c.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Member not found")
		}
		return response.InternalServerError(c, "Failed to record deposit")
	}

	var input services.DepositInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	saving, err := h.savingService.Deposit(c.Context(), userID, &input)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to record deposit")
	}

	return response.Created(c, "Deposit recorded", saving.ToResponse())
}

// AdminHistory lists a member's deposits
// @Summary List a member's savings history (admin)
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/savings [get]
func (h *SavingHandler) AdminHistory(c *fiber.Ctx) error {
	userID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	if _, err := h.userService.GetUserByID(c.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Member not found")
		}
		return response.InternalServerError(c, "Failed to list savings")
	}

	savings, err := h.savingService.History(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list savings")
	}

	responses := make([]*models.SavingResponse, len(savings))
	for i, saving := range savings {
		responses[i] = saving.ToResponse()
	}

	return response.Success(c, "Savings retrieved successfully", responses)
}
