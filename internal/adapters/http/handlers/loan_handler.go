package handlers

import (
	"errors"
	"strconv"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/core/services"
	"koperasi-bci/internal/pkg/pagination"
	"koperasi-bci/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// EstimateRequest represents installment estimate request body
type EstimateRequest struct {
	Amount      int64   `json:"amount"`
	Tenor       int     `json:"tenor"`
	RatePercent float64 `json:"rate_percent"`
}

// Apply handles a new loan application
// @Summary Apply for a loan
// @Description Submit a loan application; it starts in awaiting-review status
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ApplyLoanInput true "Application data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ApplyLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Apply(c.Context(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to submit loan application")
		}
	}

	return response.Created(c, "Loan application submitted", loan.ToResponse())
}

// ListMine lists the caller's loans
// @Summary List my loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/my [get]
func (h *LoanHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loans, err := h.loanService.ListMine(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", toLoanResponses(loans))
}

// ListAll lists all loans with pagination
// @Summary List all loans (admin)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/loans [get]
func (h *LoanHandler) ListAll(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.ListAll(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully",
		pagination.NewResponse(toLoanResponses(loans), params, total))
}

// ListPending lists loans awaiting review
// @Summary List loans awaiting review (admin)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/loans/pending [get]
func (h *LoanHandler) ListPending(c *fiber.Ctx) error {
	loans, err := h.loanService.ListPending(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list pending loans")
	}

	return response.Success(c, "Pending loans retrieved successfully", toLoanResponses(loans))
}

// GetByID gets a single loan
// @Summary Get a loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	loanID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.Context(), loanID, userID, domain.Role(role))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan.ToResponse())
}

// Approve approves a loan awaiting review
// @Summary Approve a loan (admin)
// @Description Fix the loan terms and open the outstanding balance
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body services.ApproveLoanInput true "Approval terms"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/loans/{id}/approve [post]
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	loanID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var input services.ApproveLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Approve(c.Context(), loanID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrInvalidState):
			return response.UnprocessableEntity(c, "Loan is no longer awaiting review")
		default:
			return response.InternalServerError(c, "Failed to approve loan")
		}
	}

	return response.Success(c, "Loan approved", loan.ToResponse())
}

// Reject rejects a loan awaiting review
// @Summary Reject a loan (admin)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/loans/{id}/reject [post]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	loanID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.Reject(c.Context(), loanID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrInvalidState):
			return response.UnprocessableEntity(c, "Loan is no longer awaiting review")
		default:
			return response.InternalServerError(c, "Failed to reject loan")
		}
	}

	return response.Success(c, "Loan rejected", loan.ToResponse())
}

// Pay records an installment payment
// @Summary Pay an installment
// @Description Record a payment; the outstanding balance never goes below zero
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body services.PayInput true "Payment data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/payments [post]
func (h *LoanHandler) Pay(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loanID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var input services.PayInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, payment, err := h.loanService.Pay(c.Context(), userID, loanID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrInvalidState):
			return response.UnprocessableEntity(c, "Loan is not active")
		case errors.Is(err, domain.ErrConflict):
			return response.Conflict(c, "Payment conflicted with a concurrent update, please retry")
		default:
			return response.InternalServerError(c, "Failed to record payment")
		}
	}

	return response.Success(c, "Payment recorded", fiber.Map{
		"loan":    loan.ToResponse(),
		"payment": payment,
	})
}

// ListPayments lists a loan's payments
// @Summary List a loan's payments
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/payments [get]
func (h *LoanHandler) ListPayments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals("role").(string)

	loanID, err := parseIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	payments, err := h.loanService.ListPayments(c.Context(), loanID, userID, domain.Role(role))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// MyPayments lists the caller's payments across loans
// @Summary List my payments
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /payments/my [get]
func (h *LoanHandler) MyPayments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	payments, err := h.loanService.ListMyPayments(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}

// Estimate computes an illustrative monthly installment
// @Summary Estimate monthly installment
// @Description Compute ceil(amount * (1 + rate/100) / tenor) without creating a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param body body EstimateRequest true "Estimate parameters"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /loans/estimate [post]
func (h *LoanHandler) Estimate(c *fiber.Ctx) error {
	var req EstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	monthly, err := h.loanService.Estimate(req.Amount, req.Tenor, req.RatePercent)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Success(c, "Installment estimated", fiber.Map{
		"amount":  req.Amount,
		"tenor":   req.Tenor,
		"monthly": monthly,
		"total":   monthly * int64(req.Tenor),
	})
}

func toLoanResponses(loans []*models.Loan) []*models.LoanResponse {
	responses := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		responses[i] = loan.ToResponse()
	}
	return responses
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
