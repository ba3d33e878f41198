package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/adapters/persistence/repositories"
	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/core/services"
	"koperasi-bci/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type loanTestEnv struct {
	app      *fiber.App
	member   *models.User
	other    *models.User
	loanSvc  *services.LoanService
	userRepo repositories.UserRepository
}

// setupLoanTestEnv wires the loan routes against an in-memory database with
// a stub auth layer that injects the caller from the X-Test-User /
// X-Test-Role headers.
func setupLoanTestEnv(t *testing.T) *loanTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	userRepo := repositories.NewUserRepository(db)
	loanSvc := services.NewLoanService(
		repositories.NewLoanRepository(db),
		repositories.NewPaymentRepository(db),
		userRepo,
		services.NewNotificationService(),
		2,
	)
	handler := NewLoanHandler(loanSvc)

	app := fiber.New()
	app.Use(stubAuth())

	app.Post("/loans", handler.Apply)
	app.Get("/loans/my", handler.ListMine)
	app.Post("/loans/estimate", handler.Estimate)
	app.Get("/loans/:id", handler.GetByID)
	app.Post("/loans/:id/payments", handler.Pay)
	app.Get("/loans/:id/payments", handler.ListPayments)
	app.Post("/admin/loans/:id/approve", handler.Approve)
	app.Post("/admin/loans/:id/reject", handler.Reject)

	env := &loanTestEnv{app: app, loanSvc: loanSvc, userRepo: userRepo}
	env.member = seedUser(t, db, "BCI-2026-HND01", "3201010101020001")
	env.other = seedUser(t, db, "BCI-2026-HND02", "3201010101020002")
	return env
}

func seedUser(t *testing.T, db *gorm.DB, memberNo, nik string) *models.User {
	user := &models.User{
		MemberNo: memberNo,
		NIK:      nik,
		Name:     "Budi Santoso",
		Email:    nik + "@example.com",
		Password: "hashed",
		Role:     string(domain.RoleMember),
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func (e *loanTestEnv) request(t *testing.T, method, path string, body interface{}, userID uint, role string) (*http.Response, response.Response) {
	return doJSONRequest(t, e.app, method, path, body, userID, role)
}

func doJSONRequest(t *testing.T, app *fiber.App, method, path string, body interface{}, userID uint, role string) (*http.Response, response.Response) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", fmt.Sprintf("%d", userID))
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var envelope response.Response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return resp, envelope
}

func applyBody() map[string]interface{} {
	return map[string]interface{}{
		"full_name": "Budi Santoso",
		"nik":       "3201010101020001",
		"phone":     "081234567890",
		"address":   "Jl. Merdeka No. 1, Jakarta",
		"amount":    3_000_000,
		"tenor":     6,
		"purpose":   "Modal usaha warung",
	}
}

func TestLoanHandler_ApplyAndApprove(t *testing.T) {
	env := setupLoanTestEnv(t)

	resp, envelope := env.request(t, "POST", "/loans", applyBody(), env.member.ID, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	loanID := uint(data["id"].(float64))
	assert.Equal(t, "PENDING", data["status"])
	assert.Equal(t, "Dalam Pemeriksaan", data["status_display"])
	assert.Equal(t, float64(3_000_000), data["outstanding"])

	t.Run("approve sets terms", func(t *testing.T) {
		resp, envelope := env.request(t, "POST", fmt.Sprintf("/admin/loans/%d/approve", loanID),
			map[string]interface{}{"rate_percent": 2}, env.other.ID, "ADMIN")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		data := envelope.Data.(map[string]interface{})
		assert.Equal(t, "Disetujui", data["status_display"])
		assert.Equal(t, float64(510_000), data["monthly"])
		assert.Equal(t, float64(3_000_000), data["outstanding"])
	})

	t.Run("second decision returns 422", func(t *testing.T) {
		resp, envelope := env.request(t, "POST", fmt.Sprintf("/admin/loans/%d/reject", loanID),
			nil, env.other.ID, "ADMIN")
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		assert.False(t, envelope.Success)
	})

	t.Run("invalid body returns 400", func(t *testing.T) {
		body := applyBody()
		body["amount"] = -5
		resp, _ := env.request(t, "POST", "/loans", body, env.member.ID, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown loan returns 404", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/admin/loans/9999/approve",
			map[string]interface{}{"rate_percent": 2}, env.other.ID, "ADMIN")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestLoanHandler_PaymentsOverHTTP(t *testing.T) {
	env := setupLoanTestEnv(t)

	_, envelope := env.request(t, "POST", "/loans", applyBody(), env.member.ID, "")
	loanID := uint(envelope.Data.(map[string]interface{})["id"].(float64))
	resp, _ := env.request(t, "POST", fmt.Sprintf("/admin/loans/%d/approve", loanID),
		map[string]interface{}{"rate_percent": 2}, env.other.ID, "ADMIN")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	t.Run("payment reduces the balance", func(t *testing.T) {
		resp, envelope := env.request(t, "POST", fmt.Sprintf("/loans/%d/payments", loanID),
			map[string]interface{}{"amount": 510_000}, env.member.ID, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		data := envelope.Data.(map[string]interface{})
		loan := data["loan"].(map[string]interface{})
		assert.Equal(t, float64(2_490_000), loan["outstanding"])

		payment := data["payment"].(map[string]interface{})
		assert.Equal(t, "QRIS", payment["channel"])
	})

	t.Run("another member gets 404, not 403", func(t *testing.T) {
		resp, _ := env.request(t, "POST", fmt.Sprintf("/loans/%d/payments", loanID),
			map[string]interface{}{"amount": 510_000}, env.other.ID, "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		resp, _ = env.request(t, "GET", fmt.Sprintf("/loans/%d", loanID), nil, env.other.ID, "")
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("closing payment flips the status in the same response", func(t *testing.T) {
		resp, envelope := env.request(t, "POST", fmt.Sprintf("/loans/%d/payments", loanID),
			map[string]interface{}{"amount": 5_000_000}, env.member.ID, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		loan := envelope.Data.(map[string]interface{})["loan"].(map[string]interface{})
		assert.Equal(t, float64(0), loan["outstanding"])
		assert.Equal(t, "Lunas", loan["status_display"])
	})

	t.Run("payment on a settled loan returns 422", func(t *testing.T) {
		resp, _ := env.request(t, "POST", fmt.Sprintf("/loans/%d/payments", loanID),
			map[string]interface{}{"amount": 100_000}, env.member.ID, "")
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("ledger lists every payment", func(t *testing.T) {
		resp, envelope := env.request(t, "GET", fmt.Sprintf("/loans/%d/payments", loanID), nil, env.member.ID, "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Len(t, envelope.Data.([]interface{}), 2)
	})
}

func TestLoanHandler_Estimate(t *testing.T) {
	env := setupLoanTestEnv(t)

	resp, envelope := env.request(t, "POST", "/loans/estimate",
		map[string]interface{}{"amount": 3_000_000, "tenor": 6, "rate_percent": 2}, 0, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, float64(510_000), data["monthly"])
	assert.Equal(t, float64(3_060_000), data["total"])

	t.Run("invalid tenor", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/loans/estimate",
			map[string]interface{}{"amount": 3_000_000, "tenor": 0}, 0, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing auth on member routes", func(t *testing.T) {
		resp, _ := env.request(t, "GET", "/loans/my", nil, 0, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
