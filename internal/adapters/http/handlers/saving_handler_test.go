package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
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

type savingTestEnv struct {
	app    *fiber.App
	member *models.User
	admin  *models.User
}

func setupSavingTestEnv(t *testing.T) *savingTestEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	userRepo := repositories.NewUserRepository(db)
	savingSvc := services.NewSavingService(repositories.NewSavingRepository(db))
	handler := NewSavingHandler(savingSvc, services.NewUserService(userRepo))

	app := fiber.New()
	app.Use(stubAuth())

	app.Post("/savings", handler.Deposit)
	app.Get("/savings", handler.History)
	app.Get("/savings/balance", handler.Balance)
	app.Get("/admin/users/:id/savings", handler.AdminHistory)
	app.Post("/admin/users/:id/savings", handler.AdminDeposit)

	env := &savingTestEnv{app: app}
	env.member = seedUser(t, db, "BCI-2026-SAV01", "3201010101030001")
	env.admin = seedUser(t, db, "BCI-2026-SAV02", "3201010101030002")
	env.admin.Role = string(domain.RoleAdmin)
	require.NoError(t, db.Save(env.admin).Error)
	return env
}

func stubAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var userID uint
		if _, err := fmt.Sscanf(c.Get("X-Test-User"), "%d", &userID); err == nil {
			c.Locals("userID", userID)
		}
		role := c.Get("X-Test-Role")
		if role == "" {
			role = string(domain.RoleMember)
		}
		c.Locals("role", role)
		return c.Next()
	}
}

func depositBody(savingType string, amount int64) map[string]interface{} {
	return map[string]interface{}{
		"type":   savingType,
		"amount": amount,
		"note":   "setoran bulanan",
	}
}

func TestSavingHandler_DepositAndBalance(t *testing.T) {
	env := setupSavingTestEnv(t)

	resp, envelope := env.request(t, "POST", "/savings", depositBody("WAJIB", 50_000), env.member.ID, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, envelope.Success)

	_, _ = env.request(t, "POST", "/savings", depositBody("SUKARELA", 200_000), env.member.ID, "")

	t.Run("balance sums per type", func(t *testing.T) {
		resp, envelope := env.request(t, "GET", "/savings/balance", nil, env.member.ID, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var balance services.SavingBalance
		decodeData(t, envelope.Data, &balance)
		assert.Equal(t, int64(50_000), balance.Wajib)
		assert.Equal(t, int64(200_000), balance.Sukarela)
		assert.Equal(t, int64(250_000), balance.Total)
	})

	t.Run("history lists deposits", func(t *testing.T) {
		resp, envelope := env.request(t, "GET", "/savings", nil, env.member.ID, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var rows []models.SavingResponse
		decodeData(t, envelope.Data, &rows)
		assert.Len(t, rows, 2)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/savings", depositBody("GIRO", 10_000), env.member.ID, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing auth rejected", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/savings", depositBody("WAJIB", 10_000), 0, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSavingHandler_AdminDeposit(t *testing.T) {
	env := setupSavingTestEnv(t)
	path := func(id uint) string {
		return fmt.Sprintf("/admin/users/%d/savings", id)
	}

	resp, _ := env.request(t, "POST", path(env.member.ID), depositBody("POKOK", 100_000), env.admin.ID, string(domain.RoleAdmin))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("deposit lands on the member", func(t *testing.T) {
		resp, envelope := env.request(t, "GET", "/savings/balance", nil, env.member.ID, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var balance services.SavingBalance
		decodeData(t, envelope.Data, &balance)
		assert.Equal(t, int64(100_000), balance.Pokok)
	})

	t.Run("admin lists member history", func(t *testing.T) {
		resp, envelope := env.request(t, "GET", path(env.member.ID), nil, env.admin.ID, string(domain.RoleAdmin))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var rows []models.SavingResponse
		decodeData(t, envelope.Data, &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, env.member.ID, rows[0].UserID)
	})

	t.Run("unknown member is not found", func(t *testing.T) {
		resp, _ := env.request(t, "POST", path(9999), depositBody("POKOK", 100_000), env.admin.ID, string(domain.RoleAdmin))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id rejected", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/admin/users/abc/savings", depositBody("POKOK", 100_000), env.admin.ID, string(domain.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func (e *savingTestEnv) request(t *testing.T, method, path string, body interface{}, userID uint, role string) (*http.Response, response.Response) {
	return doJSONRequest(t, e.app, method, path, body, userID, role)
}

// decodeData re-marshals an envelope's data field into a typed value.
func decodeData(t *testing.T, data interface{}, out interface{}) {
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}
