package admin

import (
	"crypto/subtle"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

// AdminKeyHeader carries the administrative key configured as security.admin_key.
const AdminKeyHeader = "X-Admin-Key"

type SettingsHandle struct {
	engine *services.Engine
}

func MapControllers(app *fiber.App, baseURL string, engine *services.Engine) {
	handler := SettingsHandle{engine: engine}

	admin := app.Group(baseURL).Name("Admin API")
	admin.Use(handler.Verify)
	{
		admin.Get("/settings", handler.GetSettings)
		admin.Put("/settings/fee-recipient", handler.SetFeeRecipient)
		admin.Put("/settings/min-stake", handler.SetMinStake)
		admin.Post("/pause", handler.Pause)
		admin.Post("/unpause", handler.Unpause)
		admin.Post("/keeper", handler.TriggerKeeper)
	}
}

// Verify rejects requests without the configured admin key.
func (v *SettingsHandle) Verify(c *fiber.Ctx) error {
	adminKey := viper.GetString("security.admin_key")
	if len(adminKey) == 0 {
		return fiber.NewError(fiber.StatusForbidden, "admin api is disabled")
	}

	if key := c.Get(AdminKeyHeader); subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid admin key")
	}

	return c.Next()
}
