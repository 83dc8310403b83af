package admin

import (
	"git.solsynth.dev/hypernet/ponder/pkg/internal/http/exts"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func (v *SettingsHandle) GetSettings(c *fiber.Ctx) error {
	return c.JSON(v.engine.PlatformSettings())
}

func (v *SettingsHandle) SetFeeRecipient(c *fiber.Ctx) error {
	var data struct {
		Recipient string `json:"recipient" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if err := v.engine.SetFeeRecipient(data.Recipient); err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(v.engine.PlatformSettings())
}

func (v *SettingsHandle) SetMinStake(c *fiber.Ctx) error {
	var data struct {
		Amount decimal.Decimal `json:"amount"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if err := v.engine.SetMinStakeAmount(data.Amount); err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(v.engine.PlatformSettings())
}

func (v *SettingsHandle) Pause(c *fiber.Ctx) error {
	if err := v.engine.Pause(); err != nil {
		return exts.ToFiberError(err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (v *SettingsHandle) Unpause(c *fiber.Ctx) error {
	if err := v.engine.Unpause(); err != nil {
		return exts.ToFiberError(err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (v *SettingsHandle) TriggerKeeper(c *fiber.Ctx) error {
	return c.JSON(v.engine.RunKeeper(c.UserContext()))
}
