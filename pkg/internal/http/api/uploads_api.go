package api

import (
	"errors"
	"io"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/gap"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/http/exts"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

func uploadImage(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}

	if gap.P == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, gap.ErrPinningDisabled.Error())
	}

	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	reader, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	cid, err := gap.P.Pin(c.UserContext(), file.Filename, data)
	if errors.Is(err, gap.ErrPinningDisabled) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	} else if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(fiber.Map{
		"cid": cid,
		"url": viper.GetString("pinata.gateway") + cid,
	})
}
