package api

import (
	"time"

	"git.solsynth.dev/hypernet/ponder/pkg/internal/gap"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func listPolls(c *fiber.Ctx) error {
	var polls []models.Poll
	var err error
	switch c.Query("status", "active") {
	case "active":
		polls, err = engine.ListActivePolls()
	case "closed":
		polls, err = engine.ListClosedPolls()
	default:
		return fiber.NewError(fiber.StatusBadRequest, "status must be active or closed")
	}
	if err != nil {
		return exts.ToFiberError(err)
	}
	if polls == nil {
		polls = []models.Poll{}
	}

	return c.JSON(fiber.Map{
		"count": len(polls),
		"data":  polls,
	})
}

func getPollCount(c *fiber.Ctx) error {
	count, err := engine.CountPolls()
	if err != nil {
		return exts.ToFiberError(err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func getPoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	poll, err := engine.GetPoll(uint(pollId))
	if err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(poll)
}

func createPoll(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := exts.GetAccount(c)

	var data struct {
		Question        string          `json:"question" validate:"required"`
		Options         []string        `json:"options" validate:"required,min=2,max=10"`
		OptionImages    []string        `json:"option_images"`
		OptionImageData [][]byte        `json:"option_image_data"`
		Duration        int64           `json:"duration" validate:"required,min=1"`
		Deposit         decimal.Decimal `json:"deposit"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	images := data.OptionImages
	if len(images) == 0 && len(data.OptionImageData) > 0 {
		images = services.PinOptionImages(c.UserContext(), gap.P, data.OptionImageData)
	}

	poll, err := engine.CreatePoll(c.UserContext(), services.CreatePollInput{
		Creator:      user,
		Question:     data.Question,
		Options:      data.Options,
		OptionImages: images,
		Duration:     time.Duration(data.Duration) * time.Second,
		Deposit:      data.Deposit,
	})
	if err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(poll)
}

func closePoll(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	poll, err := engine.ClosePoll(c.UserContext(), uint(pollId))
	if err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(poll)
}

func distributeRewards(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	result, err := engine.DistributeRewards(c.UserContext(), uint(pollId))
	if err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(result)
}
