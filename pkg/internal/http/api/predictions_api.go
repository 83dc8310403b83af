package api

import (
	"git.solsynth.dev/hypernet/ponder/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func listPollParticipants(c *fiber.Ctx) error {
	pollId, _ := c.ParamsInt("pollId")

	predictions, err := engine.ListPollParticipants(uint(pollId))
	if err != nil {
		return exts.ToFiberError(err)
	}
	if predictions == nil {
		predictions = []models.Prediction{}
	}

	return c.JSON(fiber.Map{
		"count": len(predictions),
		"data":  predictions,
	})
}

func getMyPrediction(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := exts.GetAccount(c)

	pollId, _ := c.ParamsInt("pollId")

	return c.JSON(engine.GetPrediction(uint(pollId), user))
}

func submitPrediction(c *fiber.Ctx) error {
	if err := exts.EnsureAuthenticated(c); err != nil {
		return err
	}
	user := exts.GetAccount(c)

	pollId, _ := c.ParamsInt("pollId")

	var data struct {
		OptionIndex int             `json:"option_index" validate:"min=0"`
		Amount      decimal.Decimal `json:"amount"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	prediction, err := engine.SubmitPrediction(c.UserContext(), services.SubmitPredictionInput{
		PollID:      uint(pollId),
		User:        user,
		OptionIndex: data.OptionIndex,
		Amount:      data.Amount,
	})
	if err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(prediction)
}
