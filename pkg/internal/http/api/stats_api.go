package api

import (
	"git.solsynth.dev/hypernet/ponder/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/ponder/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
)

func getUserStats(c *fiber.Ctx) error {
	stats, err := engine.GetUserStats(c.Params("account"))
	if err != nil {
		return exts.ToFiberError(err)
	}

	return c.JSON(stats)
}

func getLeaderboard(c *fiber.Ctx) error {
	take := c.QueryInt("take", 10)

	entries, err := engine.GetLeaderboard(c.UserContext(), take)
	if err != nil {
		return exts.ToFiberError(err)
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	return c.JSON(fiber.Map{
		"count": len(entries),
		"data":  entries,
	})
}

func getPlatformStats(c *fiber.Ctx) error {
	count, err := engine.CountPolls()
	if err != nil {
		return exts.ToFiberError(err)
	}
	distributed, err := engine.TotalRewardsDistributed()
	if err != nil {
		return exts.ToFiberError(err)
	}
	settings := engine.PlatformSettings()

	return c.JSON(fiber.Map{
		"poll_count":                count,
		"total_rewards_distributed": distributed,
		"fee_percent":               settings.FeePercent,
		"min_stake_amount":          settings.MinStakeAmount,
		"paused":                    settings.Paused,
	})
}
