package api

import (
	"git.solsynth.dev/hypernet/ponder/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

var engine *services.Engine

func MapControllers(app *fiber.App, baseURL string, eng *services.Engine) {
	engine = eng

	api := app.Group(baseURL).Name("API")
	{
		polls := api.Group("/polls").Name("Polls API")
		{
			polls.Get("/", listPolls)
			polls.Get("/count", getPollCount)
			polls.Get("/:pollId", getPoll)
			polls.Post("/", createPoll)
			polls.Post("/:pollId/close", closePoll)
			polls.Post("/:pollId/distribute", distributeRewards)

			polls.Get("/:pollId/participants", listPollParticipants)
			polls.Get("/:pollId/predictions/me", getMyPrediction)
			polls.Post("/:pollId/predictions", submitPrediction)
		}

		api.Get("/users/:account/stats", getUserStats)
		api.Get("/leaderboard", getLeaderboard)
		api.Get("/stats", getPlatformStats)

		api.Post("/uploads", uploadImage)
	}
}
