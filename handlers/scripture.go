package handlers

import (
	"errors"

	"bread-daily-service/models"
	"bread-daily-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupScriptureRoutes(app fiber.Router, board *services.VerseBoard) {
	app.Get("/verses/current", func(c *fiber.Ctx) error {
		return c.JSON(board.State())
	})

	app.Get("/verses/samples", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"verses": board.Samples()})
	})

	app.Get("/moods", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"moods": models.Moods})
	})

	app.Post("/verses/mood/:mood", func(c *fiber.Ctx) error {
		mood, ok := models.ParseMood(c.Params("mood"))
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown mood",
				"moods": models.Moods,
			})
		}

		state, err := board.RefreshByMood(c.UserContext(), mood)
		switch {
		case err == nil:
			return c.JSON(state)
		case errors.Is(err, services.ErrStaleVerse):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "a newer mood request replaced this one",
				"state": state,
			})
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": services.VerseFetchFailedMessage,
				"state": state,
			})
		}
	})
}
