// handlers/progression_routes.go
package handlers

import (
	"errors"
	"net/url"

	"bread-daily-service/models"
	"bread-daily-service/services"

	"github.com/gofiber/fiber/v2"
)

// progressResponse is the profile payload: the record plus what is derived from it.
func progressResponse(p models.UserProgress, levels *services.LevelResolver, badges *services.BadgeService) fiber.Map {
	return fiber.Map{
		"xp":                  p.XP,
		"level":               p.Level,
		"streak":              p.Streak,
		"completedChallenges": p.CompletedChallenges,
		"crumbs":              p.Crumbs,
		"level_progress":      levels.Progress(p.XP),
		"badges":              badges.Evaluate(p),
	}
}

// progressError maps ProgressStore errors. Persistence failures still carry the
// updated record, since the change is kept in memory.
func progressError(c *fiber.Ctx, err error, current fiber.Map) error {
	switch {
	case errors.Is(err, services.ErrPersistence):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    services.ErrPersistence.Error(),
			"cause":    err.Error(),
			"progress": current,
		})
	case errors.Is(err, services.ErrInvalidXPAmount),
		errors.Is(err, services.ErrInvalidReference),
		errors.Is(err, services.ErrXPOverflow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnknownChallenge),
		errors.Is(err, services.ErrUnknownActivity):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func SetupProgressionRoutes(app fiber.Router, progress *services.ProgressStore, badges *services.BadgeService, prefs *services.PreferenceStore) {
	levels := progress.Levels()
	view := func(p models.UserProgress) fiber.Map { return progressResponse(p, levels, badges) }

	app.Get("/user/progress", func(c *fiber.Ctx) error {
		return c.JSON(view(progress.Current()))
	})

	app.Post("/user/progress/activities/:activity", func(c *fiber.Ctx) error {
		before := progress.Current()
		p, err := progress.AwardActivity(c.UserContext(), models.Activity(c.Params("activity")))
		if err != nil {
			return progressError(c, err, view(p))
		}
		return c.JSON(fiber.Map{
			"progress":   view(p),
			"new_badges": badges.NewlyEarned(before, p),
		})
	})

	app.Post("/user/progress/reset", func(c *fiber.Ctx) error {
		var body struct {
			Confirm bool `json:"confirm"`
		}
		if err := c.BodyParser(&body); err != nil || !body.Confirm {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": `reset needs {"confirm": true}`,
			})
		}
		p, err := progress.Reset(c.UserContext())
		if err != nil {
			return progressError(c, err, view(p))
		}
		return c.JSON(view(p))
	})

	app.Post("/user/crumbs", func(c *fiber.Ctx) error {
		var body struct {
			Reference string `json:"reference"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		before := progress.Current()
		saved, p, err := progress.ToggleCrumb(c.UserContext(), body.Reference)
		if err != nil {
			return progressError(c, err, view(p))
		}
		return c.JSON(fiber.Map{
			"saved":      saved,
			"progress":   view(p),
			"new_badges": badges.NewlyEarned(before, p),
		})
	})

	app.Delete("/user/crumbs/:reference", func(c *fiber.Ctx) error {
		ref, err := url.PathUnescape(c.Params("reference"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reference"})
		}
		p, err := progress.RemoveCrumb(c.UserContext(), ref)
		if err != nil {
			return progressError(c, err, view(p))
		}
		return c.JSON(view(p))
	})

	app.Get("/challenges", func(c *fiber.Ctx) error {
		p := progress.Current()
		out := make([]fiber.Map, 0, len(models.Challenges))
		for _, ch := range models.Challenges {
			out = append(out, fiber.Map{
				"id":          ch.ID,
				"title":       ch.Title,
				"description": ch.Description,
				"xp":          ch.XP,
				"total_days":  ch.TotalDays,
				"completed":   p.HasCompleted(ch.ID),
			})
		}
		return c.JSON(fiber.Map{
			"challenges": out,
			"badges":     badges.Evaluate(p),
		})
	})

	app.Post("/challenges/:id/complete", func(c *fiber.Ctx) error {
		before := progress.Current()
		awarded, p, err := progress.CompleteChallenge(c.UserContext(), c.Params("id"))
		if err != nil {
			return progressError(c, err, view(p))
		}
		return c.JSON(fiber.Map{
			"awarded":    awarded,
			"progress":   view(p),
			"new_badges": badges.NewlyEarned(before, p),
		})
	})

	app.Get("/user/preferences", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"dark_mode": prefs.DarkMode(c.UserContext())})
	})

	app.Put("/user/preferences", func(c *fiber.Ctx) error {
		var body struct {
			DarkMode *bool `json:"dark_mode"`
		}
		if err := c.BodyParser(&body); err != nil || body.DarkMode == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "dark_mode is required"})
		}
		if err := prefs.SetDarkMode(c.UserContext(), *body.DarkMode); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to save preferences",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"dark_mode": *body.DarkMode})
	})
}
