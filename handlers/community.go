package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bread-daily-service/middleware"
	"bread-daily-service/models"
	"bread-daily-service/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CooldownView is the read side of the community cooldown
type CooldownView interface {
	SecondsRemaining(actor string) int
	Window() int
}

// cooldownStreamInterval is how often the SSE stream pushes the countdown
var cooldownStreamInterval = time.Second

type postView struct {
	ID           string           `json:"id"`
	Author       string           `json:"author"`
	Initial      string           `json:"initial"`
	Category     string           `json:"category"`
	CategorySlug string           `json:"category_slug"`
	Content      string           `json:"content"`
	Timestamp    time.Time        `json:"timestamp"`
	Reactions    models.Reactions `json:"reactions"`
	IsReported   bool             `json:"isReported"`
}

func newPostView(p models.CommunityPost) postView {
	return postView{
		ID:           p.ID,
		Author:       p.Author,
		Initial:      p.Initial(),
		Category:     p.Category,
		CategorySlug: p.CategorySlug,
		Content:      p.DisplayContent(),
		Timestamp:    p.Timestamp,
		Reactions:    p.Reactions,
		IsReported:   p.IsReported,
	}
}

func SetupCommunityRoutes(app fiber.Router, feed *services.CommunityFeed, cooldown CooldownView, logger *zap.Logger) {
	app.Get("/community/posts", func(c *fiber.Ctx) error {
		posts := feed.Posts(c.Query("category"))
		out := make([]postView, 0, len(posts))
		for _, p := range posts {
			out = append(out, newPostView(p))
		}
		return c.JSON(fiber.Map{
			"posts":      out,
			"categories": models.PostCategories,
		})
	})

	app.Post("/community/posts", func(c *fiber.Ctx) error {
		var req models.NewPost
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		actor := middleware.Actor(c)
		req.Actor = actor

		post, err := feed.Submit(c.UserContext(), req)
		state := services.SubmissionStateOf(err).String()

		var rejected *services.RejectedError
		switch {
		case err == nil:
			logger.Info("✅ Post published", zap.String("actor", actor), zap.String("post_id", post.ID))
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"post":     newPostView(post),
				"state":    state,
				"cooldown": cooldown.SecondsRemaining(actor),
			})
		case errors.As(err, &rejected):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": rejected.Reason,
				"state": state,
			})
		case errors.Is(err, services.ErrRateLimited):
			retry := cooldown.SecondsRemaining(actor)
			if retry < 1 {
				retry = 1
			}
			c.Set(fiber.HeaderRetryAfter, fmt.Sprint(retry))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       err.Error(),
				"state":       state,
				"retry_after": retry,
			})
		case errors.Is(err, services.ErrEmptyPost), errors.Is(err, services.ErrPostTooLong):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
				"state": state,
			})
		case errors.Is(err, services.ErrModerationFailed):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": services.ModerationFailedMessage,
				"state": state,
			})
		}
		logger.Error("submit failed", zap.String("actor", actor), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	})

	app.Post("/community/posts/:id/reactions/:kind", func(c *fiber.Ctx) error {
		kind, ok := models.ParseReactionKind(c.Params("kind"))
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown reaction"})
		}
		id := c.Params("id")
		if !feed.React(id, kind) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
		}
		post, _ := feed.Post(id)
		return c.JSON(newPostView(post))
	})

	app.Post("/community/posts/:id/report", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if !feed.Report(id) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
		}
		post, _ := feed.Post(id)
		return c.JSON(newPostView(post))
	})

	app.Get("/community/cooldown", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"seconds_remaining": cooldown.SecondsRemaining(middleware.Actor(c)),
			"window":            cooldown.Window(),
		})
	})

	app.Get("/community/cooldown/stream", middleware.StreamActorMiddleware(logger), func(c *fiber.Ctx) error {
		return streamCooldown(c, cooldown, logger)
	})
}

// streamCooldown pushes one `cooldown` event per interval and ends after the
// event that reports zero.
func streamCooldown(c *fiber.Ctx, cooldown CooldownView, logger *zap.Logger) error {
	actor := middleware.Actor(c)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	done := c.Context().Done()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(cooldownStreamInterval)
		defer ticker.Stop()

		for {
			left := cooldown.SecondsRemaining(actor)
			payload, _ := json.Marshal(fiber.Map{"seconds_remaining": left})
			fmt.Fprintf(w, "event: cooldown\ndata: %s\n\n", payload)
			if err := w.Flush(); err != nil {
				logger.Debug("cooldown stream closed by client", zap.String("actor", actor))
				return
			}
			if left == 0 {
				return
			}

			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	})
	return nil
}
