package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGatewayTimeout bounds a single call to the content backend
const DefaultGatewayTimeout = 15 * time.Second

// ErrModerationInterrupted is returned when the caller gave up before a verdict.
var ErrModerationInterrupted = errors.New("moderation interrupted")

// unverifiedReason is the verdict reason when the backend answers with nothing
const unverifiedReason = "Unable to verify content."

// ModerationVerdict is the outcome of a moderation check
type ModerationVerdict struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

var moderationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"safe":   {Type: genai.TypeBoolean},
		"reason": {Type: genai.TypeString},
	},
	Required: []string{"safe"},
}

func moderationPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following text for a supportive youth Christian community app.
Text: %q

Rules:
1. No hate speech, bullying, or explicit content.
2. No spam or commercial promotion.
3. Allow doubts, questions, and struggles if expressed respectfully.

Return JSON: { "safe": boolean, "reason": string (optional, brief explanation if unsafe) }`, text)
}

// ModerationGateway asks the content backend whether a post is fit for the feed.
// Backend trouble never blocks a post: it is logged and the text is let through.
type ModerationGateway struct {
	gen     ContentGenerator
	timeout time.Duration
	logger  *zap.Logger
}

func NewModerationGateway(gen ContentGenerator, timeout time.Duration, logger *zap.Logger) *ModerationGateway {
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationGateway{gen: gen, timeout: timeout, logger: logger}
}

// Moderate returns a verdict for text. The only error is ErrModerationInterrupted,
// when ctx itself is done.
func (g *ModerationGateway) Moderate(ctx context.Context, text string) (ModerationVerdict, error) {
	if err := ctx.Err(); err != nil {
		return ModerationVerdict{}, fmt.Errorf("%w: %w", ErrModerationInterrupted, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.gen.GenerateJSON(callCtx, moderationPrompt(text), moderationSchema)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ModerationVerdict{}, fmt.Errorf("%w: %w", ErrModerationInterrupted, ctxErr)
		}
		cause := "backend"
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			cause = "timeout"
		}
		return g.failOpen(cause, err), nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ModerationVerdict{Safe: false, Reason: unverifiedReason}, nil
	}
	return g.parseVerdict(raw), nil
}

// parseVerdict reads the verdict leniently; extra fields are ignored.
func (g *ModerationGateway) parseVerdict(raw string) ModerationVerdict {
	if !gjson.Valid(raw) {
		return g.failOpen("malformed", fmt.Errorf("response is not JSON"))
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return g.failOpen("malformed", fmt.Errorf("response is not an object"))
	}
	safe := doc.Get("safe")
	if safe.Type != gjson.True && safe.Type != gjson.False {
		return g.failOpen("malformed", fmt.Errorf("safe is missing or not a boolean"))
	}

	v := ModerationVerdict{Safe: safe.Bool()}
	if reason := doc.Get("reason"); reason.Type == gjson.String {
		v.Reason = strings.TrimSpace(reason.String())
	}
	return v
}

func (g *ModerationGateway) failOpen(cause string, err error) ModerationVerdict {
	moderationFallbacksTotal.WithLabelValues(cause).Inc()
	g.logger.Warn("moderation unavailable, allowing post",
		zap.String("cause", cause),
		zap.Error(err),
	)
	return ModerationVerdict{Safe: true}
}
