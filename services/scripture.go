package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bread-daily-service/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	// ErrContentUnavailable means no verse could be produced. There is no fallback.
	ErrContentUnavailable = errors.New("scripture content unavailable")
	ErrUnknownMood        = errors.New("unknown mood")
)

var verseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"reference": {Type: genai.TypeString},
		"text":      {Type: genai.TypeString},
		"breakdown": {Type: genai.TypeString},
		"realTalk":  {Type: genai.TypeString},
		"challenge": {Type: genai.TypeString},
		"prayer":    {Type: genai.TypeString},
	},
	Required: []string{"reference", "text", "breakdown", "realTalk", "challenge"},
}

func scripturePrompt(mood models.Mood) string {
	return fmt.Sprintf("The user is a teenager/young adult feeling %s. "+
		"Provide a relevant Bible verse (ESV or NIV) with a modern breakdown, "+
		`"Real Talk" application for youth life (school, anxiety, social media), `+
		"a daily action challenge, and a short 1-sentence prayer. "+
		"Keep the tone authentic, not preachy.", mood)
}

// ScriptureGateway produces a verse card for a mood
type ScriptureGateway struct {
	gen     ContentGenerator
	timeout time.Duration
	logger  *zap.Logger
}

func NewScriptureGateway(gen ContentGenerator, timeout time.Duration, logger *zap.Logger) *ScriptureGateway {
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptureGateway{gen: gen, timeout: timeout, logger: logger}
}

// FetchByMood asks the backend for a verse. Any failure, including a response
// missing a required field, is ErrContentUnavailable.
func (g *ScriptureGateway) FetchByMood(ctx context.Context, mood models.Mood) (models.Verse, error) {
	if !mood.Valid() {
		return models.Verse{}, fmt.Errorf("%w: %q", ErrUnknownMood, mood)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.gen.GenerateJSON(callCtx, scripturePrompt(mood), verseSchema)
	if err != nil {
		return g.unavailable(mood, "backend", err)
	}

	verse, err := parseVerse(raw)
	if err != nil {
		return g.unavailable(mood, "malformed", err)
	}

	scriptureFetchesTotal.WithLabelValues("ok").Inc()
	g.logger.Info("📖 Verse fetched", zap.String("mood", string(mood)), zap.String("reference", verse.Reference))
	return verse, nil
}

func (g *ScriptureGateway) unavailable(mood models.Mood, result string, err error) (models.Verse, error) {
	scriptureFetchesTotal.WithLabelValues(result).Inc()
	g.logger.Warn("scripture fetch failed", zap.String("mood", string(mood)), zap.Error(err))
	return models.Verse{}, fmt.Errorf("%w: %w", ErrContentUnavailable, err)
}

func parseVerse(raw string) (models.Verse, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Verse{}, fmt.Errorf("empty response")
	}
	if !gjson.Valid(raw) {
		return models.Verse{}, fmt.Errorf("response is not JSON")
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return models.Verse{}, fmt.Errorf("response is not an object")
	}

	str := func(path string) string {
		r := doc.Get(path)
		if r.Type != gjson.String {
			return ""
		}
		return strings.TrimSpace(r.String())
	}
	v := models.Verse{
		Reference: str("reference"),
		Text:      str("text"),
		Breakdown: str("breakdown"),
		RealTalk:  str("realTalk"),
		Challenge: str("challenge"),
		Prayer:    str("prayer"),
	}
	if err := v.Validate(); err != nil {
		return models.Verse{}, err
	}
	return v, nil
}
