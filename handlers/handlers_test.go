package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bread-daily-service/middleware"
	"bread-daily-service/models"
	"bread-daily-service/services"
	"bread-daily-service/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubModerator struct {
	verdict services.ModerationVerdict
	err     error
}

func (m stubModerator) Moderate(context.Context, string) (services.ModerationVerdict, error) {
	return m.verdict, m.err
}

type stubSource struct {
	verse models.Verse
	err   error
}

func (s stubSource) FetchByMood(context.Context, models.Mood) (models.Verse, error) {
	return s.verse, s.err
}

type testApp struct {
	app      *fiber.App
	progress *services.ProgressStore
	limiter  *services.CooldownLimiter
	feed     *services.CommunityFeed
}

func newTestApp(t *testing.T, mod services.ContentModerator, src services.VerseSource) *testApp {
	t.Helper()
	logger := zap.NewNop()
	seed := models.MustLoadSeedContent()

	progress := services.NewProgressStore(context.Background(), storage.NewMemoryStore(), nil, logger)
	prefs := services.NewPreferenceStore(storage.NewMemoryStore(), logger)
	badges := services.NewBadgeService(nil, logger)

	limiter, err := services.NewCooldownLimiter(services.DefaultCooldown, services.WithLimiterClock(clockwork.NewFakeClock()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Close() })

	feed := services.NewCommunityFeed(mod, limiter, seed.Posts, services.WithFeedClock(clockwork.NewFakeClock()))
	board := services.NewVerseBoard(src, progress, seed, logger)

	app := fiber.New()
	app.Use(middleware.ActorContextMiddleware(logger))
	SetupProgressionRoutes(app, progress, badges, prefs)
	SetupScriptureRoutes(app, board)
	SetupCommunityRoutes(app, feed, limiter, logger)
	SetupMetricsRoutes(app)

	return &testApp{app: app, progress: progress, limiter: limiter, feed: feed}
}

func (a *testApp) do(t *testing.T, method, target, body string, header map[string]string) (int, map[string]any) {
	t.Helper()
	code, raw := a.raw(t, method, target, body, header)
	var out map[string]any
	if raw != "" && strings.HasPrefix(strings.TrimSpace(raw), "{") {
		require.NoError(t, json.Unmarshal([]byte(raw), &out), raw)
	}
	return code, out
}

func (a *testApp) raw(t *testing.T, method, target, body string, header map[string]string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := a.app.Test(req, 2000)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

var safe = stubModerator{verdict: services.ModerationVerdict{Safe: true}}

func TestGetProgress(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})
	code, body := a.do(t, "GET", "/user/progress", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 0, body["xp"])
	assert.Equal(t, "Crumb", body["level"])
	assert.EqualValues(t, 1, body["streak"])
	assert.Len(t, body["badges"], len(models.MilestoneBadges))

	lp := body["level_progress"].(map[string]any)
	assert.Equal(t, "Baker", lp["next_level"])
}

func TestAwardActivityRoute(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})

	code, body := a.do(t, "POST", "/user/progress/activities/bread_mode", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 50, body["progress"].(map[string]any)["xp"])

	code, _ = a.do(t, "POST", "/user/progress/activities/nap", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestResetRequiresConfirm(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})
	_, _ = a.do(t, "POST", "/user/progress/activities/check_in", "", nil)

	code, _ := a.do(t, "POST", "/user/progress/reset", `{}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.EqualValues(t, 25, a.progress.Current().XP)

	code, body := a.do(t, "POST", "/user/progress/reset", `{"confirm":true}`, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 0, body["xp"])
}

func TestCrumbRoutes(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})

	code, body := a.do(t, "POST", "/user/crumbs", `{"reference":"Joshua 1:9"}`, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["saved"])
	assert.Len(t, body["new_badges"], 1)

	code, _ = a.do(t, "POST", "/user/crumbs", `{"reference":" "}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = a.do(t, "DELETE", "/user/crumbs/Joshua%201:9", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Empty(t, body["crumbs"])
}

func TestChallengeRoutes(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})

	code, body := a.do(t, "POST", "/challenges/bold-faith/complete", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["awarded"])

	code, body = a.do(t, "POST", "/challenges/bold-faith/complete", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, false, body["awarded"])
	assert.EqualValues(t, 250, body["progress"].(map[string]any)["xp"])

	code, _ = a.do(t, "POST", "/challenges/couch-week/complete", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	_, body = a.do(t, "GET", "/challenges", "", nil)
	challenges := body["challenges"].([]any)
	require.Len(t, challenges, len(models.Challenges))
	completed := 0
	for _, ch := range challenges {
		if ch.(map[string]any)["completed"] == true {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestPreferenceRoutes(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})

	_, body := a.do(t, "GET", "/user/preferences", "", nil)
	assert.Equal(t, false, body["dark_mode"])

	code, _ := a.do(t, "PUT", "/user/preferences", `{}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = a.do(t, "PUT", "/user/preferences", `{"dark_mode":true}`, nil)
	require.Equal(t, fiber.StatusOK, code)
	_, body = a.do(t, "GET", "/user/preferences", "", nil)
	assert.Equal(t, true, body["dark_mode"])
}

func TestMoodRoutes(t *testing.T) {
	verse := models.Verse{Reference: "Psalm 46:10", Text: "Be still", Breakdown: "b", RealTalk: "r", Challenge: "c"}
	a := newTestApp(t, safe, stubSource{verse: verse})

	_, body := a.do(t, "GET", "/verses/current", "", nil)
	assert.Equal(t, "Matthew 6:11", body["verse"].(map[string]any)["reference"])

	code, body := a.do(t, "POST", "/verses/mood/stressed", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Psalm 46:10", body["verse"].(map[string]any)["reference"])
	assert.EqualValues(t, 15, a.progress.Current().XP)

	code, _ = a.do(t, "POST", "/verses/mood/hangry", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	_, body = a.do(t, "GET", "/moods", "", nil)
	assert.Len(t, body["moods"], len(models.Moods))

	_, body = a.do(t, "GET", "/verses/samples", "", nil)
	assert.Len(t, body["verses"], 2)
}

func TestMoodRouteBackendDown(t *testing.T) {
	a := newTestApp(t, safe, stubSource{err: services.ErrContentUnavailable})
	code, body := a.do(t, "POST", "/verses/mood/Lonely", "", nil)
	assert.Equal(t, fiber.StatusBadGateway, code)
	assert.Equal(t, services.VerseFetchFailedMessage, body["error"])
	assert.Equal(t, "Matthew 6:11", body["state"].(map[string]any)["verse"].(map[string]any)["reference"])
}

func TestSubmitPostRoute(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})

	code, body := a.do(t, "POST", "/community/posts", `{"content":"Hello","category":"Sports"}`, nil)
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "published", body["state"])
	assert.EqualValues(t, 30, body["cooldown"])
	post := body["post"].(map[string]any)
	assert.Equal(t, "You", post["author"])
	assert.Equal(t, "Y", post["initial"])
	assert.Equal(t, "sports", post["category_slug"])

	code, body = a.do(t, "POST", "/community/posts", `{"content":"Again"}`, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, code)
	assert.EqualValues(t, 30, body["retry_after"])

	// another actor has its own cooldown
	code, _ = a.do(t, "POST", "/community/posts", `{"content":"Hi"}`, map[string]string{middleware.ActorHeader: "tablet"})
	assert.Equal(t, fiber.StatusCreated, code)

	_, body = a.do(t, "GET", "/community/cooldown", "", nil)
	assert.EqualValues(t, 30, body["seconds_remaining"])
	assert.EqualValues(t, 30, body["window"])

	_, body = a.do(t, "GET", "/community/posts?category=sports", "", nil)
	assert.Len(t, body["posts"], 1)
}

func TestSubmitPostRouteOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		mod   stubModerator
		body  string
		code  int
		state string
		error string
	}{
		{"empty", safe, `{"content":"   "}`, fiber.StatusBadRequest, "idle", ""},
		{"rejected", stubModerator{verdict: services.ModerationVerdict{Reason: "No spam"}}, `{"content":"buy now"}`, fiber.StatusUnprocessableEntity, "rejected", "No spam"},
		{"moderation error", stubModerator{err: services.ErrModerationInterrupted}, `{"content":"hi"}`, fiber.StatusBadGateway, "errored", services.ModerationFailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, tt.mod, stubSource{})
			code, body := a.do(t, "POST", "/community/posts", tt.body, nil)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.state, body["state"])
			if tt.error != "" {
				assert.Equal(t, tt.error, body["error"])
			}
			assert.Zero(t, a.limiter.SecondsRemaining(middleware.DefaultActor))
		})
	}
}

func TestReactAndReportRoutes(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})

	code, body := a.do(t, "POST", "/community/posts/2/reactions/praying", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 16, body["reactions"].(map[string]any)["praying"])

	code, _ = a.do(t, "POST", "/community/posts/2/reactions/like", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = a.do(t, "POST", "/community/posts/nope/reactions/amen", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, body = a.do(t, "POST", "/community/posts/2/report", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["isReported"])
	assert.Equal(t, models.HiddenPostPlaceholder, body["content"])

	code, _ = a.do(t, "POST", "/community/posts/nope/report", "", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

// countdown returns the next value of seq on every read, then zero.
type countdown struct {
	mu  sync.Mutex
	seq []int
}

func (c *countdown) SecondsRemaining(string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seq) == 0 {
		return 0
	}
	v := c.seq[0]
	c.seq = c.seq[1:]
	return v
}

func (c *countdown) Window() int { return 30 }

func TestCooldownStream(t *testing.T) {
	prev := cooldownStreamInterval
	cooldownStreamInterval = 5 * time.Millisecond
	t.Cleanup(func() { cooldownStreamInterval = prev })

	feed := services.NewCommunityFeed(safe, &countdownCooldown{}, nil)
	app := fiber.New()
	SetupCommunityRoutes(app, feed, &countdown{seq: []int{3, 2, 1}}, zap.NewNop())

	req := httptest.NewRequest("GET", "/community/cooldown/stream?actor=tablet", nil)
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	events := strings.Split(strings.TrimSpace(string(raw)), "\n\n")
	require.Len(t, events, 4)
	assert.Equal(t, "event: cooldown\ndata: {\"seconds_remaining\":3}", events[0])
	assert.Equal(t, "event: cooldown\ndata: {\"seconds_remaining\":0}", events[3])
}

// countdownCooldown never blocks a submission; the stream test only reads.
type countdownCooldown struct{}

func (countdownCooldown) TryAcquire(string) bool      { return true }
func (countdownCooldown) SecondsRemaining(string) int { return 0 }

func TestMetricsAndHealth(t *testing.T) {
	a := newTestApp(t, safe, stubSource{})
	_, _ = a.do(t, "POST", "/user/progress/activities/check_in", "", nil)

	code, body := a.raw(t, "GET", "/metrics", "", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body, "bread_daily_xp_awarded_total")

	code, _ = a.do(t, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, code)
}
