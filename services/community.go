package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"bread-daily-service/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const (
	// LocalActor is the actor id used when a caller does not name one
	LocalActor = "local"
	// LocalAuthor is shown on posts written on this device
	LocalAuthor = "You"
)

// User-facing submission messages
const (
	RejectedFallbackMessage = "Let's keep the bread fresh! Your post was flagged for moderation."
	ModerationFailedMessage = "Spirit check failed. Please check your connection."
)

var (
	ErrEmptyPost        = errors.New("post content is empty")
	ErrPostTooLong      = fmt.Errorf("post content is longer than %d characters", models.MaxPostLength)
	ErrRateLimited      = errors.New("posting too fast")
	ErrModerationFailed = errors.New("moderation failed")
)

// RejectedError is a post turned away by moderation. Reason is shown to the author.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "post rejected: " + e.Reason
}

// ContentModerator judges whether text may be published
type ContentModerator interface {
	Moderate(ctx context.Context, text string) (ModerationVerdict, error)
}

// Cooldown gates how often an actor may publish
type Cooldown interface {
	TryAcquire(actor string) bool
	SecondsRemaining(actor string) int
}

// SubmissionState is the composer's progress through a submission
type SubmissionState int

const (
	SubmissionIdle SubmissionState = iota
	SubmissionSanitizing
	SubmissionModerating
	SubmissionPublished
	SubmissionRejected
	SubmissionErrored
)

func (s SubmissionState) String() string {
	switch s {
	case SubmissionIdle:
		return "idle"
	case SubmissionSanitizing:
		return "sanitizing"
	case SubmissionModerating:
		return "moderating"
	case SubmissionPublished:
		return "published"
	case SubmissionRejected:
		return "rejected"
	case SubmissionErrored:
		return "errored"
	}
	return "unknown"
}

// Terminal reports whether a submission has finished in s.
func (s SubmissionState) Terminal() bool {
	return s == SubmissionPublished || s == SubmissionRejected || s == SubmissionErrored
}

type submissionEvent int

const (
	eventAccepted   submissionEvent = iota // input passed the cheap checks
	eventSanitized                         // markup stripped, text still valid
	eventEmpty                             // nothing left after sanitizing, or too long
	eventSafe                              // verdict safe and cooldown acquired
	eventThrottled                         // verdict safe but cooldown already running
	eventUnsafe                            // verdict unsafe
	eventFailed                            // moderation errored
	eventDismissed                         // author saw the outcome
)

var submissionTransitions = map[SubmissionState]map[submissionEvent]SubmissionState{
	SubmissionIdle: {
		eventAccepted: SubmissionSanitizing,
	},
	SubmissionSanitizing: {
		eventSanitized: SubmissionModerating,
		eventEmpty:     SubmissionIdle,
	},
	SubmissionModerating: {
		eventSafe:      SubmissionPublished,
		eventThrottled: SubmissionIdle,
		eventUnsafe:    SubmissionRejected,
		eventFailed:    SubmissionErrored,
	},
	SubmissionPublished: {eventDismissed: SubmissionIdle},
	SubmissionRejected:  {eventDismissed: SubmissionIdle},
	SubmissionErrored:   {eventDismissed: SubmissionIdle},
}

// next applies e to s. Events that make no sense in s leave it unchanged.
func (s SubmissionState) next(e submissionEvent) (SubmissionState, bool) {
	to, ok := submissionTransitions[s][e]
	if !ok {
		return s, false
	}
	return to, true
}

// SubmissionStateOf maps the result of Submit to the state the composer ends in.
func SubmissionStateOf(err error) SubmissionState {
	var rejected *RejectedError
	switch {
	case err == nil:
		return SubmissionPublished
	case errors.As(err, &rejected):
		return SubmissionRejected
	case errors.Is(err, ErrModerationFailed):
		return SubmissionErrored
	default:
		return SubmissionIdle
	}
}

// CommunityFeed is the local, newest-first list of community posts
type CommunityFeed struct {
	mu       sync.Mutex
	posts    []models.CommunityPost
	inFlight map[string]bool

	moderator ContentModerator
	cooldown  Cooldown
	policy    *bluemonday.Policy
	clock     clockwork.Clock
	logger    *zap.Logger
}

// FeedOption customises a CommunityFeed
type FeedOption func(*CommunityFeed)

func WithFeedClock(clock clockwork.Clock) FeedOption {
	return func(f *CommunityFeed) { f.clock = clock }
}

func WithFeedLogger(logger *zap.Logger) FeedOption {
	return func(f *CommunityFeed) { f.logger = logger }
}

// NewCommunityFeed builds a feed holding the seed posts, newest first.
func NewCommunityFeed(moderator ContentModerator, cooldown Cooldown, seed []models.SeedPost, opts ...FeedOption) *CommunityFeed {
	f := &CommunityFeed{
		inFlight:  make(map[string]bool),
		moderator: moderator,
		cooldown:  cooldown,
		policy:    bluemonday.StrictPolicy(),
		clock:     clockwork.NewRealClock(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	now := f.clock.Now()
	for _, sp := range seed {
		category := strings.TrimSpace(sp.Category)
		if category == "" {
			category = models.DefaultCategory
		}
		f.posts = append(f.posts, models.CommunityPost{
			ID:           sp.ID,
			Author:       sp.Author,
			Category:     category,
			CategorySlug: slug.Make(category),
			Content:      sp.Content,
			Timestamp:    now.Add(-sp.Age),
			Reactions:    sp.Reactions,
		})
	}
	sortNewestFirst(f.posts)
	return f
}

func sortNewestFirst(posts []models.CommunityPost) {
	slices.SortStableFunc(posts, func(a, b models.CommunityPost) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

// Sanitize strips markup from text, unescaping entities until nothing changes,
// then NFC-normalizes and trims it. A changing pass always shrinks the text, so
// the byte length bounds the passes.
func (f *CommunityFeed) Sanitize(text string) string {
	out := text
	for range len(text) + 1 {
		cleaned := html.UnescapeString(f.policy.Sanitize(out))
		if cleaned == out {
			break
		}
		out = cleaned
	}
	return strings.TrimSpace(norm.NFC.String(out))
}

// Submit runs a post through sanitizing and moderation and publishes it when
// safe. A rejected or failed submission leaves the feed and cooldown untouched.
func (f *CommunityFeed) Submit(ctx context.Context, req models.NewPost) (models.CommunityPost, error) {
	actor := req.Actor
	if actor == "" {
		actor = LocalActor
	}
	if strings.TrimSpace(req.Content) == "" {
		return models.CommunityPost{}, ErrEmptyPost
	}

	f.mu.Lock()
	if f.inFlight[actor] || f.cooldown.SecondsRemaining(actor) > 0 {
		f.mu.Unlock()
		submissionsTotal.WithLabelValues("rate_limited").Inc()
		return models.CommunityPost{}, ErrRateLimited
	}
	f.inFlight[actor] = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.inFlight, actor)
		f.mu.Unlock()
	}()

	state, _ := SubmissionIdle.next(eventAccepted)

	content := f.Sanitize(req.Content)
	if content == "" {
		submissionsTotal.WithLabelValues("invalid").Inc()
		return models.CommunityPost{}, ErrEmptyPost
	}
	if utf8.RuneCountInString(content) > models.MaxPostLength {
		submissionsTotal.WithLabelValues("invalid").Inc()
		return models.CommunityPost{}, ErrPostTooLong
	}
	state, _ = state.next(eventSanitized)

	verdict, err := f.moderator.Moderate(ctx, content)
	if err != nil {
		state, _ = state.next(eventFailed)
		f.finish(state, actor)
		f.logger.Warn("moderation failed", zap.String("actor", actor), zap.Error(err))
		return models.CommunityPost{}, fmt.Errorf("%w: %w", ErrModerationFailed, err)
	}
	if !verdict.Safe {
		state, _ = state.next(eventUnsafe)
		f.finish(state, actor)
		reason := verdict.Reason
		if reason == "" {
			reason = RejectedFallbackMessage
		}
		return models.CommunityPost{}, &RejectedError{Reason: reason}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.cooldown.TryAcquire(actor) {
		submissionsTotal.WithLabelValues("rate_limited").Inc()
		return models.CommunityPost{}, ErrRateLimited
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = LocalAuthor
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	post := models.CommunityPost{
		ID:           uuid.NewString(),
		Author:       author,
		Category:     category,
		CategorySlug: slug.Make(category),
		Content:      content,
		Timestamp:    f.clock.Now(),
	}
	f.posts = append([]models.CommunityPost{post}, f.posts...)

	state, _ = state.next(eventSafe)
	f.finish(state, actor)
	return post, nil
}

func (f *CommunityFeed) finish(state SubmissionState, actor string) {
	submissionsTotal.WithLabelValues(state.String()).Inc()
	f.logger.Info("📝 Submission finished", zap.String("actor", actor), zap.Stringer("state", state))
}

// Posts returns copies of the feed, newest first. A non-empty category keeps
// only posts whose category slug matches.
func (f *CommunityFeed) Posts(category string) []models.CommunityPost {
	want := ""
	if strings.TrimSpace(category) != "" {
		want = slug.Make(category)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.CommunityPost, 0, len(f.posts))
	for _, p := range f.posts {
		if want != "" && p.CategorySlug != want {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Post looks up a single post by id.
func (f *CommunityFeed) Post(id string) (models.CommunityPost, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexLocked(id); i >= 0 {
		return f.posts[i], true
	}
	return models.CommunityPost{}, false
}

func (f *CommunityFeed) indexLocked(id string) int {
	for i := range f.posts {
		if f.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// React adds one reaction of kind to a post. Reported posts still accept
// reactions.
func (f *CommunityFeed) React(postID string, kind models.ReactionKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(postID)
	if i < 0 {
		return false
	}
	return f.posts[i].Reactions.Add(kind)
}

// Report hides a post's content. There is no way back.
func (f *CommunityFeed) Report(postID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(postID)
	if i < 0 {
		return false
	}
	if !f.posts[i].IsReported {
		f.posts[i].IsReported = true
		f.logger.Info("🚩 Post reported", zap.String("post_id", postID))
	}
	return true
}
