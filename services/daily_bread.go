package services

import (
	"context"
	"errors"
	"sync"

	"bread-daily-service/models"

	"go.uber.org/zap"
)

// VerseFetchFailedMessage is shown when a mood verse could not be fetched
const VerseFetchFailedMessage = "Couldn't reach the Bread Oven. Try again later."

// ErrStaleVerse is returned by RefreshByMood when a newer refresh superseded it.
var ErrStaleVerse = errors.New("verse request superseded")

// VerseSource produces a verse for a mood
type VerseSource interface {
	FetchByMood(ctx context.Context, mood models.Mood) (models.Verse, error)
}

// VerseState is what the daily bread screen shows
type VerseState struct {
	Verse   models.Verse `json:"verse"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
}

// VerseBoard holds the displayed verse and swaps it for mood-picked ones.
// Only the latest refresh may change the board.
type VerseBoard struct {
	mu         sync.Mutex
	source     VerseSource
	progress   *ProgressStore
	logger     *zap.Logger
	state      VerseState
	samples    []models.Verse
	generation uint64
}

func NewVerseBoard(source VerseSource, progress *ProgressStore, seed models.SeedContent, logger *zap.Logger) *VerseBoard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerseBoard{
		source:   source,
		progress: progress,
		logger:   logger,
		state:    VerseState{Verse: seed.DailyBread},
		samples:  append([]models.Verse(nil), seed.Samples...),
	}
}

// State returns the current board.
func (b *VerseBoard) State() VerseState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Samples lists the verses bundled with the app.
func (b *VerseBoard) Samples() []models.Verse {
	return append([]models.Verse(nil), b.samples...)
}

// RefreshByMood fetches a verse for mood. On success the verse replaces the
// displayed one and mood-finder XP is awarded. On failure the previous verse
// stays and the board carries VerseFetchFailedMessage.
func (b *VerseBoard) RefreshByMood(ctx context.Context, mood models.Mood) (VerseState, error) {
	if !mood.Valid() {
		return b.State(), ErrUnknownMood
	}

	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.state.Loading = true
	b.state.Error = ""
	b.mu.Unlock()

	verse, err := b.source.FetchByMood(ctx, mood)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		b.logger.Debug("discarding stale verse", zap.String("mood", string(mood)))
		return b.State(), ErrStaleVerse
	}
	b.state.Loading = false
	if err != nil {
		b.state.Error = VerseFetchFailedMessage
		state := b.state
		b.mu.Unlock()
		return state, err
	}
	b.state.Verse = verse
	state := b.state
	b.mu.Unlock()

	if b.progress != nil {
		if _, xpErr := b.progress.AwardActivity(ctx, models.ActivityMoodFinder); xpErr != nil {
			b.logger.Warn("mood finder xp not saved", zap.Error(xpErr))
		}
	}
	return state, nil
}
