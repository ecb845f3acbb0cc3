package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"bread-daily-service/models"
	"bread-daily-service/storage"

	"go.uber.org/zap"
)

// ProgressKey is the storage key of the persisted progress blob
const ProgressKey = "breadDaily_progress"

var (
	ErrInvalidXPAmount  = errors.New("xp amount must be positive")
	ErrInvalidReference = errors.New("verse reference is required")
	ErrUnknownChallenge = errors.New("unknown challenge")
	ErrUnknownActivity  = errors.New("unknown activity")
	ErrXPOverflow       = errors.New("xp total would overflow")
	// ErrPersistence wraps backend failures. The in-memory mutation is kept.
	ErrPersistence = errors.New("progress could not be saved")
)

// ProgressStore owns the local user's progress record. Every mutation goes
// through it so level stays derived from XP and the sets stay duplicate-free.
type ProgressStore struct {
	mu       sync.Mutex
	kv       storage.KVStore
	levels   *LevelResolver
	logger   *zap.Logger
	progress models.UserProgress
}

// NewProgressStore loads the persisted record, falling back to defaults when it
// is absent or unreadable.
func NewProgressStore(ctx context.Context, kv storage.KVStore, levels *LevelResolver, logger *zap.Logger) *ProgressStore {
	if levels == nil {
		levels = DefaultLevelResolver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProgressStore{kv: kv, levels: levels, logger: logger}
	s.progress = s.load(ctx)
	return s
}

func (s *ProgressStore) defaults() models.UserProgress {
	p := models.DefaultProgress()
	p.Level = s.levels.Lowest()
	return p
}

func (s *ProgressStore) load(ctx context.Context) models.UserProgress {
	blob, err := s.kv.Get(ctx, ProgressKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Info("no saved progress, starting fresh")
		return s.defaults()
	}
	if err != nil {
		persistenceFailuresTotal.WithLabelValues("load").Inc()
		s.logger.Warn("progress load failed, starting fresh", zap.Error(err))
		return s.defaults()
	}

	p, err := DecodeProgress(blob, s.levels)
	if err != nil {
		persistenceFailuresTotal.WithLabelValues("corrupt").Inc()
		s.logger.Warn("saved progress is corrupt, starting fresh", zap.Error(err))
		return s.defaults()
	}
	return p
}

// EncodeProgress serializes a record into the persisted blob format.
func EncodeProgress(p models.UserProgress) ([]byte, error) {
	p = p.Clone()
	return json.Marshal(p)
}

// DecodeProgress parses a persisted blob. Level is recomputed from XP, repeated
// set entries are dropped and a non-positive streak becomes 1.
func DecodeProgress(blob []byte, levels *LevelResolver) (models.UserProgress, error) {
	var p models.UserProgress
	if err := json.Unmarshal(blob, &p); err != nil {
		return models.UserProgress{}, fmt.Errorf("decode progress: %w", err)
	}
	if p.XP < 0 {
		return models.UserProgress{}, fmt.Errorf("decode progress: negative xp %d", p.XP)
	}
	p.Level = levels.Resolve(p.XP)
	if p.Streak < 1 {
		p.Streak = 1
	}
	p.CompletedChallenges = dedupe(p.CompletedChallenges)
	p.Crumbs = dedupe(p.Crumbs)
	return p, nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Current returns a copy of the record.
func (s *ProgressStore) Current() models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Clone()
}

// Levels exposes the resolver used by the store.
func (s *ProgressStore) Levels() *LevelResolver {
	return s.levels
}

// persistLocked writes the current record. Caller holds s.mu, so writes land in
// mutation order.
func (s *ProgressStore) persistLocked(ctx context.Context) error {
	blob, err := EncodeProgress(s.progress)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := s.kv.Put(ctx, ProgressKey, blob); err != nil {
		persistenceFailuresTotal.WithLabelValues("save").Inc()
		s.logger.Error("progress save failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *ProgressStore) addXPLocked(amount int64, reason string) error {
	if amount > math.MaxInt64-s.progress.XP {
		return fmt.Errorf("%w: %d + %d", ErrXPOverflow, s.progress.XP, amount)
	}
	oldLevel := s.progress.Level
	s.progress.XP += amount
	s.progress.Level = s.levels.Resolve(s.progress.XP)
	xpAwardedTotal.WithLabelValues(reason).Add(float64(amount))

	s.logger.Info("🎮 XP awarded",
		zap.Int64("amount", amount),
		zap.Int64("xp", s.progress.XP),
		zap.String("level", string(s.progress.Level)),
		zap.String("reason", reason),
	)
	if s.progress.Level != oldLevel {
		s.logger.Info("level up", zap.String("from", string(oldLevel)), zap.String("to", string(s.progress.Level)))
	}
	return nil
}

// AddXP adds a positive amount and persists the result.
func (s *ProgressStore) AddXP(ctx context.Context, amount int64, reason string) (models.UserProgress, error) {
	if amount <= 0 {
		return s.Current(), ErrInvalidXPAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addXPLocked(amount, reason); err != nil {
		return s.progress.Clone(), err
	}
	err := s.persistLocked(ctx)
	return s.progress.Clone(), err
}

// AwardActivity grants the fixed reward of a known activity.
func (s *ProgressStore) AwardActivity(ctx context.Context, activity models.Activity) (models.UserProgress, error) {
	amount, ok := models.ActivityXP(activity)
	if !ok {
		return s.Current(), fmt.Errorf("%w: %s", ErrUnknownActivity, activity)
	}
	return s.AddXP(ctx, amount, string(activity))
}

// ToggleCrumb bookmarks ref, or removes the bookmark if it is already saved.
// saved reports the state after the toggle.
func (s *ProgressStore) ToggleCrumb(ctx context.Context, ref string) (saved bool, p models.UserProgress, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false, s.Current(), ErrInvalidReference
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress.HasCrumb(ref) {
		s.progress.Crumbs = without(s.progress.Crumbs, ref)
	} else {
		s.progress.Crumbs = append(s.progress.Crumbs, ref)
		saved = true
	}
	err = s.persistLocked(ctx)
	return saved, s.progress.Clone(), err
}

// RemoveCrumb drops ref from the bookmarks. Removing an absent ref is a no-op.
func (s *ProgressStore) RemoveCrumb(ctx context.Context, ref string) (models.UserProgress, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return s.Current(), ErrInvalidReference
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.progress.HasCrumb(ref) {
		return s.progress.Clone(), nil
	}
	s.progress.Crumbs = without(s.progress.Crumbs, ref)
	err := s.persistLocked(ctx)
	return s.progress.Clone(), err
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

// CompleteChallenge records the challenge and awards its XP once. awarded is
// false when it was already completed.
func (s *ProgressStore) CompleteChallenge(ctx context.Context, id string) (awarded bool, p models.UserProgress, err error) {
	challenge, ok := models.FindChallenge(id)
	if !ok {
		return false, s.Current(), fmt.Errorf("%w: %s", ErrUnknownChallenge, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress.HasCompleted(challenge.ID) {
		return false, s.progress.Clone(), nil
	}
	if err := s.addXPLocked(challenge.XP, "challenge_"+challenge.ID); err != nil {
		return false, s.progress.Clone(), err
	}
	s.progress.CompletedChallenges = append(s.progress.CompletedChallenges, challenge.ID)
	err = s.persistLocked(ctx)
	return true, s.progress.Clone(), err
}

// Reset erases the persisted record and starts over from defaults. Confirming
// with the user is the caller's job.
func (s *ProgressStore) Reset(ctx context.Context) (models.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, ProgressKey); err != nil {
		persistenceFailuresTotal.WithLabelValues("reset").Inc()
		return s.progress.Clone(), fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.progress = s.defaults()
	s.logger.Warn("progress reset")
	return s.progress.Clone(), nil
}
