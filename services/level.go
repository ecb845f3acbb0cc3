package services

import (
	"fmt"

	"bread-daily-service/models"
)

// LevelTier maps a level to the minimum XP needed to reach it
type LevelTier struct {
	Level models.FaithLevel `json:"level"`
	MinXP int64             `json:"min_xp"`
}

// DefaultLevelTiers is the progression ladder, lowest first.
var DefaultLevelTiers = []LevelTier{
	{Level: models.LevelCrumb, MinXP: 0},
	{Level: models.LevelBaker, MinXP: 100},
	{Level: models.LevelDisciple, MinXP: 500},
	{Level: models.LevelBreadBuilder, MinXP: 1200},
	{Level: models.LevelFaithWarrior, MinXP: 3000},
}

// LevelResolver derives a level label from accumulated XP
type LevelResolver struct {
	tiers []LevelTier
}

// NewLevelResolver validates the ladder: it must start at 0 and strictly increase.
func NewLevelResolver(tiers []LevelTier) (*LevelResolver, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("at least one level tier is required")
	}
	if tiers[0].MinXP != 0 {
		return nil, fmt.Errorf("lowest tier %q must start at 0 XP, got %d", tiers[0].Level, tiers[0].MinXP)
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinXP <= tiers[i-1].MinXP {
			return nil, fmt.Errorf("tier %q threshold %d must exceed %q threshold %d",
				tiers[i].Level, tiers[i].MinXP, tiers[i-1].Level, tiers[i-1].MinXP)
		}
	}
	return &LevelResolver{tiers: append([]LevelTier(nil), tiers...)}, nil
}

// DefaultLevelResolver uses DefaultLevelTiers.
func DefaultLevelResolver() *LevelResolver {
	r, err := NewLevelResolver(DefaultLevelTiers)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the level with the highest threshold <= xp.
func (r *LevelResolver) Resolve(xp int64) models.FaithLevel {
	return r.tiers[r.index(xp)].Level
}

// Lowest is the level a fresh record starts at.
func (r *LevelResolver) Lowest() models.FaithLevel {
	return r.tiers[0].Level
}

// Tiers returns a copy of the ladder.
func (r *LevelResolver) Tiers() []LevelTier {
	return append([]LevelTier(nil), r.tiers...)
}

func (r *LevelResolver) index(xp int64) int {
	for i := len(r.tiers) - 1; i >= 1; i-- {
		if xp >= r.tiers[i].MinXP {
			return i
		}
	}
	return 0
}

// LevelProgress describes how far the user is through the current tier
type LevelProgress struct {
	Level     models.FaithLevel `json:"level"`
	XP        int64             `json:"xp"`
	FloorXP   int64             `json:"floor_xp"`
	NextXP    int64             `json:"next_xp"`
	NextLevel models.FaithLevel `json:"next_level"`
	Percent   float64           `json:"percent"`
}

// Progress computes the progress bar for xp. The top tier reports itself as
// the next tier. Percent is clamped to [5, 100] so the bar is always visible.
func (r *LevelResolver) Progress(xp int64) LevelProgress {
	i := r.index(xp)
	next := i + 1
	if next >= len(r.tiers) {
		next = len(r.tiers) - 1
	}
	floor := r.tiers[i].MinXP
	ceil := r.tiers[next].MinXP

	span := ceil - floor
	if span <= 0 {
		span = 1
	}
	pct := float64(xp-floor) / float64(span) * 100
	if pct < 5 {
		pct = 5
	}
	if pct > 100 {
		pct = 100
	}
	return LevelProgress{
		Level:     r.tiers[i].Level,
		XP:        xp,
		FloorXP:   floor,
		NextXP:    ceil,
		NextLevel: r.tiers[next].Level,
		Percent:   pct,
	}
}
