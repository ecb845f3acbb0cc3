package services

import (
	"testing"

	"bread-daily-service/models"

	"github.com/stretchr/testify/assert"
)

func earnedCodes(badges []models.BadgeType) []string {
	var codes []string
	for _, b := range badges {
		codes = append(codes, b.Code)
	}
	return codes
}

func TestBadgesForFreshProgress(t *testing.T) {
	s := NewBadgeService(nil, nil)
	assert.Empty(t, s.Earned(models.DefaultProgress()))

	all := s.Evaluate(models.DefaultProgress())
	assert.Len(t, all, len(models.MilestoneBadges))
	for _, b := range all {
		assert.False(t, b.Earned, b.Code)
	}
}

func TestBadgesUnlockByMilestone(t *testing.T) {
	s := NewBadgeService(nil, nil)
	p := models.DefaultProgress()
	p.CompletedChallenges = []string{"anxiety-reset"}
	p.XP = 250
	assert.Equal(t, []string{"FIRST_CHALLENGE"}, earnedCodes(s.Earned(p)))

	p.CompletedChallenges = append(p.CompletedChallenges, "bold-faith")
	p.XP = 500
	p.Crumbs = []string{"Joshua 1:9"}
	assert.Equal(t, []string{"FIRST_CHALLENGE", "SECOND_CHALLENGE", "FIRST_CRUMB", "DISCIPLE"}, earnedCodes(s.Earned(p)))
}

func TestNewlyEarnedReportsOnlyTransitions(t *testing.T) {
	s := NewBadgeService(nil, nil)
	before := models.DefaultProgress()
	before.Crumbs = []string{"Psalm 23:1"}

	after := before.Clone()
	after.CompletedChallenges = []string{"identity-check"}

	assert.Equal(t, []string{"FIRST_CHALLENGE"}, earnedCodes(s.NewlyEarned(before, after)))
	assert.Empty(t, s.NewlyEarned(after, after))
}

func TestUnknownThresholdNeverUnlocks(t *testing.T) {
	s := NewBadgeService([]models.BadgeType{
		{Code: "ODD", Threshold: map[string]int64{"prayers": 1}},
		{Code: "EMPTY"},
	}, nil)
	p := models.DefaultProgress()
	p.XP = 10_000
	assert.Empty(t, s.Earned(p))
}
