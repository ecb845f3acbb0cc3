package services

import (
	"bread-daily-service/models"

	"go.uber.org/zap"
)

// BadgeService evaluates milestone badges against a progress record. Badges are
// derived, never stored, so a reset takes them away with everything else.
type BadgeService struct {
	badges []models.BadgeType
	logger *zap.Logger
}

func NewBadgeService(badges []models.BadgeType, logger *zap.Logger) *BadgeService {
	if badges == nil {
		badges = models.MilestoneBadges
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{badges: badges, logger: logger}
}

// Evaluate lists every badge with its earned flag, in display order.
func (s *BadgeService) Evaluate(prog models.UserProgress) []models.EarnedBadge {
	out := make([]models.EarnedBadge, 0, len(s.badges))
	for _, b := range s.badges {
		out = append(out, models.EarnedBadge{BadgeType: b, Earned: s.meetsThreshold(prog, b.Threshold)})
	}
	return out
}

// Earned lists only the unlocked badges.
func (s *BadgeService) Earned(prog models.UserProgress) []models.BadgeType {
	var earned []models.BadgeType
	for _, b := range s.Evaluate(prog) {
		if b.Earned {
			earned = append(earned, b.BadgeType)
		}
	}
	return earned
}

// NewlyEarned lists badges unlocked by after that were locked in before.
func (s *BadgeService) NewlyEarned(before, after models.UserProgress) []models.BadgeType {
	var fresh []models.BadgeType
	for _, b := range s.badges {
		if !s.meetsThreshold(before, b.Threshold) && s.meetsThreshold(after, b.Threshold) {
			fresh = append(fresh, b)
			s.logger.Info("🎖️ Badge earned", zap.String("badge", b.Code))
		}
	}
	return fresh
}

func (s *BadgeService) meetsThreshold(prog models.UserProgress, req map[string]int64) bool {
	if len(req) == 0 {
		return false
	}
	for key, required := range req {
		switch key {
		case models.ThresholdCompletedChallenges:
			if int64(len(prog.CompletedChallenges)) < required {
				return false
			}
		case models.ThresholdCrumbs:
			if int64(len(prog.Crumbs)) < required {
				return false
			}
		case models.ThresholdXP:
			if prog.XP < required {
				return false
			}
		default:
			return false
		}
	}
	return true
}
