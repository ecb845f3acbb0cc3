package models

// BadgeType describes a milestone badge and what unlocks it
type BadgeType struct {
	Code        string           `json:"code"` // e.g., "FIRST_CHALLENGE"
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	Rarity      string           `json:"rarity"`    // common, rare, epic
	Threshold   map[string]int64 `json:"threshold"` // e.g., {"completed_challenges": 2}
}

// EarnedBadge is a badge unlocked by the current progress record
type EarnedBadge struct {
	BadgeType
	Earned bool `json:"earned"`
}

// Threshold keys understood by the badge evaluator
const (
	ThresholdCompletedChallenges = "completed_challenges"
	ThresholdCrumbs              = "crumbs"
	ThresholdXP                  = "xp"
)

// MilestoneBadges are shown on the challenges screen in this order
var MilestoneBadges = []BadgeType{
	{
		Code:        "FIRST_CHALLENGE",
		Name:        "On Fire",
		Description: "Completed your first 7-day challenge",
		Icon:        "flame",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdCompletedChallenges: 1},
	},
	{
		Code:        "SECOND_CHALLENGE",
		Name:        "Rising Star",
		Description: "Completed two 7-day challenges",
		Icon:        "star",
		Rarity:      "rare",
		Threshold:   map[string]int64{ThresholdCompletedChallenges: 2},
	},
	{
		Code:        "FIRST_CRUMB",
		Name:        "Crumb Collector",
		Description: "Saved your first verse",
		Icon:        "bookmark",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdCrumbs: 1},
	},
	{
		Code:        "DISCIPLE",
		Name:        "Disciple",
		Description: "Reached the Disciple level",
		Icon:        "shield",
		Rarity:      "epic",
		Threshold:   map[string]int64{ThresholdXP: 500},
	},
}
