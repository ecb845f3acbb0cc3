package models

// Challenge is a 7-day devotional challenge the user can complete once
type Challenge struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	XP          int64  `json:"xp" yaml:"xp"`
	TotalDays   int    `json:"total_days" yaml:"total_days"`
}

// Challenges is the fixed catalog. Every entry rewards XPChallengeComplete.
var Challenges = []Challenge{
	{
		ID:          "anxiety-reset",
		Title:       "Anxiety Reset",
		Description: "Find peace in the chaos with 7 days of restful scripture.",
		XP:          XPChallengeComplete,
		TotalDays:   7,
	},
	{
		ID:          "identity-check",
		Title:       "Who Are You?",
		Description: "Discover your worth as God sees you, not as the world does.",
		XP:          XPChallengeComplete,
		TotalDays:   7,
	},
	{
		ID:          "bold-faith",
		Title:       "Bold Faith Week",
		Description: "Living out your faith loudly and proudly in your school.",
		XP:          XPChallengeComplete,
		TotalDays:   7,
	},
}

// FindChallenge looks up a catalog entry by id.
func FindChallenge(id string) (Challenge, bool) {
	for _, c := range Challenges {
		if c.ID == id {
			return c, true
		}
	}
	return Challenge{}, false
}
