package models

// FaithLevel is a named stage in the XP progression
type FaithLevel string

const (
	LevelCrumb        FaithLevel = "Crumb"
	LevelBaker        FaithLevel = "Baker"
	LevelDisciple     FaithLevel = "Disciple"
	LevelBreadBuilder FaithLevel = "Bread Builder"
	LevelFaithWarrior FaithLevel = "Faith Warrior"
)

// UserProgress is the single local user's progression record. The JSON shape is
// the persisted blob format and must stay stable.
type UserProgress struct {
	XP                  int64      `json:"xp"`
	Level               FaithLevel `json:"level"` // derived from XP, never set by callers
	Streak              int        `json:"streak"`
	CompletedChallenges []string   `json:"completedChallenges"`
	Crumbs              []string   `json:"crumbs"` // bookmarked verse references
}

// DefaultProgress is the record a fresh install (or a reset) starts from.
func DefaultProgress() UserProgress {
	return UserProgress{
		XP:                  0,
		Level:               LevelCrumb,
		Streak:              1,
		CompletedChallenges: []string{},
		Crumbs:              []string{},
	}
}

// Clone returns a copy that shares no slices with p.
func (p UserProgress) Clone() UserProgress {
	out := p
	out.CompletedChallenges = append([]string{}, p.CompletedChallenges...)
	out.Crumbs = append([]string{}, p.Crumbs...)
	return out
}

// HasCrumb reports whether ref is bookmarked.
func (p UserProgress) HasCrumb(ref string) bool {
	return contains(p.Crumbs, ref)
}

// HasCompleted reports whether the challenge id was already completed.
func (p UserProgress) HasCompleted(id string) bool {
	return contains(p.CompletedChallenges, id)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Activity is an XP-earning action with a fixed reward
type Activity string

const (
	ActivityCheckIn    Activity = "check_in"
	ActivityBreadMode  Activity = "bread_mode"
	ActivityMoodFinder Activity = "mood_finder"
)

// XP rewards
const (
	XPCheckIn           int64 = 25
	XPBreadMode         int64 = 50
	XPMoodFinder        int64 = 15
	XPChallengeComplete int64 = 250
)

// ActivityXP returns the reward for a known activity.
func ActivityXP(a Activity) (int64, bool) {
	switch a {
	case ActivityCheckIn:
		return XPCheckIn, true
	case ActivityBreadMode:
		return XPBreadMode, true
	case ActivityMoodFinder:
		return XPMoodFinder, true
	}
	return 0, false
}
