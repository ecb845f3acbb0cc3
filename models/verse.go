package models

import (
	"fmt"
	"strings"
)

// Verse is a devotional card. Treated as an immutable value.
type Verse struct {
	Reference string `json:"reference" yaml:"reference"`
	Text      string `json:"text" yaml:"text"`
	Breakdown string `json:"breakdown" yaml:"breakdown"`
	RealTalk  string `json:"realTalk" yaml:"realTalk"`
	Challenge string `json:"challenge" yaml:"challenge"`
	Prayer    string `json:"prayer,omitempty" yaml:"prayer,omitempty"`
}

// Validate checks that every required field is present.
func (v Verse) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"reference", v.Reference},
		{"text", v.Text},
		{"breakdown", v.Breakdown},
		{"realTalk", v.RealTalk},
		{"challenge", v.Challenge},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("verse field %q is required", f.name)
		}
	}
	return nil
}

// Mood is the closed set of feelings a user can pick to get a matching verse
type Mood string

const (
	MoodStressed     Mood = "Stressed"
	MoodAngry        Mood = "Angry"
	MoodLonely       Mood = "Lonely"
	MoodJealous      Mood = "Jealous"
	MoodDoubting     Mood = "Doubting"
	MoodOverthinking Mood = "Overthinking"
	MoodConfident    Mood = "Confident"
)

// Moods lists every mood in display order.
var Moods = []Mood{
	MoodStressed,
	MoodAngry,
	MoodLonely,
	MoodJealous,
	MoodDoubting,
	MoodOverthinking,
	MoodConfident,
}

// ParseMood accepts a mood label case-insensitively.
func ParseMood(s string) (Mood, bool) {
	s = strings.TrimSpace(s)
	for _, m := range Moods {
		if strings.EqualFold(string(m), s) {
			return m, true
		}
	}
	return "", false
}

// Valid reports whether m is one of the seven moods.
func (m Mood) Valid() bool {
	for _, known := range Moods {
		if known == m {
			return true
		}
	}
	return false
}
