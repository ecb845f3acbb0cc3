package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProgress(t *testing.T) {
	p := DefaultProgress()
	assert.Equal(t, int64(0), p.XP)
	assert.Equal(t, LevelCrumb, p.Level)
	assert.Equal(t, 1, p.Streak)
	assert.NotNil(t, p.CompletedChallenges)
	assert.NotNil(t, p.Crumbs)
	assert.Empty(t, p.CompletedChallenges)
	assert.Empty(t, p.Crumbs)
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	p := DefaultProgress()
	p.Crumbs = append(p.Crumbs, "John 3:16")

	c := p.Clone()
	c.Crumbs[0] = "Psalm 23:1"
	c.CompletedChallenges = append(c.CompletedChallenges, "bold-faith")

	assert.Equal(t, "John 3:16", p.Crumbs[0])
	assert.Empty(t, p.CompletedChallenges)
}

func TestVerseValidate(t *testing.T) {
	v := Verse{
		Reference: "Psalm 23:1",
		Text:      "The Lord is my shepherd.",
		Breakdown: "God guides you.",
		RealTalk:  "You are not alone.",
		Challenge: "Pray once today.",
	}
	require.NoError(t, v.Validate(), "prayer is optional")

	v.RealTalk = "   "
	err := v.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "realTalk")
}

func TestParseMood(t *testing.T) {
	m, ok := ParseMood("overthinking")
	require.True(t, ok)
	assert.Equal(t, MoodOverthinking, m)

	_, ok = ParseMood("Bored")
	assert.False(t, ok)

	assert.Len(t, Moods, 7)
	assert.True(t, MoodLonely.Valid())
	assert.False(t, Mood("lonely").Valid())
}

func TestReactionKinds(t *testing.T) {
	var r Reactions
	assert.True(t, r.Add(ReactionAmen))
	assert.True(t, r.Add(ReactionPraying))
	assert.True(t, r.Add(ReactionPraying))
	assert.False(t, r.Add(ReactionKind(42)))
	assert.Equal(t, Reactions{Amen: 1, Praying: 2}, r)

	k, ok := ParseReactionKind("Encouraging")
	require.True(t, ok)
	assert.Equal(t, ReactionEncouraging, k)
	assert.Equal(t, "encouraging", k.String())

	_, ok = ParseReactionKind("like")
	assert.False(t, ok)
}

func TestPostDisplayAndInitial(t *testing.T) {
	p := CommunityPost{Author: "émile", Content: "Hello"}
	assert.Equal(t, "Hello", p.DisplayContent())
	assert.Equal(t, "E", p.Initial())

	p.IsReported = true
	assert.Equal(t, HiddenPostPlaceholder, p.DisplayContent())

	assert.Equal(t, "?", CommunityPost{Author: "  "}.Initial())
}

func TestFindChallenge(t *testing.T) {
	c, ok := FindChallenge("bold-faith")
	require.True(t, ok)
	assert.Equal(t, XPChallengeComplete, c.XP)

	_, ok = FindChallenge("nope")
	assert.False(t, ok)
}

func TestActivityXP(t *testing.T) {
	xp, ok := ActivityXP(ActivityCheckIn)
	require.True(t, ok)
	assert.Equal(t, int64(25), xp)

	_, ok = ActivityXP(Activity("nap"))
	assert.False(t, ok)
}

func TestLoadSeedContent(t *testing.T) {
	seed, err := LoadSeedContent()
	require.NoError(t, err)

	assert.Equal(t, "Matthew 6:11", seed.DailyBread.Reference)
	assert.Len(t, seed.Samples, 2)
	require.Len(t, seed.Posts, 2)
	assert.Equal(t, time.Hour, seed.Posts[0].Age)
	assert.Equal(t, Reactions{Amen: 4, Praying: 15, Encouraging: 22}, seed.Posts[1].Reactions)
}
