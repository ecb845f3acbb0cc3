package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/gosimple/unidecode"
)

// MaxPostLength is the longest post content accepted, in characters
const MaxPostLength = 500

// HiddenPostPlaceholder replaces the content of reported posts
const HiddenPostPlaceholder = "This content is hidden pending review."

// DefaultCategory is used when a post is submitted without one
const DefaultCategory = "General"

// PostCategories are the categories offered by the composer.
var PostCategories = []string{"School Stress", "Sports", "Doubt", "Creativity", "Leadership", DefaultCategory}

// ReactionKind is the closed set of reactions a post accepts
type ReactionKind int

const (
	ReactionAmen ReactionKind = iota + 1
	ReactionPraying
	ReactionEncouraging
)

func (k ReactionKind) String() string {
	switch k {
	case ReactionAmen:
		return "amen"
	case ReactionPraying:
		return "praying"
	case ReactionEncouraging:
		return "encouraging"
	}
	return "unknown"
}

// ParseReactionKind maps a wire name to a ReactionKind.
func ParseReactionKind(s string) (ReactionKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amen":
		return ReactionAmen, true
	case "praying":
		return ReactionPraying, true
	case "encouraging":
		return ReactionEncouraging, true
	}
	return 0, false
}

// Reactions holds the three independent counters of a post
type Reactions struct {
	Amen        int `json:"amen" yaml:"amen"`
	Praying     int `json:"praying" yaml:"praying"`
	Encouraging int `json:"encouraging" yaml:"encouraging"`
}

// Add increments the counter for kind. Unknown kinds are ignored.
func (r *Reactions) Add(kind ReactionKind) bool {
	switch kind {
	case ReactionAmen:
		r.Amen++
	case ReactionPraying:
		r.Praying++
	case ReactionEncouraging:
		r.Encouraging++
	default:
		return false
	}
	return true
}

// CommunityPost is one entry of the community feed
type CommunityPost struct {
	ID           string    `json:"id"`
	Author       string    `json:"author"`
	Category     string    `json:"category"`
	CategorySlug string    `json:"category_slug"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	Reactions    Reactions `json:"reactions"`
	IsReported   bool      `json:"isReported"`
}

// DisplayContent is what a reader sees: the content, or a placeholder once reported.
func (p CommunityPost) DisplayContent() string {
	if p.IsReported {
		return HiddenPostPlaceholder
	}
	return p.Content
}

// Initial is the avatar letter for the author, folded to ASCII.
func (p CommunityPost) Initial() string {
	for _, r := range unidecode.Unidecode(p.Author) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return strings.ToUpper(string(r))
		}
	}
	return "?"
}

// NewPost is a submission request from the composer
type NewPost struct {
	Actor    string `json:"-"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Content  string `json:"content"`
}
