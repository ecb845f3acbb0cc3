package models

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedPost is a bundled post; Age is how long before start-up it was written
type SeedPost struct {
	ID        string        `yaml:"id"`
	Author    string        `yaml:"author"`
	Category  string        `yaml:"category"`
	Content   string        `yaml:"content"`
	Age       time.Duration `yaml:"age"`
	Reactions Reactions     `yaml:"reactions"`
}

// SeedContent is the content shipped with the app
type SeedContent struct {
	DailyBread Verse      `yaml:"daily_bread"`
	Samples    []Verse    `yaml:"samples"`
	Posts      []SeedPost `yaml:"posts"`
}

// LoadSeedContent parses the embedded seed file.
func LoadSeedContent() (SeedContent, error) {
	var seed SeedContent
	if err := yaml.Unmarshal(seedYAML, &seed); err != nil {
		return SeedContent{}, fmt.Errorf("parse seed content: %w", err)
	}
	if err := seed.DailyBread.Validate(); err != nil {
		return SeedContent{}, fmt.Errorf("seed daily bread: %w", err)
	}
	for i, v := range seed.Samples {
		if err := v.Validate(); err != nil {
			return SeedContent{}, fmt.Errorf("seed sample %d: %w", i, err)
		}
	}
	return seed, nil
}

// MustLoadSeedContent is LoadSeedContent for start-up paths; the file is
// compiled in, so a failure is a build defect.
func MustLoadSeedContent() SeedContent {
	seed, err := LoadSeedContent()
	if err != nil {
		panic(err)
	}
	return seed
}
