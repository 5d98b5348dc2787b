package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"behavioral":    ModeBehavioral,
		" Behavioral ":  ModeBehavioral,
		"BEHAVIORAL":    ModeBehavioral,
		"technical":     ModeTechnical,
		"":              ModeTechnical,
		"system-design": ModeTechnical,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseMode(in), "input %q", in)
	}
}

func TestSelectMode(t *testing.T) {
	b := SelectMode(ModeBehavioral)
	assert.Equal(t, CorpusStarStories, b.Corpus)
	assert.Contains(t, b.Text, "BEHAVIORAL")
	assert.Contains(t, b.Text, StarStoryCorpus)

	tech := SelectMode(ModeTechnical)
	assert.Equal(t, CorpusQuestionBank, tech.Corpus)
	assert.Contains(t, tech.Text, "TECHNICAL ARCHITECT")

	assert.Equal(t, tech, SelectMode(Mode("unknown")))
}
