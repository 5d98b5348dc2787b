package interview

import "strings"

type Mode string

const (
	ModeTechnical  Mode = "technical"
	ModeBehavioral Mode = "behavioral"
)

// Corpus names the reference material a mode treats as authoritative.
type Corpus string

const (
	CorpusQuestionBank Corpus = "technical_question_bank"
	CorpusStarStories  Corpus = "behavioral_star_stories"
)

type ModeDirective struct {
	Mode   Mode
	Corpus Corpus
	Stance string
	Text   string
}

// ParseMode never fails: unrecognized or empty values select technical.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeBehavioral)) {
		return ModeBehavioral
	}
	return ModeTechnical
}

func SelectMode(m Mode) ModeDirective {
	switch m {
	case ModeBehavioral:
		return ModeDirective{
			Mode:   ModeBehavioral,
			Corpus: CorpusStarStories,
			Stance: "bar raiser / hiring manager",
			Text:   behavioralDirective,
		}
	case ModeTechnical:
		fallthrough
	default:
		return ModeDirective{
			Mode:   ModeTechnical,
			Corpus: CorpusQuestionBank,
			Stance: "technical architect",
			Text:   technicalDirective,
		}
	}
}
