package engine

import (
	"strings"

	"github.com/Tanya931151/mental-scope/internal/models"
)

// overwhelmedFuzzyThreshold is the similarity cutoff for the typo-tolerant
// "overwhelmed" check.
const overwhelmedFuzzyThreshold = 0.76

// DetectTopic maps free text to a topic with fixed precedence. The ordering
// is load-bearing: crisis and pet-grief need distinguishing context that
// the broader distress bucket would swallow. Pure function of the text.
func DetectTopic(text string) models.Topic {
	t := Lower(text)

	if ContainsAnyPhrase(t, selfHarmPhrases) {
		return models.TopicCrisis
	}

	// Grief phrases alone are too ambiguous; require a pet mention.
	if ContainsAnyPhrase(t, griefPhrases) && anyWordIn(t, petWords) {
		return models.TopicGrief
	}

	if strings.Contains(t, "alone") || strings.Contains(t, "lonely") ||
		ContainsAnyPhrase(t, lonelyPhrases) || anyWordIn(t, friendExcludeCues) {
		return models.TopicLoneliness
	}

	if ContainsAnyPhrase(t, loveWords) || strings.Contains(t, "crush") || strings.Contains(t, "in love") {
		return models.TopicLove
	}

	if anyWordIn(t, workWords) {
		return models.TopicDistress
	}
	if strings.Contains(t, "overwhelmed") || FuzzyWordInText(t, "overwhelmed", overwhelmedFuzzyThreshold) {
		return models.TopicDistress
	}
	if anyWordIn(t, negWords) {
		return models.TopicDistress
	}

	return models.TopicGeneral
}
