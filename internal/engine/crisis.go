package engine

import (
	"log/slog"

	"github.com/Tanya931151/mental-scope/internal/models"
)

// CrisisReply is the fixed, non-randomized response to a self-harm
// disclosure: acknowledgment, emergency contacts, and a safety question.
const CrisisReply = "I'm really sorry you're feeling this way. 💛\n" +
	"Please don't hurt yourself. You matter.\n\n" +
	"📞 If you are in India, call: 9152987821 (AASRA)\n" +
	"Or dial 112 immediately.\n\n" +
	"I'm here for you. Are you in a safe place right now?"

// IsCrisis reports whether the text contains any self-harm phrase. Literal
// substring matching only: a false positive on hyperbole is acceptable, a
// missed disclosure is not.
func IsCrisis(text string) bool {
	return ContainsAnyPhrase(text, selfHarmPhrases)
}

// crisisInterrupt produces the crisis reply and the post-interrupt session
// state. It is the only transition allowed to bypass node precedence.
func (e *Engine) crisisInterrupt(st *models.SessionState) (string, []models.Option) {
	slog.Warn("Engine.crisisInterrupt: self-harm phrase detected, overriding dialogue state",
		"previous_node", st.Expecting, "previous_topic", st.Topic)
	st.Topic = models.TopicCrisis
	st.Emotion = "crisis"
	st.Expecting = models.NodeStart
	return CrisisReply, e.startOptions()
}
