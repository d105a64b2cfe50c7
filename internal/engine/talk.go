package engine

import (
	"log/slog"
	"strings"

	"github.com/Tanya931151/mental-scope/internal/models"
)

// Pending question identifiers for the talk sub-dialogue. Each topic has a
// fixed question sequence; the current pending id determines how the next
// non-empty input advances it.
const (
	QuestionLonelyWhere = "lonely_where"
	QuestionLonelyWhat  = "lonely_what"
	QuestionLonelyNext  = "lonely_next"

	QuestionDistressOpen     = "distress_open"
	QuestionDistressBucket   = "distress_bucket"
	QuestionDistressTasks    = "distress_tasks"
	QuestionDistressPeople   = "distress_people"
	QuestionDistressPressure = "distress_pressure"
	QuestionDistressNextStep = "distress_nextstep"
	QuestionDistressOffer    = "distress_offer"

	QuestionLoveOpen = "love_open"
	QuestionLoveFeel = "love_feel"
	QuestionLoveNext = "love_next"

	QuestionGriefOpen   = "grief_open"
	QuestionGriefFollow = "grief_follow"
	QuestionGriefNext   = "grief_next"
)

// startTalkMode (re)opens the talk sub-dialogue for a topic, resetting its
// stage counter and pending question before asking the opener.
func (e *Engine) startTalkMode(topic models.Topic, st *models.SessionState) string {
	slog.Debug("Engine.startTalkMode: entering talk mode", "topic", topic)
	st.Expecting = models.NodeTalkMode
	st.TalkTopic = topic
	st.TalkStage = 0
	st.TalkLastQuestion = ""
	return e.talkReply("", st)
}

// talkReply advances the talk sub-dialogue one step. Coping or info
// keywords switch out of talk mode carrying the topic forward; an input
// that matches no pending question gets a soft acknowledgment that does
// not advance the stage.
func (e *Engine) talkReply(s string, st *models.SessionState) string {
	// Allow switching flows from inside talk mode.
	if wantsCoping(s) {
		topic := st.TalkTopic
		if topic == models.TopicNone {
			topic = st.Topic
		}
		if topic == models.TopicNone {
			topic = DetectTopic(s)
		}
		st.Topic = topic
		return e.startCopingTip(topic, st)
	}
	if wantsInfo(s) {
		topic := st.TalkTopic
		if topic == models.TopicNone {
			topic = st.Topic
		}
		if topic == models.TopicNone {
			topic = DetectTopic(s)
		}
		st.Topic = topic
		return e.startInfoMenu(topic, st)
	}

	if s != "" {
		switch st.TalkLastQuestion {
		case QuestionLonelyWhere:
			st.TalkLastQuestion = QuestionLonelyWhat
			return "Got it. What's been happening—**no one reaches out**, **you're left out**, or **disconnected even around people**?"
		case QuestionLonelyWhat:
			st.TalkLastQuestion = QuestionLonelyNext
			return "That hurts. What would help most right now—**being heard**, **advice**, **coping tips**, or **information**?"

		case QuestionDistressOpen:
			st.TalkLastQuestion = QuestionDistressBucket
			return "Got it. Is the main issue **tasks**, **people**, or **pressure/expectations**?"
		case QuestionDistressTasks:
			st.TalkLastQuestion = QuestionDistressNextStep
			return "Thanks. What's the **closest deadline** (today/this week/later)?"
		case QuestionDistressPeople:
			st.TalkLastQuestion = QuestionDistressNextStep
			return "Got it. What's one example of what they did/said that hurt or blocked you?"
		case QuestionDistressPressure:
			st.TalkLastQuestion = QuestionDistressNextStep
			return "Okay. When pressure hits, do you go into **freeze**, **panic**, or **perfectionism**?"
		case QuestionDistressNextStep:
			st.TalkLastQuestion = QuestionDistressOffer
			return "I'm here. Do you want me to help you **plan the next 30 minutes**, or do you want **coping tips** first?"

		case QuestionLoveOpen:
			st.TalkLastQuestion = QuestionLoveFeel
			return "Aww ❤️ Is it feeling more **exciting**, **calm/safe**, or **anxious/uncertain**?"
		case QuestionLoveFeel:
			st.TalkLastQuestion = QuestionLoveNext
			return "Do you want to **talk** more, get **information**, or **coping tips** if it feels anxious?"

		case QuestionGriefOpen:
			st.TalkLastQuestion = QuestionGriefFollow
			return "I'm really sorry. Has it been **recent**, or building for a while?"
		case QuestionGriefFollow:
			st.TalkLastQuestion = QuestionGriefNext
			return "What time of day hits the hardest—**mornings**, **nights**, or **reminders**?"
		}
	}

	// The distress bucket question needs a recognized bucket, not just any
	// non-empty input.
	if st.TalkLastQuestion == QuestionDistressBucket {
		switch {
		case strings.Contains(s, "task"):
			st.TalkLastQuestion = QuestionDistressTasks
			return "Okay—tasks. What's worse: **too many tasks**, **unclear priority**, or **not enough time**?"
		case strings.Contains(s, "people"):
			st.TalkLastQuestion = QuestionDistressPeople
			return "Okay—people. Is it more **unsupported**, **conflict**, or **fear of judgment**?"
		case strings.Contains(s, "pressure"), strings.Contains(s, "expect"):
			st.TalkLastQuestion = QuestionDistressPressure
			return "Okay—pressure. Is it pressure from **yourself**, from **others**, or from **deadlines**?"
		}
		return "Just reply: **tasks**, **people**, or **pressure**."
	}

	// Stage 0: ask the topic-specific opening question.
	if st.TalkStage == 0 {
		st.TalkStage = 1
		switch st.TalkTopic {
		case models.TopicLoneliness:
			st.TalkLastQuestion = QuestionLonelyWhere
			return "I'm here. When do you feel alone the most—**at home**, **in college/work**, or **online**?"
		case models.TopicDistress:
			st.TalkLastQuestion = QuestionDistressOpen
			return "I'm listening. What's been weighing on you the most?"
		case models.TopicLove:
			st.TalkLastQuestion = QuestionLoveOpen
			return "Aww okay ❤️ Tell me—what happened that made you realize you're in love?"
		case models.TopicGrief:
			st.TalkLastQuestion = QuestionGriefOpen
			return "I'm here. What happened, and what's been the hardest part for you?"
		}
		return "I'm listening. What's been weighing on you the most?"
	}

	return "I'm with you. Tell me a bit more."
}
