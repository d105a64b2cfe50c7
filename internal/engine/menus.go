package engine

import (
	"log/slog"
	"strings"

	"github.com/Tanya931151/mental-scope/internal/models"
)

// helpMenuPrompt offers the three top-level choices. It doubles as the
// worst-case output: every degraded path lands here.
const helpMenuPrompt = "What would help most right now — **talk**, **coping tips**, or **information**?"

// menuHandler interprets one turn of input against an active dialogue node.
// Handlers mutate the turn's own state copy and return the reply; an
// unrecognized input must re-prompt, never error.
type menuHandler func(e *Engine, s string, st *models.SessionState) string

// menuHandlers is the transition table for the built-in menu machine. Menu
// nodes never consult the probabilistic classifier.
var menuHandlers = map[models.NodeID]menuHandler{
	models.NodeHelpMenu:              (*Engine).handleHelpMenu,
	models.NodeInfoMenu:              (*Engine).handleInfoMenu,
	models.NodeCopingMenu:            (*Engine).handleCopingMenu,
	models.NodeCopingFollowup:        (*Engine).handleCopingFollowup,
	models.NodeDistressInfoNextSteps: (*Engine).handleDistressInfoNextSteps,
	models.NodeTalkMode:              (*Engine).talkReply,
}

// showHelpMenu displays the top-level menu and parks the session on it.
func (e *Engine) showHelpMenu(st *models.SessionState) string {
	st.Expecting = models.NodeHelpMenu
	return helpMenuPrompt
}

func (e *Engine) handleHelpMenu(s string, st *models.SessionState) string {
	if strings.Contains(s, "talk") {
		topic := st.Topic
		if topic == models.TopicNone {
			topic = DetectTopic(s)
		}
		// Talk mode never opens on the crisis topic.
		if topic == models.TopicCrisis {
			topic = models.TopicGeneral
		}
		return e.startTalkMode(topic, st)
	}
	if wantsCoping(s) {
		topic := st.Topic
		if topic == models.TopicNone {
			topic = DetectTopic(s)
		}
		return e.startCopingTip(topic, st)
	}
	if wantsInfo(s) {
		topic := st.Topic
		if topic == models.TopicNone {
			topic = DetectTopic(s)
		}
		return e.startInfoMenu(topic, st)
	}
	slog.Debug("Engine.handleHelpMenu: unrecognized input, re-prompting")
	return e.showHelpMenu(st)
}

func (e *Engine) startInfoMenu(topic models.Topic, st *models.SessionState) string {
	st.Expecting = models.NodeInfoMenu
	st.Topic = topic
	return "What kind of info do you want?\n" +
		"1) **Why I might feel this way**\n" +
		"2) **What to do next**\n" +
		"3) **Signs it's getting serious**\n" +
		"4) **Back**"
}

func (e *Engine) handleInfoMenu(s string, st *models.SessionState) string {
	if s == "4" || s == "back" {
		return e.showHelpMenu(st)
	}

	topic := st.Topic
	if topic == models.TopicNone {
		topic = models.TopicGeneral
	}

	if s == "1" || strings.Contains(s, "why") {
		switch topic {
		case models.TopicLove:
			return "Being in love can feel intense because your brain is in **reward + attachment** mode.\n" +
				"It can be exciting, calming, or anxious depending on uncertainty.\n\n" +
				"Does it feel more **exciting**, **calm**, or **anxious/uncertain**?"
		case models.TopicLoneliness:
			return "Loneliness often spikes after rejection/being left out. Your brain reads it like a threat to belonging.\n" +
				"It doesn't mean you're unlovable — it means you need safety + connection right now.\n\n" +
				"Want to tell me what happened in 1–2 lines?"
		case models.TopicGrief:
			return "Grief comes in waves (sadness, numbness, anger, guilt). That's normal after a real loss.\n" +
				"What time of day hits you the hardest?"
		case models.TopicDistress:
			return "Overwhelm happens when **demand > time/energy** and your brain treats everything as urgent.\n" +
				"Missing deadlines can add shame/anxiety, which makes focus worse.\n\n" +
				"Is your biggest issue **tasks**, **people**, or **pressure/expectations**?"
		}
		return "These feelings can come from unmet needs (rest, support, belonging). What's been happening lately?"
	}

	if s == "2" || strings.Contains(s, "next") || strings.Contains(s, "do") {
		switch topic {
		case models.TopicDistress:
			// Switch nodes so a bare "pressure" reply lands in the right handler.
			st.Expecting = models.NodeDistressInfoNextSteps
			return "Next steps:\n" +
				"• Pick the **top 1 task** for today\n" +
				"• Break it into **15-minute steps**\n" +
				"• Ask for help or renegotiate timelines if needed.\n" +
				"Which part is hardest: **tasks**, **people**, or **pressure**?"
		case models.TopicLoneliness:
			return "Next steps:\n" +
				"• Reach out to **one safe person**\n" +
				"• Spend time in **one place you feel seen**\n" +
				"• Don't chase everyone — focus on **one real connection**.\n\n" +
				"Do you want a message you can send (soft or direct)?"
		case models.TopicLove:
			return "Next steps (healthy love):\n" +
				"• Go slow: build **trust + consistency**\n" +
				"• Communicate clearly (don't mind-read)\n" +
				"• Keep your routine/self-respect intact.\n\n" +
				"Want help drafting a message (flirty/soft/direct)?"
		case models.TopicGrief:
			return "Next steps:\n" +
				"• Tiny routine (water/food/sleep)\n" +
				"• Talk to someone safe\n" +
				"• Allow the waves — don't judge them.\n\n" +
				"Do you want **talk** or **coping tips**?"
		}
		return "Tell me what you want to change first — feelings, situation, or both?"
	}

	if s == "3" || strings.Contains(s, "sign") || strings.Contains(s, "serious") {
		if topic == models.TopicLove {
			return "If love becomes obsession, constant anxiety, losing sleep, or ignoring boundaries—slow down.\n" +
				"Healthy love feels mostly **safe**, **respectful**, and **consistent**.\n\n" +
				"Do you feel safe with them?"
		}
		return "If sleep/appetite crash, you isolate completely, panic daily, or you have self-harm thoughts — get extra support.\n" +
			"If you're in immediate danger, contact local emergency services or a trusted person.\n\n" +
			"Do you want **talk** or **coping tips**?"
	}

	return "Reply 1/2/3/4 (or type 'back')."
}

func (e *Engine) handleDistressInfoNextSteps(s string, st *models.SessionState) string {
	if strings.Contains(s, "task") {
		st.Expecting = models.NodeHelpMenu
		return "Okay—**tasks**.\n" +
			"Try this:\n" +
			"1) List everything due\n" +
			"2) Pick **Top 1** (closest deadline/impact)\n" +
			"3) Do a **15-minute first step**\n\n" +
			"Want **talk**, **coping tips**, or more **information**?"
	}
	if strings.Contains(s, "people") {
		st.Expecting = models.NodeHelpMenu
		return "Okay—**people**.\n" +
			"Send a short unblock message:\n" +
			"\"Hey, I'm stuck on X. Can you confirm Y by (time) so I can finish Z?\"\n\n" +
			"Want **talk**, **coping tips**, or more **information**?"
	}
	if strings.Contains(s, "pressure") || strings.Contains(s, "expect") {
		st.Expecting = models.NodeHelpMenu
		return "Okay—**pressure**.\n" +
			"Quick reducer:\n" +
			"• Define the *minimum acceptable output* for today\n" +
			"• Timebox: **25 min focus + 5 min break** (2 rounds)\n" +
			"• If needed: \"I can deliver A today, B tomorrow.\"\n\n" +
			"Want **talk**, **coping tips**, or more **information**?"
	}
	return "Just reply **tasks**, **people**, or **pressure**."
}

func (e *Engine) startCopingMenu(st *models.SessionState) string {
	st.Expecting = models.NodeCopingMenu
	return "Pick one:\n" +
		"1) **Breathing**\n" +
		"2) **Grounding**\n" +
		"3) **Practical next steps**\n" +
		"4) **Back**"
}

func (e *Engine) handleCopingMenu(s string, st *models.SessionState) string {
	if s == "4" || s == "back" {
		return e.showHelpMenu(st)
	}
	if s == "1" || strings.Contains(s, "breath") {
		st.Expecting = models.NodeCopingMenu
		return "Breathing (30 sec):\n" +
			"• Inhale 4\n• Hold 2\n• Exhale 6\n" +
			"Repeat 3 times.\n\n" +
			"Want **grounding**, **practical next steps**, or **back**?"
	}
	if s == "2" || strings.Contains(s, "ground") {
		st.Expecting = models.NodeCopingMenu
		return "Grounding (5-4-3-2-1):\n" +
			"5 things you can **see**\n" +
			"4 things you can **feel**\n" +
			"3 things you can **hear**\n" +
			"2 things you can **smell**\n" +
			"1 thing you can **taste**\n\n" +
			"Want **breathing**, **practical next steps**, or **back**?"
	}
	if s == "3" || strings.Contains(s, "practical") || strings.Contains(s, "next") {
		st.Expecting = models.NodeCopingMenu
		return "Practical reset:\n" +
			"1) Write top 3 things stressing you\n" +
			"2) Circle the **one** you can act on today\n" +
			"3) Do a 10-minute first step\n\n" +
			"Want **breathing**, **grounding**, or **back**?"
	}
	return "Reply 1/2/3/4 (or type 'back')."
}

// startCopingTip issues one immediate coping tip and waits on a yes/no.
func (e *Engine) startCopingTip(topic models.Topic, st *models.SessionState) string {
	st.Expecting = models.NodeCopingFollowup
	if topic != models.TopicNone {
		st.Topic = topic
	} else if st.Topic == models.TopicNone {
		st.Topic = models.TopicGeneral
	}
	tip := "Reset: inhale 4, hold 2, exhale 6 — three times. Can you try that now?"
	st.LastCopingTip = tip
	return tip
}

func (e *Engine) handleCopingFollowup(s string, st *models.SessionState) string {
	if IsYes(s) {
		return e.startCopingMenu(st)
	}
	if IsNo(s) {
		return "That's okay. Type **breathing**, **grounding**, or **back**."
	}
	return "Just reply **yes** or **no** — did you manage to try it?"
}
