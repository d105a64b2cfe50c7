// Package models defines the session state and wire types shared across
// the Pandora dialogue engine, API, and messaging channels.
package models

// Topic is the coarse emotional category assigned to a conversation.
type Topic string

// Supported topics. TopicCrisis is only ever set by the crisis interrupt.
const (
	TopicNone       Topic = ""
	TopicLoneliness Topic = "loneliness"
	TopicGrief      Topic = "grief"
	TopicDistress   Topic = "distress"
	TopicLove       Topic = "love"
	TopicGeneral    Topic = "general"
	TopicCrisis     Topic = "crisis"
)

// NodeID identifies the dialogue state a session is currently waiting on.
// Besides the built-in menu nodes below, a NodeID may name a node in an
// externally authored flow graph. Unknown values are treated as NodeStart.
type NodeID string

// Built-in dialogue nodes.
const (
	NodeStart                 NodeID = "start"
	NodeHelpMenu              NodeID = "help_menu"
	NodeInfoMenu              NodeID = "info_menu"
	NodeCopingMenu            NodeID = "coping_menu"
	NodeCopingFollowup        NodeID = "coping_followup"
	NodeDistressInfoNextSteps NodeID = "distress_info_nextsteps"
	NodeTalkMode              NodeID = "talk_mode"
)

// SessionState carries everything the engine needs to interpret the next
// turn. It is supplied by the caller and returned updated each turn; the
// engine holds no per-session state of its own.
type SessionState struct {
	Topic     Topic  `json:"topic,omitempty"`
	Expecting NodeID `json:"expecting,omitempty"`
	Emotion   string `json:"emotion,omitempty"`

	// Talk-mode private state.
	TalkTopic        Topic  `json:"talk_topic,omitempty"`
	TalkStage        int    `json:"talk_stage,omitempty"`
	TalkLastQuestion string `json:"talk_last_question,omitempty"`

	LastCopingTip string `json:"last_coping_tip,omitempty"`

	// Most recent exchange, kept for debugging and transcript context only.
	LastUser string `json:"last_user,omitempty"`
	LastBot  string `json:"last_bot,omitempty"`
}

// Option is a suggested next input presented alongside a reply.
type Option struct {
	Label string `json:"label"`
	Next  NodeID `json:"next"`
}
