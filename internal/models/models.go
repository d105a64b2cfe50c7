// Package models defines request/response envelopes and transcript records
// for the Pandora API and messaging channels.
package models

import "fmt"

// StartSentinel is the reserved input that deterministically initializes a
// fresh session against the start node, bypassing all other dispatch.
const StartSentinel = "__start__"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string        `json:"message"`
	State   *SessionState `json:"state,omitempty"`
}

// Validate checks chat request fields.
func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Reply   string       `json:"reply"`
	State   SessionState `json:"state"`
	Options []Option     `json:"options"`
}

// TopicRequest is the body of POST /topic.
type TopicRequest struct {
	Text string `json:"text"`
}

// TopicResponse reports the deterministic topic for a text.
type TopicResponse struct {
	Topic Topic `json:"topic"`
}

// Turn is one processed exchange, recorded in the transcript store.
type Turn struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text"`
	Reply     string `json:"reply"`
	Topic     Topic  `json:"topic"`
	Node      NodeID `json:"node"`
	Time      int64  `json:"time"`
}

// IncomingMessage is a message received on a delivery channel.
type IncomingMessage struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}

// APIStatus represents the status of an API response.
type APIStatus string

// API response status constants.
const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse is the envelope for API error and status payloads.
type APIResponse struct {
	Status  APIStatus   `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a success response with a result payload.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// Error creates an error response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}
