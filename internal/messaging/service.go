// Package messaging provides pluggable message delivery channels for Mental
// Scope and the responder loop that drives the dialogue engine from incoming
// messages.
package messaging

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Tanya931151/mental-scope/internal/models"
)

const (
	// DefaultChannelBufferSize is the buffer size of the inbound message channel.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout bounds non-blocking channel sends before a message is dropped.
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned when a send is attempted after Stop.
var ErrServiceStopped = errors.New("messaging service stopped")

// phoneNumberRegex strips everything that is not a digit from a recipient.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Service defines a message delivery channel.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a recipient
	// identifier according to the channel's own rules. Returns the canonical
	// form and an error if the recipient is unusable.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins any background processing (e.g., event polling).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Incoming returns a channel of messages received from users.
	Incoming() <-chan models.IncomingMessage
}
