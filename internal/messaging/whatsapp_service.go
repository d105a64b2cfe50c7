package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Tanya931151/mental-scope/internal/models"
	"github.com/Tanya931151/mental-scope/internal/whatsapp"
	"go.mau.fi/whatsmeow/types/events"
)

// WhatsAppService implements Service on top of the Whatsmeow-based whatsapp
// client. Incoming text messages are converted to models.IncomingMessage and
// fed into the Incoming channel.
type WhatsAppService struct {
	sender   whatsapp.Sender
	waClient *whatsapp.Client // nil when sender is a mock; event handling is skipped
	incoming chan models.IncomingMessage
	done     chan struct{}
	mu       sync.RWMutex
	stopped  bool
}

// NewWhatsAppService wraps the given WhatsApp sender. When the sender is a
// full *whatsapp.Client, incoming message events are forwarded as well.
func NewWhatsAppService(sender whatsapp.Sender) *WhatsAppService {
	s := &WhatsAppService{
		sender:   sender,
		incoming: make(chan models.IncomingMessage, DefaultChannelBufferSize),
		done:     make(chan struct{}),
	}
	if waClient, ok := sender.(*whatsapp.Client); ok {
		s.waClient = waClient
	} else {
		slog.Debug("WhatsAppService: sender is not a full client, inbound events disabled")
	}
	return s
}

// ValidateAndCanonicalizeRecipient reduces a recipient to bare digits, as
// expected by the WhatsApp JID format.
func (s *WhatsAppService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", fmt.Errorf("invalid phone number: no digits found in recipient %q", recipient)
	}
	if len(canonical) < 6 {
		return "", fmt.Errorf("invalid phone number: %q is too short (minimum 6 digits required)", canonical)
	}
	if canonical != recipient {
		slog.Debug("WhatsAppService: canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start registers the inbound event handler when a full client is available.
func (s *WhatsAppService) Start(ctx context.Context) error {
	if s.waClient == nil {
		slog.Debug("WhatsAppService.Start: no full client, skipping event handling")
		return nil
	}
	go s.handleEvents(ctx)
	slog.Debug("WhatsAppService.Start: event handler started")
	return nil
}

// Stop closes the inbound channel and stops event forwarding.
func (s *WhatsAppService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)
	close(s.incoming)
	slog.Info("WhatsAppService stopped")
	return nil
}

// SendMessage sends a message to a user over WhatsApp.
func (s *WhatsAppService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("WhatsAppService.SendMessage: invalid recipient", "error", err, "to", to)
		return err
	}
	if err := s.sender.SendMessage(ctx, canonicalTo, body); err != nil {
		slog.Error("WhatsAppService.SendMessage: send failed", "error", err, "to", canonicalTo)
		return err
	}
	slog.Debug("WhatsAppService.SendMessage: sent", "to", canonicalTo, "body_length", len(body))
	return nil
}

// Incoming returns the channel of messages received from users.
func (s *WhatsAppService) Incoming() <-chan models.IncomingMessage {
	return s.incoming
}

func (s *WhatsAppService) handleEvents(ctx context.Context) {
	raw := s.waClient.Raw()
	if raw == nil {
		slog.Error("WhatsAppService.handleEvents: no underlying client")
		return
	}

	raw.AddEventHandler(func(evt interface{}) {
		switch v := evt.(type) {
		case *events.Message:
			s.handleIncomingMessage(v)
		default:
			// Receipts, presence etc. carry nothing the dialogue engine needs.
		}
	})
	slog.Debug("WhatsAppService.handleEvents: handler registered")

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	slog.Debug("WhatsAppService.handleEvents: stopping")
}

func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	if evt.Message == nil {
		return
	}

	var text string
	if evt.Message.Conversation != nil {
		text = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		text = *evt.Message.ExtendedTextMessage.Text
	} else {
		// Non-text messages (images, audio, stickers) are not supported.
		slog.Debug("WhatsAppService: ignoring non-text message", "from", evt.Info.Sender.String())
		return
	}

	from := evt.Info.Sender.User
	if !strings.HasPrefix(from, "+") {
		from = "+" + from
	}

	msg := models.IncomingMessage{
		From: from,
		Body: text,
		Time: evt.Info.Timestamp.Unix(),
	}

	// Holding the read lock across the send keeps Stop's close of the
	// channel strictly after any in-flight emit.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("WhatsAppService: dropping inbound message, service stopped", "from", msg.From)
		return
	}

	select {
	case s.incoming <- msg:
		slog.Debug("WhatsAppService: inbound message forwarded", "from", msg.From, "body_length", len(msg.Body))
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("WhatsAppService: incoming channel blocked, dropping message", "from", msg.From, "timeout", DefaultChannelTimeout)
	}
}
