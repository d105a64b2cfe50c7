package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Tanya931151/mental-scope/internal/models"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender is the sending surface used by TwilioService. Production code
// uses *TwilioClient; tests substitute *MockTwilioSender.
type TwilioSender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// TwilioOpts holds credentials and sender configuration for the Twilio client.
type TwilioOpts struct {
	AccountSID string
	AuthToken  string
	FromNumber string // WhatsApp sender in "whatsapp:+1234567890" format
}

// TwilioOption defines a configuration option for the Twilio client.
type TwilioOption func(*TwilioOpts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) TwilioOption {
	return func(o *TwilioOpts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) TwilioOption {
	return func(o *TwilioOpts) { o.AuthToken = token }
}

// WithFromNumber sets the WhatsApp sender number.
func WithFromNumber(from string) TwilioOption {
	return func(o *TwilioOpts) { o.FromNumber = from }
}

// TwilioClient wraps the Twilio REST API for WhatsApp message delivery.
type TwilioClient struct {
	client     *twilio.RestClient
	fromNumber string
}

// NewTwilioClient builds a Twilio REST client, falling back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER environment
// variables for anything not set via options.
func NewTwilioClient(opts ...TwilioOption) (*TwilioClient, error) {
	var cfg TwilioOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("TwilioClient config loaded",
		"account_sid_set", cfg.AccountSID != "",
		"auth_token_set", cfg.AuthToken != "",
		"from_number_set", cfg.FromNumber != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioClient{client: client, fromNumber: cfg.FromNumber}, nil
}

// SendMessage sends a WhatsApp message through the Twilio API.
func (c *TwilioClient) SendMessage(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + to)
	params.SetFrom(c.fromNumber)
	params.SetBody(body)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		slog.Error("TwilioClient.SendMessage: send failed", "to", to, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("TwilioClient.SendMessage: sent", "to", to)
	return nil
}

// MockTwilioSender records sent messages for tests.
type MockTwilioSender struct {
	Sent []SentTwilioMessage
}

// SentTwilioMessage is one recorded SendMessage call.
type SentTwilioMessage struct {
	To   string
	Body string
}

func NewMockTwilioSender() *MockTwilioSender {
	return &MockTwilioSender{}
}

func (m *MockTwilioSender) SendMessage(ctx context.Context, to string, body string) error {
	m.Sent = append(m.Sent, SentTwilioMessage{To: to, Body: body})
	return nil
}

// TwilioService implements Service using the Twilio WhatsApp API. Inbound
// messages arrive via the webhook handler rather than a live connection.
type TwilioService struct {
	client   TwilioSender
	incoming chan models.IncomingMessage
	done     chan struct{}
	mu       sync.RWMutex
	stopped  bool
}

// NewTwilioService wraps the given Twilio sender.
func NewTwilioService(client TwilioSender) *TwilioService {
	return &TwilioService{
		client:   client,
		incoming: make(chan models.IncomingMessage, DefaultChannelBufferSize),
		done:     make(chan struct{}),
	}
}

// ValidateAndCanonicalizeRecipient reduces a recipient to bare digits and
// requires at least 6 of them.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
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
		slog.Debug("TwilioService: canonicalized recipient", "original", recipient, "canonical", canonical)
	}
	return canonical, nil
}

// Start is a no-op; inbound traffic arrives through WebhookHandler.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop marks the service stopped and closes the inbound channel. Emitters
// hold the read lock across their channel send, so by the time the write
// lock is acquired no send can be in flight.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)
	close(s.incoming)
	return nil
}

// SendMessage sends a message via the Twilio API.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	s.mu.RLock()
	if s.stopped {
		s.mu.RUnlock()
		return ErrServiceStopped
	}
	s.mu.RUnlock()

	canonicalTo, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService.SendMessage: invalid recipient", "error", err, "to", to)
		return err
	}
	return s.client.SendMessage(ctx, canonicalTo, body)
}

// Incoming returns the channel of messages received via the webhook.
func (s *TwilioService) Incoming() <-chan models.IncomingMessage {
	return s.incoming
}

// WebhookHandler handles inbound Twilio webhook requests and emits the parsed
// message into the Incoming channel.
func (s *TwilioService) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("TwilioService.WebhookHandler: form parse failed", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")
	if from == "" || body == "" {
		slog.Warn("TwilioService.WebhookHandler: missing fields", "from_set", from != "", "body_set", body != "")
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	slog.Info("TwilioService.WebhookHandler: inbound message", "from", from, "body_length", len(body))

	s.safeEmit(models.IncomingMessage{
		From: from,
		Body: body,
		Time: time.Now().Unix(),
	})

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// safeEmit delivers an inbound message while holding the read lock, so Stop
// cannot close the channel mid-send.
func (s *TwilioService) safeEmit(msg models.IncomingMessage) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		slog.Warn("TwilioService: dropping inbound message, service stopped", "from", msg.From)
		return
	}

	select {
	case s.incoming <- msg:
		slog.Debug("TwilioService: inbound message emitted", "from", msg.From)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService: incoming channel blocked, dropping message", "from", msg.From)
	}
}
