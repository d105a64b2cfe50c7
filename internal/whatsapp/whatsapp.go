// Package whatsapp wraps the Whatsmeow client so Mental Scope can talk to
// users over WhatsApp directly, without going through a gateway provider.
//
// It handles device login (QR code or numeric pairing code) and message
// delivery; inbound events are consumed by the messaging package.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Tanya931151/mental-scope/internal/store"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
)

const (
	// DefaultSQLitePath is the default location of the whatsmeow session database.
	DefaultSQLitePath = "/var/lib/mental-scope/whatsmeow.db"
	// JIDSuffix is the WhatsApp JID suffix for individual user accounts.
	JIDSuffix = "s.whatsapp.net"
)

// Sender is the sending surface of the WhatsApp client. Production code uses
// *Client; tests substitute *MockSender.
type Sender interface {
	SendMessage(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the WhatsApp client.
type Opts struct {
	DBDSN       string // whatsmeow session database connection string
	QRPath      string // file to write the login QR code to (stdout when empty)
	NumericCode bool   // print a numeric pairing code instead of a QR code
}

// Option defines a configuration option for the WhatsApp client.
type Option func(*Opts)

// WithDBDSN sets the whatsmeow session database connection string.
func WithDBDSN(dsn string) Option {
	return func(o *Opts) {
		o.DBDSN = dsn
	}
}

// WithQRCodeOutput writes the login QR code to the given path instead of stdout.
func WithQRCodeOutput(path string) Option {
	return func(o *Opts) {
		o.QRPath = path
	}
}

// WithNumericCode switches the login flow to a numeric pairing code.
func WithNumericCode() Option {
	return func(o *Opts) {
		o.NumericCode = true
	}
}

// Client wraps a connected whatsmeow client.
type Client struct {
	waClient *whatsmeow.Client
}

// NewClient initializes the whatsmeow session store, performs device login if
// needed, and connects to the WhatsApp servers.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("WhatsApp.NewClient: options applied", "db_dsn_set", cfg.DBDSN != "", "qr_path_set", cfg.QRPath != "", "numeric_code", cfg.NumericCode)

	dbDSN := cfg.DBDSN
	if dbDSN == "" {
		dbDSN = DefaultSQLitePath
		slog.Debug("WhatsApp.NewClient: no session DSN provided, using default SQLite path", "path", dbDSN)
	}

	var dbDriver string
	if store.DetectDSNType(dbDSN) == "postgres" {
		dbDriver = "postgres"
	} else {
		dbDriver = "sqlite3"
		// whatsmeow strongly recommends foreign keys on SQLite.
		if !strings.Contains(dbDSN, "_foreign_keys") && !strings.Contains(dbDSN, "foreign_keys") {
			slog.Warn("WhatsApp session database does not appear to have foreign keys enabled; consider adding '?_foreign_keys=on' to the connection string",
				"dsn_example", "file:"+dbDSN+"?_foreign_keys=on")
		}
	}

	ctx := context.Background()
	container, err := sqlstore.New(ctx, dbDriver, dbDSN, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		slog.Error("WhatsApp.NewClient: session store init failed", "error", err)
		return nil, fmt.Errorf("failed to initialize WhatsApp session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		slog.Error("WhatsApp.NewClient: device lookup failed", "error", err)
		return nil, fmt.Errorf("failed to get device from WhatsApp session store: %w", err)
	}

	waClient := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))

	if waClient.Store.ID == nil {
		slog.Info("WhatsApp.NewClient: login required, starting pairing flow")
		qrChan, _ := waClient.GetQRChannel(context.Background())
		if err := waClient.Connect(); err != nil {
			slog.Error("WhatsApp.NewClient: connect during login failed", "error", err)
			return nil, fmt.Errorf("failed to connect to WhatsApp during login: %w", err)
		}
		writer := io.Writer(os.Stdout)
		if cfg.QRPath != "" {
			f, ferr := os.Create(cfg.QRPath)
			if ferr != nil {
				slog.Error("WhatsApp.NewClient: QR output file creation failed", "error", ferr, "path", cfg.QRPath)
				return nil, fmt.Errorf("failed to create QR output file: %w", ferr)
			}
			defer f.Close()
			writer = f
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				if cfg.NumericCode {
					fmt.Fprintln(writer, evt.Code)
				} else {
					qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, writer)
				}
			} else {
				slog.Debug("WhatsApp.NewClient: login event", "event", evt.Event)
			}
		}
	} else {
		slog.Debug("WhatsApp.NewClient: already paired, connecting")
		if err := waClient.Connect(); err != nil {
			slog.Error("WhatsApp.NewClient: connect failed", "error", err)
			return nil, fmt.Errorf("failed to connect to WhatsApp server: %w", err)
		}
	}

	slog.Info("WhatsApp.NewClient: connected")
	return &Client{waClient: waClient}, nil
}

// SendMessage delivers a plain text message to a phone number (digits only, no
// leading plus) over WhatsApp.
func (c *Client) SendMessage(ctx context.Context, to string, body string) error {
	if c.waClient == nil {
		return fmt.Errorf("whatsapp client not initialized")
	}
	if to == "" {
		return fmt.Errorf("recipient cannot be empty")
	}
	if body == "" {
		return fmt.Errorf("message body cannot be empty")
	}

	jid := types.NewJID(to, JIDSuffix)
	msg := &waE2E.Message{Conversation: &body}

	if _, err := c.waClient.SendMessage(ctx, jid, msg); err != nil {
		slog.Error("WhatsApp.SendMessage: send failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}

	slog.Debug("WhatsApp.SendMessage: delivered", "to", to, "body_length", len(body))
	return nil
}

// Raw returns the underlying whatsmeow client for event handler registration.
func (c *Client) Raw() *whatsmeow.Client {
	return c.waClient
}

// Disconnect closes the connection to the WhatsApp servers.
func (c *Client) Disconnect() {
	if c.waClient != nil {
		c.waClient.Disconnect()
	}
}

// MockSender records sent messages for tests instead of hitting WhatsApp.
type MockSender struct {
	Sent []SentMessage
}

// SentMessage is one recorded SendMessage call.
type SentMessage struct {
	To   string
	Body string
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) SendMessage(ctx context.Context, to string, body string) error {
	m.Sent = append(m.Sent, SentMessage{To: to, Body: body})
	return nil
}
