// Pandora is the dialogue engine behind the Mental Scope emotional support
// chat. It serves the HTTP turn API and can optionally bridge conversations
// over WhatsApp, either directly (Whatsmeow) or through Twilio.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Tanya931151/mental-scope/internal/api"
	"github.com/Tanya931151/mental-scope/internal/engine"
	"github.com/Tanya931151/mental-scope/internal/genai"
	"github.com/Tanya931151/mental-scope/internal/intent"
	"github.com/Tanya931151/mental-scope/internal/messaging"
	"github.com/Tanya931151/mental-scope/internal/store"
	"github.com/Tanya931151/mental-scope/internal/util"
	"github.com/Tanya931151/mental-scope/internal/whatsapp"
	"github.com/joho/godotenv"
)

const (
	// DefaultStateDir is the default directory for Pandora state data.
	DefaultStateDir = "/var/lib/mental-scope"
	// DefaultDBFileName is the default SQLite transcript database filename.
	DefaultDBFileName = "pandora.db"
	// DefaultWhatsAppDBFileName is the default whatsmeow session database filename.
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureStateDir(flags); err != nil {
		slog.Error("Failed to create state directory", "error", err)
		os.Exit(1)
	}

	eng, err := buildEngine(flags)
	if err != nil {
		slog.Error("Failed to build dialogue engine", "error", err)
		os.Exit(1)
	}

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to open transcript store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	apiOpts := []api.Option{}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional messaging channels run alongside the HTTP API; each one
	// drives the same engine through its own responder loop.
	if *flags.twilioEnabled {
		svc, err := startTwilioChannel(ctx, eng, st)
		if err != nil {
			slog.Error("Failed to start Twilio channel", "error", err)
			os.Exit(1)
		}
		defer svc.Stop()
		apiOpts = append(apiOpts, api.WithWebhook("/webhook/twilio", svc.WebhookHandler))
	}
	if *flags.whatsappEnabled {
		svc, err := startWhatsAppChannel(ctx, eng, st, flags)
		if err != nil {
			slog.Error("Failed to start WhatsApp channel", "error", err)
			os.Exit(1)
		}
		defer svc.Stop()
	}

	server := api.NewServer(eng, st, apiOpts...)
	slog.Info("Pandora starting", "api_addr", *flags.apiAddr, "fallback_mode", *flags.fallbackMode, "whatsapp", *flags.whatsappEnabled, "twilio", *flags.twilioEnabled)
	if err := server.Run(); err != nil {
		slog.Error("Pandora failed to run", "error", err)
		os.Exit(1)
	}
}

// Config holds environment configuration.
type Config struct {
	StateDir      string
	DatabaseURL   string
	WhatsAppDSN   string
	OpenAIKey     string
	APIAddr       string
	ClassifierURL string
	FallbackMode  string
}

// Flags holds command line flag values.
type Flags struct {
	stateDir        *string
	dbDSN           *string
	whatsappDSN     *string
	intentsPath     *string
	manifestPath    *string
	flowGraphPath   *string
	graphEnabled    *bool
	classifierURL   *string
	fallbackMode    *string
	openaiKey       *string
	apiAddr         *string
	whatsappEnabled *bool
	twilioEnabled   *bool
	qrOutput        *string
	numeric         *bool
}

// initializeLogger sets up structured logging with debug level.
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:      os.Getenv("PANDORA_STATE_DIR"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		WhatsAppDSN:   os.Getenv("WHATSAPP_DB_DSN"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		APIAddr:       os.Getenv("API_ADDR"),
		ClassifierURL: os.Getenv("INTENT_CLASSIFIER_URL"),
		FallbackMode:  os.Getenv("FALLBACK_MODE"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No PANDORA_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
	}
	if config.FallbackMode == "" {
		config.FallbackMode = string(engine.FallbackModeMenu)
	}

	slog.Debug("environment variables loaded",
		"PANDORA_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"INTENT_CLASSIFIER_URL", config.ClassifierURL,
		"FALLBACK_MODE", config.FallbackMode)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:        flag.String("state-dir", config.StateDir, "state directory for Pandora data (overrides $PANDORA_STATE_DIR)"),
		dbDSN:           flag.String("db-dsn", config.DatabaseURL, "transcript database DSN (overrides $DATABASE_URL)"),
		whatsappDSN:     flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "whatsmeow session database DSN (overrides $WHATSAPP_DB_DSN)"),
		intentsPath:     flag.String("intents", "", "path to intents catalogue JSON (embedded default when empty)"),
		manifestPath:    flag.String("manifest", "", "path to model manifest JSON (embedded default when empty)"),
		flowGraphPath:   flag.String("flow-graph", "", "path to flow graph JSON (embedded default when empty)"),
		graphEnabled:    flag.Bool("graph", false, "enable flow-graph dispatch instead of the guided menus"),
		classifierURL:   flag.String("classifier-url", config.ClassifierURL, "intent classifier service base URL (overrides $INTENT_CLASSIFIER_URL)"),
		fallbackMode:    flag.String("fallback-mode", config.FallbackMode, "low-confidence fallback: menu or llm (overrides $FALLBACK_MODE)"),
		openaiKey:       flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for llm fallback (overrides $OPENAI_API_KEY)"),
		apiAddr:         flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		whatsappEnabled: flag.Bool("whatsapp", util.ParseBoolEnv("WHATSAPP_ENABLED", false), "bridge conversations over WhatsApp via whatsmeow"),
		twilioEnabled:   flag.Bool("twilio", util.ParseBoolEnv("TWILIO_ENABLED", false), "bridge conversations over WhatsApp via Twilio"),
		qrOutput:        flag.String("qr-output", "", "path to write WhatsApp login QR code"),
		numeric:         flag.Bool("numeric-code", false, "use numeric WhatsApp login code instead of QR code"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"graph", *flags.graphEnabled,
		"classifierURL", *flags.classifierURL,
		"fallbackMode", *flags.fallbackMode,
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"whatsapp", *flags.whatsappEnabled,
		"twilio", *flags.twilioEnabled)

	return flags
}

// ensureStateDir creates the state directory when a file-based DSN is in use.
func ensureStateDir(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	return os.MkdirAll(stateDir, 0755)
}

// buildEngine assembles the dialogue engine from catalogue, flow graph,
// classifier and fallback configuration. Any malformed configuration file is
// fatal here rather than at first use.
func buildEngine(flags Flags) (*engine.Engine, error) {
	catalogue, err := engine.LoadCatalogueFromFiles(*flags.intentsPath, *flags.manifestPath)
	if err != nil {
		return nil, err
	}

	var engOpts []engine.Option

	if *flags.graphEnabled {
		graph, err := engine.LoadFlowGraphFromFile(*flags.flowGraphPath)
		if err != nil {
			return nil, err
		}
		engOpts = append(engOpts, engine.WithFlowGraph(graph))
	}

	if *flags.classifierURL != "" {
		classifier, err := intent.NewHTTPClassifier(intent.WithBaseURL(*flags.classifierURL))
		if err != nil {
			return nil, err
		}
		engOpts = append(engOpts, engine.WithClassifier(classifier))
	}

	mode := engine.FallbackMode(*flags.fallbackMode)
	engOpts = append(engOpts, engine.WithFallbackMode(mode))
	if mode == engine.FallbackModeLLM {
		var genaiOpts []genai.Option
		if *flags.openaiKey != "" {
			genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
		}
		completer, err := genai.NewClient(genaiOpts...)
		if err != nil {
			return nil, err
		}
		engOpts = append(engOpts, engine.WithCompleter(completer))
	}

	return engine.New(catalogue, engOpts...)
}

// buildStore opens the transcript store, auto-detecting the backend from the DSN.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		slog.Debug("No database DSN provided, using in-memory transcript store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, using PostgreSQL transcript store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, using SQLite transcript store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// startTwilioChannel builds the Twilio messaging service and starts its
// responder loop. Inbound traffic arrives through the returned service's
// webhook handler.
func startTwilioChannel(ctx context.Context, eng *engine.Engine, st store.Store) (*messaging.TwilioService, error) {
	client, err := messaging.NewTwilioClient()
	if err != nil {
		return nil, err
	}
	svc := messaging.NewTwilioService(client)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	go messaging.NewResponder(eng, svc, st).Run(ctx)
	return svc, nil
}

// startWhatsAppChannel connects the whatsmeow client and starts its responder loop.
func startWhatsAppChannel(ctx context.Context, eng *engine.Engine, st store.Store, flags Flags) (*messaging.WhatsAppService, error) {
	var waOpts []whatsapp.Option
	if *flags.whatsappDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.whatsappDSN))
	}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}

	client, err := whatsapp.NewClient(waOpts...)
	if err != nil {
		return nil, err
	}

	svc := messaging.NewWhatsAppService(client)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	go messaging.NewResponder(eng, svc, st).Run(ctx)
	return svc, nil
}
