package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/Tanya931151/mental-scope/internal/intent"
	"github.com/Tanya931151/mental-scope/internal/models"
)

// Completer is the generative-language-model fallback collaborator. Its
// failures must never surface to the turn's caller.
type Completer interface {
	Complete(ctx context.Context, userText string) (string, error)
}

// FallbackMode selects what happens when classifier confidence falls below
// the threshold.
type FallbackMode string

// Supported fallback modes. Menu mode re-offers the top-level choices; LLM
// mode escalates to the generative completer.
const (
	FallbackModeMenu FallbackMode = "menu"
	FallbackModeLLM  FallbackMode = "llm"
)

// Hardcoded degradation replies.
const (
	// startGreeting opens a fresh session in menu deployments.
	startGreeting = "Hi there! I'm Pandora 💙 How are you feeling today?"
	// genericEmpathReply is the floor every collaborator failure lands on.
	genericEmpathReply = "I'm here for you. Tell me more about what's on your mind."
	// defaultCatalogueReply backs a catalogue with no usable entries.
	defaultCatalogueReply = "I'm here for you."
)

// builtinStartOptions are the suggested first inputs when no flow graph is
// configured.
var builtinStartOptions = []models.Option{
	{Label: "talk", Next: models.NodeHelpMenu},
	{Label: "coping tips", Next: models.NodeHelpMenu},
	{Label: "information", Next: models.NodeHelpMenu},
}

// Opts holds configuration options for the engine.
type Opts struct {
	Graph        *FlowGraph
	Classifier   intent.Classifier
	Completer    Completer
	FallbackMode FallbackMode
	Threshold    *float64
	IntN         func(int) int
}

// Option defines a configuration option for the engine.
type Option func(*Opts)

// WithFlowGraph switches the engine to graph-driven traversal.
func WithFlowGraph(g *FlowGraph) Option {
	return func(o *Opts) { o.Graph = g }
}

// WithClassifier sets the intent classifier collaborator.
func WithClassifier(c intent.Classifier) Option {
	return func(o *Opts) { o.Classifier = c }
}

// WithCompleter sets the generative fallback collaborator.
func WithCompleter(c Completer) Option {
	return func(o *Opts) { o.Completer = c }
}

// WithFallbackMode selects the below-threshold fallback behavior.
func WithFallbackMode(m FallbackMode) Option {
	return func(o *Opts) { o.FallbackMode = m }
}

// WithConfidenceThreshold overrides the model manifest's confidence cutoff.
func WithConfidenceThreshold(t float64) Option {
	return func(o *Opts) { o.Threshold = &t }
}

// WithRandSource injects the random source used for catalogue reply
// selection, so tests can pin output.
func WithRandSource(intn func(int) int) Option {
	return func(o *Opts) { o.IntN = intn }
}

// Engine is the per-turn dialogue decision engine. It holds only immutable
// configuration; every turn works on its own session-state copy, so one
// Engine serves any number of concurrent sessions.
type Engine struct {
	catalogue    *Catalogue
	graph        *FlowGraph
	classifier   intent.Classifier
	completer    Completer
	fallbackMode FallbackMode
	threshold    float64
	randIntN     func(int) int
}

// New creates an engine around a loaded response catalogue.
func New(catalogue *Catalogue, opts ...Option) (*Engine, error) {
	if catalogue == nil {
		return nil, fmt.Errorf("response catalogue is required")
	}
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.FallbackMode == "" {
		cfg.FallbackMode = FallbackModeMenu
	}
	if cfg.FallbackMode != FallbackModeMenu && cfg.FallbackMode != FallbackModeLLM {
		return nil, fmt.Errorf("unsupported fallback mode %q", cfg.FallbackMode)
	}
	if cfg.FallbackMode == FallbackModeLLM && cfg.Completer == nil {
		return nil, fmt.Errorf("fallback mode %q requires a completer", FallbackModeLLM)
	}
	threshold := catalogue.ConfidenceThreshold()
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	intn := cfg.IntN
	if intn == nil {
		intn = rand.IntN
	}
	slog.Debug("Engine.New: engine configured",
		"graph_mode", cfg.Graph != nil, "has_classifier", cfg.Classifier != nil,
		"fallback_mode", cfg.FallbackMode, "threshold", threshold)
	return &Engine{
		catalogue:    catalogue,
		graph:        cfg.Graph,
		classifier:   cfg.Classifier,
		completer:    cfg.Completer,
		fallbackMode: cfg.FallbackMode,
		threshold:    threshold,
		randIntN:     intn,
	}, nil
}

func (e *Engine) intn(n int) int {
	return e.randIntN(n)
}

// startNode returns the canonical start node: the flow graph's in graph
// deployments, the built-in greeting otherwise.
func (e *Engine) startNode() FlowNode {
	if e.graph != nil {
		return e.graph.Start()
	}
	return FlowNode{Message: startGreeting, Options: builtinStartOptions}
}

func (e *Engine) startOptions() []models.Option {
	return e.startNode().Options
}

// ProcessTurn decides one conversational turn. The inbound state is never
// mutated; the returned state is the turn's freshly produced copy.
//
// Dispatch precedence: start sentinel, empty-input nudge, crisis interrupt,
// active menu node, flow graph (graph deployments), deterministic topic
// triage (menu deployments), intent fallback.
func (e *Engine) ProcessTurn(ctx context.Context, userText string, st models.SessionState) (string, models.SessionState, []models.Option) {
	text := Normalize(userText)
	s := Lower(text)

	if s == models.StartSentinel {
		slog.Debug("Engine.ProcessTurn: start sentinel, resetting session")
		node := e.startNode()
		st = models.SessionState{Expecting: models.NodeStart, LastUser: text, LastBot: node.Message}
		return node.Message, st, node.Options
	}

	if s == "" {
		return e.emptyInputReply(st), st, nil
	}

	// The crisis interrupt runs before any other interpretation of the
	// input, on every turn, regardless of dialogue state.
	if IsCrisis(text) {
		reply, options := e.crisisInterrupt(&st)
		st.LastUser, st.LastBot = text, reply
		return reply, st, options
	}

	if handler, ok := menuHandlers[st.Expecting]; ok {
		reply := handler(e, s, &st)
		st.LastUser, st.LastBot = text, reply
		return reply, st, nil
	}

	if e.graph != nil {
		if reply, options, ok := e.traverseGraph(&st, s); ok {
			st.LastUser, st.LastBot = text, reply
			return reply, st, options
		}
		// A graph miss falls through to the intent fallback, not to a
		// generic re-prompt.
		reply, options := e.classifierTurn(ctx, text, &st)
		st.LastUser, st.LastBot = text, reply
		return reply, st, options
	}

	topic := DetectTopic(text)
	st.Topic = topic
	slog.Debug("Engine.ProcessTurn: topic detected", "topic", topic)

	switch topic {
	case models.TopicLoneliness, models.TopicGrief, models.TopicDistress, models.TopicLove:
		st.Expecting = models.NodeHelpMenu
		reply := topicAcknowledgment(topic)
		st.LastUser, st.LastBot = text, reply
		return reply, st, nil
	}

	reply, options := e.classifierTurn(ctx, text, &st)
	st.LastUser, st.LastBot = text, reply
	return reply, st, options
}

// classifierTurn runs the probabilistic intent fallback: top-K prediction,
// tag canonicalization, threshold cut, catalogue pick. Classifier failures
// and below-threshold results both degrade through fallbackTurn.
func (e *Engine) classifierTurn(ctx context.Context, text string, st *models.SessionState) (string, []models.Option) {
	if e.classifier == nil {
		slog.Debug("Engine.classifierTurn: no classifier configured, degrading")
		return e.fallbackTurn(ctx, text, st)
	}

	predictions, err := e.classifier.Predict(ctx, text)
	if err != nil || len(predictions) == 0 {
		slog.Warn("Engine.classifierTurn: classifier unavailable, degrading", "error", err)
		return e.fallbackTurn(ctx, text, st)
	}

	best := predictions[0]
	tag := e.catalogue.CanonicalTag(best.Tag)
	slog.Debug("Engine.classifierTurn: best prediction", "raw_tag", best.Tag, "tag", tag, "confidence", best.Confidence)

	if best.Confidence < e.threshold {
		slog.Debug("Engine.classifierTurn: confidence below threshold", "confidence", best.Confidence, "threshold", e.threshold)
		return e.fallbackTurn(ctx, text, st)
	}

	reply := e.catalogue.Pick(tag, defaultCatalogueReply, e.intn)
	st.Expecting = models.NodeStart
	return reply, e.startOptions()
}

// fallbackTurn handles the low-confidence path per the configured mode.
func (e *Engine) fallbackTurn(ctx context.Context, text string, st *models.SessionState) (string, []models.Option) {
	if e.fallbackMode == FallbackModeLLM && e.completer != nil {
		reply, err := e.completer.Complete(ctx, text)
		if err != nil || Normalize(reply) == "" {
			slog.Warn("Engine.fallbackTurn: completer failed, using fixed reply", "error", err)
			reply = genericEmpathReply
		}
		st.Expecting = models.NodeStart
		return reply, e.startOptions()
	}
	// Low confidence means "I don't know, let me ask what you need".
	return e.showHelpMenu(st), nil
}

// emptyInputReply nudges without consuming a turn or touching state.
func (e *Engine) emptyInputReply(st models.SessionState) string {
	switch st.Expecting {
	case models.NodeHelpMenu, models.NodeCopingMenu, models.NodeInfoMenu:
		return "Just pick an option (or type 'talk', 'grounding', 'back')."
	}
	return "Say something and I'll try to help 🙂"
}

// topicAcknowledgment pairs the detected topic with an empathetic line
// before offering the top-level choices.
func topicAcknowledgment(topic models.Topic) string {
	switch topic {
	case models.TopicLove:
		return "Aww okay ❤️ " + helpMenuPrompt
	case models.TopicLoneliness:
		return "I hear your pain. You're not alone. " + helpMenuPrompt
	case models.TopicGrief:
		return "I'm really sorry for your loss. " + helpMenuPrompt
	}
	return "I'm really sorry you're feeling this way. " + helpMenuPrompt
}
