package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Tanya931151/mental-scope/internal/intent"
	"github.com/Tanya931151/mental-scope/internal/models"
)

// stubClassifier returns fixed predictions or a fixed error.
type stubClassifier struct {
	predictions []intent.Prediction
	err         error
	calls       int
}

func (s *stubClassifier) Predict(ctx context.Context, text string) ([]intent.Prediction, error) {
	s.calls++
	return s.predictions, s.err
}

// stubCompleter returns a fixed reply or a fixed error.
type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, userText string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	c := loadTestCatalogue(t)
	opts = append([]Option{WithRandSource(func(n int) int { return 0 })}, opts...)
	e, err := New(c, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func TestNew_ConfigErrors(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil catalogue")
	}
	c := loadTestCatalogue(t)
	if _, err := New(c, WithFallbackMode("bogus")); err == nil {
		t.Error("expected error for unsupported fallback mode")
	}
	if _, err := New(c, WithFallbackMode(FallbackModeLLM)); err == nil {
		t.Error("expected error for llm mode without completer")
	}
}

func TestProcessTurn_StartSentinel(t *testing.T) {
	e := newTestEngine(t)

	// Whatever the prior state was, the sentinel resets it.
	prior := models.SessionState{
		Topic:     models.TopicGrief,
		Expecting: models.NodeTalkMode,
		TalkStage: 1,
	}
	reply, st, options := e.ProcessTurn(context.Background(), "__start__", prior)
	if reply != startGreeting {
		t.Errorf("reply = %q, want greeting", reply)
	}
	if st.Expecting != models.NodeStart {
		t.Errorf("Expecting = %q, want start", st.Expecting)
	}
	if st.Topic != models.TopicNone || st.TalkStage != 0 {
		t.Errorf("prior state should be discarded, got %+v", st)
	}
	if len(options) != 3 {
		t.Errorf("expected 3 start options, got %d", len(options))
	}
}

func TestProcessTurn_EmptyInput(t *testing.T) {
	e := newTestEngine(t)

	st := models.SessionState{Expecting: models.NodeHelpMenu, Topic: models.TopicDistress}
	reply, newState, _ := e.ProcessTurn(context.Background(), "   ", st)
	if !strings.Contains(reply, "pick an option") {
		t.Errorf("menu-state nudge = %q", reply)
	}
	if newState != st {
		t.Errorf("empty input must not change state: %+v vs %+v", newState, st)
	}

	reply, _, _ = e.ProcessTurn(context.Background(), "", models.SessionState{})
	if !strings.Contains(reply, "Say something") {
		t.Errorf("generic nudge = %q", reply)
	}
}

func TestProcessTurn_CrisisOverridesAnyState(t *testing.T) {
	e := newTestEngine(t)

	states := []models.SessionState{
		{},
		{Expecting: models.NodeHelpMenu},
		{Expecting: models.NodeCopingMenu, Topic: models.TopicDistress},
		{Expecting: models.NodeTalkMode, TalkTopic: models.TopicLove, TalkStage: 1, TalkLastQuestion: QuestionLoveFeel},
		{Expecting: models.NodeInfoMenu, Topic: models.TopicGrief},
	}
	for _, st := range states {
		reply, newState, _ := e.ProcessTurn(context.Background(), "I want to hurt myself", st)
		if reply != CrisisReply {
			t.Errorf("state %+v: reply = %q, want crisis reply", st, reply)
		}
		if newState.Topic != models.TopicCrisis || newState.Emotion != "crisis" {
			t.Errorf("state %+v: crisis state not set, got %+v", st, newState)
		}
		if newState.Expecting != models.NodeStart {
			t.Errorf("state %+v: Expecting = %q, want start", st, newState.Expecting)
		}
	}
}

func TestProcessTurn_EmotionalTopicRoutesToHelpMenu(t *testing.T) {
	e := newTestEngine(t)

	reply, st, _ := e.ProcessTurn(context.Background(), "I feel so alone, nobody talks to me", models.SessionState{})
	if st.Topic != models.TopicLoneliness {
		t.Errorf("Topic = %q, want loneliness", st.Topic)
	}
	if st.Expecting != models.NodeHelpMenu {
		t.Errorf("Expecting = %q, want help_menu", st.Expecting)
	}
	if !strings.Contains(reply, "not alone") || !strings.Contains(reply, "talk") {
		t.Errorf("acknowledgment = %q", reply)
	}
}

func TestProcessTurn_HelpMenuChoices(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// talk -> topic-specific opener in talk mode
	st := models.SessionState{Expecting: models.NodeHelpMenu, Topic: models.TopicLoneliness}
	reply, st2, _ := e.ProcessTurn(ctx, "talk", st)
	if st2.Expecting != models.NodeTalkMode {
		t.Errorf("Expecting = %q, want talk_mode", st2.Expecting)
	}
	if !strings.Contains(reply, "feel alone the most") {
		t.Errorf("lonely opener = %q", reply)
	}

	// coping tips -> immediate tip with yes/no followup
	st = models.SessionState{Expecting: models.NodeHelpMenu, Topic: models.TopicDistress}
	reply, st2, _ = e.ProcessTurn(ctx, "coping tips", st)
	if st2.Expecting != models.NodeCopingFollowup {
		t.Errorf("Expecting = %q, want coping_followup", st2.Expecting)
	}
	if st2.LastCopingTip == "" || !strings.Contains(reply, "inhale 4") {
		t.Errorf("coping tip = %q, state %+v", reply, st2)
	}

	// information -> info menu
	st = models.SessionState{Expecting: models.NodeHelpMenu, Topic: models.TopicGrief}
	reply, st2, _ = e.ProcessTurn(ctx, "information", st)
	if st2.Expecting != models.NodeInfoMenu {
		t.Errorf("Expecting = %q, want info_menu", st2.Expecting)
	}
	if !strings.Contains(reply, "What kind of info") {
		t.Errorf("info menu = %q", reply)
	}

	// anything else -> re-prompt, stays on the menu
	st = models.SessionState{Expecting: models.NodeHelpMenu}
	reply, st2, _ = e.ProcessTurn(ctx, "purple elephants", st)
	if st2.Expecting != models.NodeHelpMenu {
		t.Errorf("Expecting = %q, want help_menu", st2.Expecting)
	}
	if reply != helpMenuPrompt {
		t.Errorf("re-prompt = %q", reply)
	}
}

func TestProcessTurn_CrisisTopicNeverEntersTalkMode(t *testing.T) {
	e := newTestEngine(t)

	st := models.SessionState{Expecting: models.NodeHelpMenu, Topic: models.TopicCrisis}
	_, st2, _ := e.ProcessTurn(context.Background(), "talk", st)
	if st2.TalkTopic == models.TopicCrisis {
		t.Errorf("talk mode opened on crisis topic: %+v", st2)
	}
}

func TestProcessTurn_CopingFollowup(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	st := models.SessionState{Expecting: models.NodeCopingFollowup, Topic: models.TopicDistress}
	reply, st2, _ := e.ProcessTurn(ctx, "yes", st)
	if st2.Expecting != models.NodeCopingMenu {
		t.Errorf("yes: Expecting = %q, want coping_menu", st2.Expecting)
	}
	if !strings.Contains(reply, "Pick one") {
		t.Errorf("yes: reply = %q", reply)
	}

	reply, st2, _ = e.ProcessTurn(ctx, "no", st)
	if st2.Expecting != models.NodeCopingFollowup {
		t.Errorf("no: Expecting = %q, want coping_followup", st2.Expecting)
	}
	if !strings.Contains(reply, "That's okay") {
		t.Errorf("no: reply = %q", reply)
	}

	reply, st2, _ = e.ProcessTurn(ctx, "maybe later", st)
	if st2.Expecting != models.NodeCopingFollowup {
		t.Errorf("other: Expecting = %q, want coping_followup", st2.Expecting)
	}
	if !strings.Contains(reply, "yes") || !strings.Contains(reply, "no") {
		t.Errorf("other: reply = %q", reply)
	}
}

func TestProcessTurn_DistressInfoNextSteps(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	st := models.SessionState{Expecting: models.NodeDistressInfoNextSteps, Topic: models.TopicDistress}
	for _, in := range []string{"tasks", "people", "pressure", "expectations"} {
		_, st2, _ := e.ProcessTurn(ctx, in, st)
		if st2.Expecting != models.NodeHelpMenu {
			t.Errorf("%q: Expecting = %q, want help_menu", in, st2.Expecting)
		}
	}

	reply, st2, _ := e.ProcessTurn(ctx, "everything", st)
	if st2.Expecting != models.NodeDistressInfoNextSteps {
		t.Errorf("unrecognized: Expecting = %q, want distress_info_nextsteps", st2.Expecting)
	}
	if !strings.Contains(reply, "tasks") {
		t.Errorf("unrecognized: reply = %q", reply)
	}
}

func TestProcessTurn_ClassifierAnswersAtThreshold(t *testing.T) {
	cls := &stubClassifier{predictions: []intent.Prediction{{Tag: "greetings", Confidence: 0.30}}}
	e := newTestEngine(t, WithClassifier(cls))

	// Exactly at the threshold counts as confident enough.
	reply, st, options := e.ProcessTurn(context.Background(), "hello there friend", models.SessionState{})
	if reply != "Hello!" {
		t.Errorf("reply = %q, want merged greeting response", reply)
	}
	if st.Expecting != models.NodeStart {
		t.Errorf("Expecting = %q, want start", st.Expecting)
	}
	if len(options) == 0 {
		t.Error("answered turn should re-offer start options")
	}
}

func TestProcessTurn_ClassifierBelowThresholdShowsMenu(t *testing.T) {
	cls := &stubClassifier{predictions: []intent.Prediction{{Tag: "greeting", Confidence: 0.29}}}
	e := newTestEngine(t, WithClassifier(cls))

	reply, st, _ := e.ProcessTurn(context.Background(), "qwxz gibberish", models.SessionState{})
	if reply != helpMenuPrompt {
		t.Errorf("reply = %q, want help menu prompt", reply)
	}
	if st.Expecting != models.NodeHelpMenu {
		t.Errorf("Expecting = %q, want help_menu", st.Expecting)
	}
}

func TestProcessTurn_FactTagCollapses(t *testing.T) {
	cls := &stubClassifier{predictions: []intent.Prediction{{Tag: "fact-17", Confidence: 0.9}}}
	e := newTestEngine(t, WithClassifier(cls))

	reply, _, _ := e.ProcessTurn(context.Background(), "tell me something interesting", models.SessionState{})
	if reply != "Here is a fact." {
		t.Errorf("reply = %q, want fact response", reply)
	}
}

func TestProcessTurn_ClassifierErrorDegrades(t *testing.T) {
	cls := &stubClassifier{err: errors.New("connection refused")}
	e := newTestEngine(t, WithClassifier(cls))

	reply, st, _ := e.ProcessTurn(context.Background(), "qwxz gibberish", models.SessionState{})
	if reply != helpMenuPrompt {
		t.Errorf("reply = %q, want help menu prompt", reply)
	}
	if st.Expecting != models.NodeHelpMenu {
		t.Errorf("Expecting = %q, want help_menu", st.Expecting)
	}
}

func TestProcessTurn_LLMFallback(t *testing.T) {
	cls := &stubClassifier{predictions: []intent.Prediction{{Tag: "greeting", Confidence: 0.05}}}
	comp := &stubCompleter{reply: "That sounds like a lot to carry."}
	e := newTestEngine(t, WithClassifier(cls), WithFallbackMode(FallbackModeLLM), WithCompleter(comp))

	reply, st, _ := e.ProcessTurn(context.Background(), "qwxz gibberish", models.SessionState{})
	if reply != comp.reply {
		t.Errorf("reply = %q, want completer reply", reply)
	}
	if comp.calls != 1 {
		t.Errorf("completer calls = %d, want 1", comp.calls)
	}
	if st.Expecting != models.NodeStart {
		t.Errorf("Expecting = %q, want start", st.Expecting)
	}
}

func TestProcessTurn_LLMFallbackErrorUsesFixedReply(t *testing.T) {
	cls := &stubClassifier{predictions: []intent.Prediction{{Tag: "greeting", Confidence: 0.05}}}
	comp := &stubCompleter{err: errors.New("rate limited")}
	e := newTestEngine(t, WithClassifier(cls), WithFallbackMode(FallbackModeLLM), WithCompleter(comp))

	reply, _, _ := e.ProcessTurn(context.Background(), "qwxz gibberish", models.SessionState{})
	if reply != genericEmpathReply {
		t.Errorf("reply = %q, want generic empathetic reply", reply)
	}
}

func TestProcessTurn_ThresholdOverride(t *testing.T) {
	cls := &stubClassifier{predictions: []intent.Prediction{{Tag: "greeting", Confidence: 0.5}}}
	e := newTestEngine(t, WithClassifier(cls), WithConfidenceThreshold(0.6))

	reply, _, _ := e.ProcessTurn(context.Background(), "hello hello", models.SessionState{})
	if reply != helpMenuPrompt {
		t.Errorf("override threshold ignored: reply = %q", reply)
	}
}

func TestProcessTurn_GraphDispatch(t *testing.T) {
	g := loadTestGraph(t)
	e := newTestEngine(t, WithFlowGraph(g))
	ctx := context.Background()

	// Start sentinel renders the graph's start node.
	reply, st, options := e.ProcessTurn(ctx, "__start__", models.SessionState{})
	if reply != "How are you feeling?" {
		t.Errorf("start reply = %q", reply)
	}
	if len(options) != 2 {
		t.Errorf("start options = %d, want 2", len(options))
	}

	// A label match transitions and renders the target node from the
	// catalogue when its tag has responses.
	reply, st, _ = e.ProcessTurn(ctx, "feeling down", st)
	if st.Expecting != models.NodeID("down") {
		t.Errorf("Expecting = %q, want down", st.Expecting)
	}
	if reply != "That sounds heavy." {
		// "sad" has no entries in the test catalogue, so the literal
		// node message is used.
		t.Errorf("reply = %q", reply)
	}
}

func TestProcessTurn_GraphMissGoesToClassifier(t *testing.T) {
	g := loadTestGraph(t)
	cls := &stubClassifier{predictions: []intent.Prediction{{Tag: "greeting", Confidence: 0.9}}}
	e := newTestEngine(t, WithFlowGraph(g), WithClassifier(cls))

	// Emotional phrasing must NOT trigger menu-style topic routing in
	// graph deployments; a miss goes straight to the classifier.
	reply, st, _ := e.ProcessTurn(context.Background(), "i feel so alone these days", models.SessionState{})
	if cls.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", cls.calls)
	}
	if reply != "Hello!" {
		t.Errorf("reply = %q, want classifier-backed response", reply)
	}
	if st.Expecting != models.NodeStart {
		t.Errorf("Expecting = %q, want start", st.Expecting)
	}
}

func TestProcessTurn_GraphUnknownNodeResetsToStart(t *testing.T) {
	g := loadTestGraph(t)
	e := newTestEngine(t, WithFlowGraph(g))

	st := models.SessionState{Expecting: models.NodeID("vanished")}
	_, st2, _ := e.ProcessTurn(context.Background(), "feeling down", st)
	if st2.Expecting != models.NodeID("down") {
		t.Errorf("unknown node should be read as start: Expecting = %q", st2.Expecting)
	}
}

func TestProcessTurn_RecordsLastExchange(t *testing.T) {
	e := newTestEngine(t)

	reply, st, _ := e.ProcessTurn(context.Background(), "  i feel   so lonely ", models.SessionState{})
	if st.LastUser != "i feel so lonely" {
		t.Errorf("LastUser = %q, want normalized input", st.LastUser)
	}
	if st.LastBot != reply {
		t.Errorf("LastBot = %q, want %q", st.LastBot, reply)
	}
}
