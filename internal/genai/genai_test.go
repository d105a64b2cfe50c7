package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// fakeCompletions captures the request and returns a canned completion.
type fakeCompletions struct {
	lastBody openai.ChatCompletionNewParams
	resp     *openai.ChatCompletion
	err      error
}

func (f *fakeCompletions) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.lastBody = body
	return f.resp, f.err
}

// The real completions service has a pointer-receiver New, so the client
// must hold *openai.ChatCompletionService, not the struct value.
var _ completionService = (*openai.ChatCompletionService)(nil)

func TestNewClient_WiresCompletions(t *testing.T) {
	c, err := NewClient(WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.completions == nil {
		t.Fatal("completions service not wired")
	}
	if c.model != openai.ChatModelGPT4oMini {
		t.Errorf("model = %q, want default", c.model)
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := NewClient(WithAPIKey("sk-test")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestComplete(t *testing.T) {
	fake := &fakeCompletions{
		resp: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "You're not alone in this."}},
			},
		},
	}
	c := &Client{completions: fake, model: openai.ChatModelGPT4oMini}

	reply, err := c.Complete(context.Background(), "i had a terrible day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "You're not alone in this." {
		t.Errorf("reply = %q", reply)
	}
	if len(fake.lastBody.Messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(fake.lastBody.Messages))
	}
}

func TestComplete_Errors(t *testing.T) {
	c := &Client{completions: &fakeCompletions{err: errors.New("rate limited")}, model: openai.ChatModelGPT4oMini}
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Error("expected error when API call fails")
	}

	c = &Client{completions: &fakeCompletions{resp: &openai.ChatCompletion{}}, model: openai.ChatModelGPT4oMini}
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Error("expected error when no choices returned")
	}
}
