package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/Tanya931151/mental-scope/internal/models"
)

func TestInfoMenu_TopicSpecificAnswers(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		topic models.Topic
		input string
		want  string
	}{
		{models.TopicLove, "1", "reward + attachment"},
		{models.TopicLoneliness, "1", "belonging"},
		{models.TopicGrief, "1", "waves"},
		{models.TopicDistress, "1", "demand > time/energy"},
		{models.TopicLoneliness, "2", "one safe person"},
		{models.TopicLove, "3", "obsession"},
		{models.TopicGrief, "3", "extra support"},
	}
	for _, c := range cases {
		st := models.SessionState{Expecting: models.NodeInfoMenu, Topic: c.topic}
		reply, _, _ := e.ProcessTurn(ctx, c.input, st)
		if !strings.Contains(reply, c.want) {
			t.Errorf("topic %q input %q: reply %q does not contain %q", c.topic, c.input, reply, c.want)
		}
	}
}

func TestInfoMenu_DistressNextStepsSwitchesNode(t *testing.T) {
	e := newTestEngine(t)

	st := models.SessionState{Expecting: models.NodeInfoMenu, Topic: models.TopicDistress}
	reply, st2, _ := e.ProcessTurn(context.Background(), "2", st)
	if st2.Expecting != models.NodeDistressInfoNextSteps {
		t.Errorf("Expecting = %q, want distress_info_nextsteps", st2.Expecting)
	}
	if !strings.Contains(reply, "15-minute steps") {
		t.Errorf("reply = %q", reply)
	}
}

func TestInfoMenu_BackAndReprompt(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	st := models.SessionState{Expecting: models.NodeInfoMenu, Topic: models.TopicGrief}
	reply, st2, _ := e.ProcessTurn(ctx, "back", st)
	if st2.Expecting != models.NodeHelpMenu {
		t.Errorf("back: Expecting = %q, want help_menu", st2.Expecting)
	}
	if reply != helpMenuPrompt {
		t.Errorf("back: reply = %q", reply)
	}

	reply, st2, _ = e.ProcessTurn(ctx, "hmm", st)
	if st2.Expecting != models.NodeInfoMenu {
		t.Errorf("reprompt: Expecting = %q, want info_menu", st2.Expecting)
	}
	if !strings.Contains(reply, "1/2/3/4") {
		t.Errorf("reprompt: reply = %q", reply)
	}
}

func TestCopingMenu_Techniques(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	st := models.SessionState{Expecting: models.NodeCopingMenu}

	reply, st2, _ := e.ProcessTurn(ctx, "1", st)
	if !strings.Contains(reply, "Inhale 4") || st2.Expecting != models.NodeCopingMenu {
		t.Errorf("breathing: reply %q, state %+v", reply, st2)
	}

	reply, st2, _ = e.ProcessTurn(ctx, "grounding", st)
	if !strings.Contains(reply, "5-4-3-2-1") || st2.Expecting != models.NodeCopingMenu {
		t.Errorf("grounding: reply %q, state %+v", reply, st2)
	}

	reply, st2, _ = e.ProcessTurn(ctx, "practical", st)
	if !strings.Contains(reply, "10-minute first step") || st2.Expecting != models.NodeCopingMenu {
		t.Errorf("practical: reply %q, state %+v", reply, st2)
	}

	_, st2, _ = e.ProcessTurn(ctx, "back", st)
	if st2.Expecting != models.NodeHelpMenu {
		t.Errorf("back: Expecting = %q, want help_menu", st2.Expecting)
	}
}
