package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/Tanya931151/mental-scope/internal/models"
)

func TestTalkMode_DistressSequence(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Enter talk mode from the help menu with a distress topic.
	st := models.SessionState{Expecting: models.NodeHelpMenu, Topic: models.TopicDistress}
	reply, st, _ := e.ProcessTurn(ctx, "talk", st)
	if st.Expecting != models.NodeTalkMode || st.TalkLastQuestion != QuestionDistressOpen {
		t.Fatalf("opener state = %+v", st)
	}
	if !strings.Contains(reply, "weighing on you") {
		t.Fatalf("opener = %q", reply)
	}

	// Any non-empty answer advances to the bucket question.
	reply, st, _ = e.ProcessTurn(ctx, "everything at once honestly", st)
	if st.TalkLastQuestion != QuestionDistressBucket {
		t.Fatalf("after open: %+v", st)
	}
	if !strings.Contains(reply, "tasks") {
		t.Fatalf("bucket question = %q", reply)
	}

	// The bucket question needs a recognized bucket.
	reply, st, _ = e.ProcessTurn(ctx, "i don't know", st)
	if st.TalkLastQuestion != QuestionDistressBucket {
		t.Fatalf("unrecognized bucket advanced: %+v", st)
	}
	if !strings.Contains(reply, "tasks") || !strings.Contains(reply, "pressure") {
		t.Fatalf("bucket re-ask = %q", reply)
	}

	reply, st, _ = e.ProcessTurn(ctx, "too many tasks", st)
	if st.TalkLastQuestion != QuestionDistressTasks {
		t.Fatalf("after bucket: %+v", st)
	}
	if !strings.Contains(reply, "tasks") {
		t.Fatalf("tasks question = %q", reply)
	}

	reply, st, _ = e.ProcessTurn(ctx, "not enough time", st)
	if st.TalkLastQuestion != QuestionDistressNextStep {
		t.Fatalf("after tasks: %+v", st)
	}
	if !strings.Contains(reply, "deadline") {
		t.Fatalf("next-step question = %q", reply)
	}
}

func TestTalkMode_LonelySequence(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	st := models.SessionState{Expecting: models.NodeHelpMenu, Topic: models.TopicLoneliness}
	_, st, _ = e.ProcessTurn(ctx, "talk", st)
	if st.TalkLastQuestion != QuestionLonelyWhere {
		t.Fatalf("opener state = %+v", st)
	}

	reply, st, _ := e.ProcessTurn(ctx, "at home mostly", st)
	if st.TalkLastQuestion != QuestionLonelyWhat {
		t.Fatalf("after where: %+v", st)
	}
	if !strings.Contains(reply, "left out") {
		t.Fatalf("what question = %q", reply)
	}

	reply, st, _ = e.ProcessTurn(ctx, "everyone stopped reaching out", st)
	if st.TalkLastQuestion != QuestionLonelyNext {
		t.Fatalf("after what: %+v", st)
	}
	if !strings.Contains(reply, "being heard") {
		t.Fatalf("next question = %q", reply)
	}
}

func TestTalkMode_SwitchesToCoping(t *testing.T) {
	e := newTestEngine(t)

	st := models.SessionState{
		Expecting:        models.NodeTalkMode,
		TalkTopic:        models.TopicDistress,
		TalkStage:        1,
		TalkLastQuestion: QuestionDistressBucket,
	}
	reply, st2, _ := e.ProcessTurn(context.Background(), "can i get some coping tips instead", st)
	if st2.Expecting != models.NodeCopingFollowup {
		t.Errorf("Expecting = %q, want coping_followup", st2.Expecting)
	}
	if st2.Topic != models.TopicDistress {
		t.Errorf("topic should carry over, got %q", st2.Topic)
	}
	if !strings.Contains(reply, "inhale 4") {
		t.Errorf("coping tip = %q", reply)
	}
}

func TestTalkMode_SwitchesToInfo(t *testing.T) {
	e := newTestEngine(t)

	st := models.SessionState{
		Expecting: models.NodeTalkMode,
		TalkTopic: models.TopicLove,
		TalkStage: 1,
	}
	reply, st2, _ := e.ProcessTurn(context.Background(), "just give me information", st)
	if st2.Expecting != models.NodeInfoMenu {
		t.Errorf("Expecting = %q, want info_menu", st2.Expecting)
	}
	if st2.Topic != models.TopicLove {
		t.Errorf("topic should carry over, got %q", st2.Topic)
	}
	if !strings.Contains(reply, "What kind of info") {
		t.Errorf("info menu = %q", reply)
	}
}

func TestTalkMode_ExhaustedSequenceAcknowledges(t *testing.T) {
	e := newTestEngine(t)

	st := models.SessionState{
		Expecting:        models.NodeTalkMode,
		TalkTopic:        models.TopicGrief,
		TalkStage:        1,
		TalkLastQuestion: QuestionGriefNext,
	}
	reply, st2, _ := e.ProcessTurn(context.Background(), "mostly at night", st)
	if reply != "I'm with you. Tell me a bit more." {
		t.Errorf("reply = %q", reply)
	}
	if st2.Expecting != models.NodeTalkMode {
		t.Errorf("Expecting = %q, want talk_mode", st2.Expecting)
	}
}
