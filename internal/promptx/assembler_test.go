package promptx

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/aurelio-voice/aurelio-server/internal/knowledge"
	"github.com/aurelio-voice/aurelio-server/internal/session"
	"github.com/aurelio-voice/aurelio-server/internal/tools"
)

func newTestAssembler(t *testing.T) (*Assembler, *knowledge.TextFile, *knowledge.BehaviorStore) {
	t.Helper()
	dir := t.TempDir()
	base := knowledge.NewTextFile(filepath.Join(dir, "base.txt"))
	if err := base.Write("You are a helpful assistant."); err != nil {
		t.Fatalf("Write base: %v", err)
	}
	voice := knowledge.NewTextFile(filepath.Join(dir, "voice.txt"))
	know := knowledge.NewTextFile(filepath.Join(dir, "knowledge.txt"))
	behavior := knowledge.NewBehaviorStore(filepath.Join(dir, "behavior.json"))
	reg := tools.NewRegistry()
	a := NewAssembler(base, voice, know, behavior, nil, 0, reg, nil)
	return a, know, behavior
}

func TestRenderIncludesBaseInstructions(t *testing.T) {
	a, _, _ := newTestAssembler(t)
	sess := session.New("s1")
	rendered := a.Render(sess, false)
	if !strings.Contains(rendered, "You are a helpful assistant.") {
		t.Errorf("rendered prompt missing base instructions:\n%s", rendered)
	}
	if !strings.Contains(rendered, "<|start_header_id|>assistant<|end_header_id|>") {
		t.Error("rendered prompt missing trailing assistant cue")
	}
}

func TestRenderIncludesLiveKnowledgeEdits(t *testing.T) {
	a, know, _ := newTestAssembler(t)
	sess := session.New("s2")

	if err := know.Write("The office thermostat is in the hallway."); err != nil {
		t.Fatalf("Write: %v", err)
	}
	first := a.Render(sess, false)
	if !strings.Contains(first, "hallway") {
		t.Error("expected first render to include initial knowledge text")
	}

	if err := know.Write("The office thermostat is in the kitchen now."); err != nil {
		t.Fatalf("Write: %v", err)
	}
	second := a.Render(sess, false)
	if !strings.Contains(second, "kitchen") {
		t.Error("expected second render to reflect the live edit")
	}
}

func TestRenderIncludesBehaviourOverrides(t *testing.T) {
	a, _, behavior := newTestAssembler(t)
	if err := behavior.Add("Keep voice replies short."); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sess := session.New("s3")
	rendered := a.Render(sess, false)
	if !strings.Contains(rendered, "[BEHAVIOUR_OVERRIDES]") || !strings.Contains(rendered, "Keep voice replies short.") {
		t.Errorf("rendered prompt missing behaviour overrides:\n%s", rendered)
	}
}

func TestRenderRendersToolResultTurnsAsSyntheticUser(t *testing.T) {
	a, _, _ := newTestAssembler(t)
	sess := session.New("s4")
	sess.Append(session.RoleUser, "What time is it?")
	sess.Append(session.RoleTool, `{"tool_result":{"name":"get_current_time","content":{"response":"current time: 02:05PM"}}}`)
	rendered := a.Render(sess, false)
	if !strings.Contains(rendered, "<TOOL_RESULT>") || !strings.Contains(rendered, "</TOOL_RESULT>") {
		t.Errorf("expected tool turn wrapped in TOOL_RESULT markers:\n%s", rendered)
	}
}

func TestRenderOmitsToolsBlockWhenRegistryEmpty(t *testing.T) {
	a, _, _ := newTestAssembler(t)
	sess := session.New("s5")
	rendered := a.Render(sess, false)
	if strings.Contains(rendered, "<|start_header_id|>tools<|end_header_id|>") {
		t.Error("expected no tools block with an empty registry")
	}
}

func TestRenderIncludesToolsBlockWhenRegistered(t *testing.T) {
	a, _, _ := newTestAssembler(t)
	a.Registry.Register(tools.Spec{Name: "get_current_time", ParamSummary: ""})
	sess := session.New("s6")
	rendered := a.Render(sess, false)
	if !strings.Contains(rendered, "get_current_time") {
		t.Error("expected tools block to list registered tool")
	}
}

func TestRenderAdvertisesCloseVoiceChannelOnlyToVoiceTurns(t *testing.T) {
	a, _, _ := newTestAssembler(t)
	voiceReg := tools.NewRegistry()
	voiceReg.Register(tools.Spec{Name: "get_current_time", ParamSummary: ""})
	voiceReg.Register(tools.Spec{Name: "close_voice_channel", ParamSummary: ""})
	a.VoiceRegistry = voiceReg

	sess := session.New("s7")
	chatRendered := a.Render(sess, false)
	if strings.Contains(chatRendered, "close_voice_channel") {
		t.Error("expected close_voice_channel to be absent from a chat (non-voice) turn")
	}

	voiceRendered := a.Render(sess, true)
	if !strings.Contains(voiceRendered, "close_voice_channel") {
		t.Error("expected close_voice_channel to be advertised on a voice turn")
	}
}
