package tools

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aurelio-voice/aurelio-server/internal/session"
)

func newTestSession() *session.Session {
	return session.New("test")
}

func dispatchAndDecode(t *testing.T, reg *Registry, name string, params Params) map[string]interface{} {
	t.Helper()
	d := NewDispatcher(reg)
	raw := d.Dispatch(name, params, newTestSession())
	var out struct {
		ToolResult struct {
			Name    string                 `json:"name"`
			Content map[string]interface{} `json:"content"`
		} `json:"tool_result"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("envelope did not decode as JSON: %v\nraw: %s", err, raw)
	}
	if out.ToolResult.Name != name {
		t.Errorf("envelope name = %q, want %q", out.ToolResult.Name, name)
	}
	return out.ToolResult.Content
}

func TestDispatchUnknownToolYieldsUniformError(t *testing.T) {
	reg := NewRegistry()
	content := dispatchAndDecode(t, reg, "does_not_exist", Params{})
	if content["text"] != "Unknown tool" {
		t.Errorf("content = %+v, want text=Unknown tool", content)
	}
}

func TestDispatchHandlerErrorNeverEscapes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Spec{
		Name: "boom",
		Handler: func(Params, *session.Session) (Result, error) {
			return nil, errors.New("kaboom")
		},
	})
	content := dispatchAndDecode(t, reg, "boom", Params{})
	text, _ := content["text"].(string)
	if !strings.Contains(text, "Tool error") || !strings.Contains(text, "kaboom") {
		t.Errorf("content = %+v, want Tool error wrapping kaboom", content)
	}
}

func TestDispatchHandlerPanicNeverEscapes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Spec{
		Name: "panics",
		Handler: func(Params, *session.Session) (Result, error) {
			panic("unexpected")
		},
	})
	content := dispatchAndDecode(t, reg, "panics", Params{})
	text, _ := content["text"].(string)
	if !strings.Contains(text, "Tool error") {
		t.Errorf("content = %+v, want Tool error after panic recovery", content)
	}
}

func TestMathOperationDivideByZero(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewPerformMathOperationSpec())
	content := dispatchAndDecode(t, reg, "perform_math_operation", Params{
		"operation": "division", "number1": 4.0, "number2": 0.0,
	})
	if content["response"] != "Division by zero is undefined." {
		t.Errorf("content = %+v", content)
	}
}

func TestMathOperationNegativeSquareRoot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewPerformMathOperationSpec())
	content := dispatchAndDecode(t, reg, "perform_math_operation", Params{
		"operation": "square_root", "number1": -4.0,
	})
	if content["response"] != "Square root of a negative number is undefined in real numbers." {
		t.Errorf("content = %+v", content)
	}
}

func TestMathOperationAddition(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewPerformMathOperationSpec())
	content := dispatchAndDecode(t, reg, "perform_math_operation", Params{
		"operation": "addition", "number1": 2.0, "number2": 3.0,
	})
	if content["response"] != "Result of addition: 5" {
		t.Errorf("content = %+v", content)
	}
}

func TestCloseVoiceChannelLatchesSession(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewCloseVoiceChannelSpec())
	d := NewDispatcher(reg)
	sess := newTestSession()
	d.Dispatch("close_voice_channel", Params{}, sess)
	if !sess.CloseVoice.IsSet() {
		t.Fatal("expected CloseVoice to be set")
	}
}

func TestSpecsAreSortedByName(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Spec{Name: "zeta"})
	reg.Register(Spec{Name: "alpha"})
	specs := reg.Specs()
	if len(specs) != 2 || specs[0].Name != "alpha" || specs[1].Name != "zeta" {
		t.Errorf("specs = %+v, want sorted alpha,zeta", specs)
	}
}
