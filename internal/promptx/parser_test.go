package promptx

import "testing"

func TestParserForwardsPlainProse(t *testing.T) {
	p := NewParser()
	prose, call := p.Feed("Hello there, how can I help?")
	if call != nil {
		t.Fatalf("unexpected tool call: %+v", call)
	}
	if prose != "Hello there, how can I help?" {
		t.Errorf("prose = %q", prose)
	}
}

func TestParserExtractsToolCall(t *testing.T) {
	p := NewParser()
	prose, call := p.Feed(`Sure, one moment. {"name":"get_current_time","parameters":{}}`)
	if call == nil {
		t.Fatal("expected tool call, got nil")
	}
	if call.Name != "get_current_time" {
		t.Errorf("call.Name = %q, want get_current_time", call.Name)
	}
	if prose != "Sure, one moment. " {
		t.Errorf("prose = %q", prose)
	}
}

func TestParserHandlesNestedBraces(t *testing.T) {
	p := NewParser()
	_, call := p.Feed(`{"name":"perform_math_operation","parameters":{"operation":"addition","number1":1,"number2":2}}`)
	if call == nil {
		t.Fatal("expected tool call")
	}
	if call.Parameters["operation"] != "addition" {
		t.Errorf("parameters = %+v", call.Parameters)
	}
}

func TestParserNormalizesCurlyQuotes(t *testing.T) {
	p := NewParser()
	_, call := p.Feed("{“name”: “get_current_time”, “parameters”: {}}")
	if call == nil {
		t.Fatal("expected tool call after curly-quote normalization")
	}
	if call.Name != "get_current_time" {
		t.Errorf("call.Name = %q", call.Name)
	}
}

func TestParserDropsInvalidJSONSilently(t *testing.T) {
	p := NewParser()
	prose, call := p.Feed(`before {not valid json} after`)
	if call != nil {
		t.Fatalf("expected no tool call for invalid JSON, got %+v", call)
	}
	if prose != "before  after" {
		t.Errorf("prose = %q", prose)
	}
}

func TestParserStopsAfterFirstToolCall(t *testing.T) {
	p := NewParser()
	p.Feed(`{"name":"a","parameters":{}}`)
	if !p.Done() {
		t.Fatal("expected Done() true after first tool call")
	}
	prose, call := p.Feed(`{"name":"b","parameters":{}} more text`)
	if call != nil || prose != "" {
		t.Errorf("expected Feed to be inert after Done(), got prose=%q call=%+v", prose, call)
	}
}

func TestParserCodeFenceSuppressionWhenEnabled(t *testing.T) {
	p := NewParser()
	p.DisableCodeFence = false
	prose, call := p.Feed("```\n{\"name\":\"x\"}\n```")
	if call != nil {
		t.Fatalf("expected JSON inside fence to be suppressed, got %+v", call)
	}
	if prose == "" {
		t.Error("expected the fence markers to still be forwarded as prose")
	}
}

func TestParserJSONAlwaysActiveWhenFencesDisabledFeature(t *testing.T) {
	p := NewParser()
	// DisableCodeFence true (default): JSON extraction works even inside
	// what would otherwise be a fenced block.
	_, call := p.Feed("```\n{\"name\":\"get_current_time\",\"parameters\":{}}\n```")
	if call == nil {
		t.Fatal("expected tool call to be recognized regardless of fences")
	}
}
