// Package tools implements the tool registry and dispatcher: named
// operations with declared parameter schemas, a uniform wrapped-JSON result
// envelope, and a uniform error contract so no handler exception escapes to
// the conversation loop.
package tools

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurelio-voice/aurelio-server/internal/metrics"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// Params is the decoded "parameters" object of a tool call.
type Params map[string]interface{}

// Result is the payload a handler produces; it is always wrapped into the
// {"tool_result": {"name":..., "content":...}} envelope before being
// appended to a session's history.
type Result map[string]interface{}

// Handler performs a tool's side effect. Handlers may enqueue short UX
// status strings onto sess.Responses (e.g. "Calculating!"); such strings are
// spoken/streamed as they appear. A returned error is caught by the
// Dispatcher and turned into a textual tool error, never propagated raw.
type Handler func(params Params, sess *session.Session) (Result, error)

// Spec describes one tool's name and parameter shape for both dispatch and
// prompt-assembly purposes.
type Spec struct {
	Name         string
	ParamSummary string // human-readable parameter list for the tools block
	Handler      Handler
}

// Registry is the set of tools available to a Conversation Loop for one
// turn. Safe for concurrent reads; Register is expected to happen once at
// startup.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds or replaces a tool spec.
func (r *Registry) Register(spec Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[spec.Name] = spec
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specs)
}

// Specs returns all registered tool specs, sorted by name for deterministic
// prompt rendering.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// lookup returns the handler for name, if registered.
func (r *Registry) lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	if !ok {
		return nil, false
	}
	return spec.Handler, true
}

// Dispatcher invokes registered handlers and wraps their output (or any
// failure) into the uniform envelope.
type Dispatcher struct {
	Registry *Registry
}

// NewDispatcher wires a Dispatcher to reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{Registry: reg}
}

// envelope is {"tool_result": {"name": ..., "content": ...}}.
type envelope struct {
	ToolResult toolResult `json:"tool_result"`
}

type toolResult struct {
	Name    string      `json:"name"`
	Content interface{} `json:"content"`
}

// Dispatch runs the named tool and returns the wrapped JSON envelope as a
// string, suitable for appending to session history as a role=tool turn.
// No handler panic or error ever escapes: both are converted into the
// envelope's textual error shape.
func (d *Dispatcher) Dispatch(name string, params Params, sess *session.Session) string {
	content := d.run(name, params, sess)
	env := envelope{ToolResult: toolResult{Name: name, Content: content}}
	data, err := json.Marshal(env)
	if err != nil {
		// Marshaling a map[string]interface{} built entirely from our own
		// handlers cannot fail in practice; fall back to a minimal literal
		// envelope rather than panic.
		return fmt.Sprintf(`{"tool_result":{"name":%q,"content":{"text":"Tool error: could not encode result"}}}`, name)
	}
	return string(data)
}

func (d *Dispatcher) run(name string, params Params, sess *session.Session) (content interface{}) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ToolErrorsTotal.WithLabelValues(name).Inc()
			content = Result{"text": fmt.Sprintf("Tool error: %v", r)}
		}
	}()

	timer := prometheus.NewTimer(metrics.StageDuration.WithLabelValues("tool"))
	defer timer.ObserveDuration()

	handler, ok := d.Registry.lookup(name)
	if !ok {
		return Result{"text": "Unknown tool"}
	}
	result, err := handler(params, sess)
	if err != nil {
		metrics.ToolErrorsTotal.WithLabelValues(name).Inc()
		return Result{"text": fmt.Sprintf("Tool error: %v", err)}
	}
	return result
}
