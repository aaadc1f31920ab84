package promptx

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/knowledge"
	"github.com/aurelio-voice/aurelio-server/internal/session"
	"github.com/aurelio-voice/aurelio-server/internal/tools"
)

// DefaultHADigestTTL is used when NewAssembler is given a ttl <= 0.
const DefaultHADigestTTL = 30 * time.Second

// chat template sentinels, matching the backend's own turn markers.
const (
	headerOpen  = "<|start_header_id|>"
	headerClose = "<|end_header_id|>\n"
	turnEnd     = "\n<|eot_id|>\n\n"
)

// HomeAutomationDigester produces the live entity digest appended to the
// preamble. Implementations call out to the home-automation backend; the
// result is cached for the Assembler's configured TTL so every prompt
// assembly doesn't pay a network round trip.
type HomeAutomationDigester interface {
	Digest() (string, error)
}

// Assembler renders a single prompt blob from a session's history plus a
// five-step preamble composition, following a chat-template-sentinel
// convention.
type Assembler struct {
	BaseInstructions     *knowledge.TextFile
	VoiceSubInstructions *knowledge.TextFile
	Knowledge            *knowledge.TextFile
	Behavior             *knowledge.BehaviorStore
	HADigester           HomeAutomationDigester
	Registry             *tools.Registry
	VoiceRegistry        *tools.Registry

	haTTL time.Duration

	mu         sync.Mutex
	haCache    string
	haCachedAt time.Time
	haFetched  bool
}

// NewAssembler wires the preamble sources. ha may be nil if home automation
// isn't configured, in which case step 4 contributes nothing. haTTL <= 0
// falls back to DefaultHADigestTTL. reg is advertised to every turn;
// voiceReg, if non-nil, is advertised instead for voice turns (it should
// contain everything in reg plus close_voice_channel).
func NewAssembler(base, voiceSub, know *knowledge.TextFile, behavior *knowledge.BehaviorStore, ha HomeAutomationDigester, haTTL time.Duration, reg, voiceReg *tools.Registry) *Assembler {
	if haTTL <= 0 {
		haTTL = DefaultHADigestTTL
	}
	return &Assembler{
		BaseInstructions:     base,
		VoiceSubInstructions: voiceSub,
		Knowledge:            know,
		Behavior:             behavior,
		HADigester:           ha,
		Registry:             reg,
		VoiceRegistry:        voiceReg,
		haTTL:                haTTL,
	}
}

// preamble composes the five-step system text in order.
func (a *Assembler) preamble(isVoice bool) string {
	var b strings.Builder
	b.WriteString(a.BaseInstructions.Read())

	if isVoice && a.VoiceSubInstructions != nil {
		if sub := a.VoiceSubInstructions.Read(); sub != "" {
			b.WriteString("\n\n")
			b.WriteString(sub)
		}
	}

	if know := a.Knowledge.Read(); know != "" {
		b.WriteString("\n\n")
		b.WriteString(know)
	}

	if digest := a.haDigest(); digest != "" {
		b.WriteString("\n\n")
		b.WriteString(digest)
	}

	if rules := a.Behavior.List(); len(rules) > 0 {
		b.WriteString("\n\n[BEHAVIOUR_OVERRIDES]\n")
		for _, r := range rules {
			b.WriteString(r)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// haDigest returns the cached home-automation digest, refreshing it if
// older than the configured TTL. A digester error leaves the previous
// cached text in place (stale is preferable to dropping the section
// entirely).
func (a *Assembler) haDigest() string {
	if a.HADigester == nil {
		return ""
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.haFetched && time.Since(a.haCachedAt) < a.haTTL {
		return a.haCache
	}
	digest, err := a.HADigester.Digest()
	if err != nil {
		return a.haCache
	}
	a.haCache = digest
	a.haCachedAt = time.Now()
	a.haFetched = true
	return a.haCache
}

// registryFor returns the tool registry to advertise for this turn: voice
// turns get VoiceRegistry (which carries close_voice_channel) when one is
// configured, chat turns always get Registry.
func (a *Assembler) registryFor(isVoice bool) *tools.Registry {
	if isVoice && a.VoiceRegistry != nil {
		return a.VoiceRegistry
	}
	return a.Registry
}

// toolsBlock renders the tools section for reg, or "" when it's empty.
func (a *Assembler) toolsBlock(reg *tools.Registry) string {
	if reg == nil || reg.Len() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerOpen)
	b.WriteString("tools")
	b.WriteString(headerClose)
	b.WriteString("When required to answer user queries, use the following tools. You do not have to use them every time.\n\n")
	b.WriteString("Available tools:\n")
	for _, spec := range reg.Specs() {
		fmt.Fprintf(&b, "- %s(%s)\n", spec.Name, spec.ParamSummary)
	}
	b.WriteString("\nReply with EXACTLY one JSON object {\"name\":..., \"parameters\":{...}} on a single line to call a tool. ")
	b.WriteString("After the tool runs, its result arrives as a synthetic turn wrapped in <TOOL_RESULT>...</TOOL_RESULT>. ")
	b.WriteString("Only one tool per message.")
	b.WriteString(turnEnd)
	return b.String()
}

// Render assembles the full prompt blob for one model turn.
func (a *Assembler) Render(sess *session.Session, isVoice bool) string {
	var b strings.Builder

	b.WriteString(headerOpen)
	b.WriteString("system")
	b.WriteString(headerClose)
	b.WriteString(a.preamble(isVoice))
	b.WriteString(turnEnd)

	b.WriteString(a.toolsBlock(a.registryFor(isVoice)))

	for _, turn := range sess.History() {
		role := string(turn.Role)
		content := turn.Content
		if turn.Role == session.RoleTool {
			// The reference chat template has no tool role: tool results
			// are reinjected as synthetic user turns.
			role = "user"
			content = fmt.Sprintf("<TOOL_RESULT>%s</TOOL_RESULT>", content)
		}
		b.WriteString(headerOpen)
		b.WriteString(role)
		b.WriteString(headerClose)
		b.WriteString(content)
		b.WriteString(turnEnd)
	}

	b.WriteString(headerOpen)
	b.WriteString("assistant")
	b.WriteString(headerClose)

	return b.String()
}
