package tools

import (
	"github.com/aurelio-voice/aurelio-server/internal/knowledge"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// NewUpdateBehaviourSpec returns the update_behaviour tool.
func NewUpdateBehaviourSpec(store *knowledge.BehaviorStore) Spec {
	return Spec{
		Name:         "update_behaviour",
		ParamSummary: "rule",
		Handler: func(p Params, _ *session.Session) (Result, error) {
			rule := p.str("rule", "")
			if rule == "" {
				return Result{"text": "No rule provided."}, nil
			}
			if err := store.Add(rule); err != nil {
				return nil, err
			}
			return Result{"text": "Rule added"}, nil
		},
	}
}

// NewRemoveBehaviourSpec returns the remove_behaviour tool.
func NewRemoveBehaviourSpec(store *knowledge.BehaviorStore) Spec {
	return Spec{
		Name:         "remove_behaviour",
		ParamSummary: "rule",
		Handler: func(p Params, _ *session.Session) (Result, error) {
			rule := p.str("rule", "")
			if err := store.Remove(rule); err != nil {
				return nil, err
			}
			return Result{"text": "Rule removed"}, nil
		},
	}
}

// NewListBehaviourSpec returns the list_behaviour tool.
func NewListBehaviourSpec(store *knowledge.BehaviorStore) Spec {
	return Spec{
		Name:         "list_behaviour",
		ParamSummary: "",
		Handler: func(_ Params, _ *session.Session) (Result, error) {
			return Result{"rules": store.List()}, nil
		},
	}
}

// NewCloseVoiceChannelSpec returns the close_voice_channel tool: it latches
// the session's CloseVoice event.
func NewCloseVoiceChannelSpec() Spec {
	return Spec{
		Name:         "close_voice_channel",
		ParamSummary: "",
		Handler: func(_ Params, sess *session.Session) (Result, error) {
			sess.CloseVoice.Set()
			return Result{"text": "Closing voice channel"}, nil
		},
	}
}
