package tools

import (
	"fmt"

	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// HomeAutomationClient toggles switches and activates scenes against a
// Home Assistant-style backend. The default implementation
// (internal/providers/homeassistant) is a thin REST client over
// /api/services/....
type HomeAutomationClient interface {
	SetSwitch(entityID string, on bool) error
	ActivateScene(entityID string) error
}

// NewHomeAutomationActionSpec returns the home_automation_action tool, which
// dispatches to either SetSwitch or ActivateScene depending on action_type.
func NewHomeAutomationActionSpec(client HomeAutomationClient) Spec {
	return Spec{
		Name:         "home_automation_action",
		ParamSummary: "action_type (set_switch|activate_scene), entity_id, state? (on|off, required for set_switch)",
		Handler: func(p Params, sess *session.Session) (Result, error) {
			actionType := p.str("action_type", "")
			entityID := p.str("entity_id", "")

			switch actionType {
			case "set_switch":
				state := p.str("state", "")
				enqueue(sess, fmt.Sprintf("%s %s", entityID, state))
				if err := client.SetSwitch(entityID, state == "on"); err != nil {
					return Result{"response": haErrorText(actionType, entityID, err)}, nil
				}
				return Result{"response": fmt.Sprintf("Successfully switched %s %s", entityID, state)}, nil

			case "activate_scene":
				enqueue(sess, fmt.Sprintf("Activating Scene '%s'", entityID))
				if err := client.ActivateScene(entityID); err != nil {
					return Result{"response": haErrorText(actionType, entityID, err)}, nil
				}
				return Result{"response": fmt.Sprintf("Successfully activated scene scene.%s", entityID)}, nil

			default:
				return Result{"response": `Error: Invalid action type specified. Use "set_switch" or "activate_scene" with this tool.`}, nil
			}
		},
	}
}

func haErrorText(actionType, entityID string, err error) string {
	return fmt.Sprintf("Error performing %s on %s: %v. Consider the names of the entities you are trying to control.", actionType, entityID, err)
}
