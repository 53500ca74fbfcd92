package status

import (
	"time"

	"github.com/dwsmith1983/gluetrigger/pkg/glue"
)

// Report is the outcome of one Check call.
type Report struct {
	ID        string          `json:"id"`
	CheckedAt time.Time       `json:"checkedAt"`
	Triggers  []TriggerStatus `json:"triggers"`
	NotFound  []string        `json:"notFound,omitempty"`
}

// TriggerStatus is the live view of one trigger.
type TriggerStatus struct {
	Name         string            `json:"name"`
	Type         glue.TriggerType  `json:"type"`
	State        glue.TriggerState `json:"state"`
	Schedule     string            `json:"schedule,omitempty"`
	WorkflowName string            `json:"workflowName,omitempty"`
	Description  string            `json:"description,omitempty"`
	Jobs         []string          `json:"jobs,omitempty"`
	Crawlers     []string          `json:"crawlers,omitempty"`
}

// Active reports whether the trigger fires on its own. ON_DEMAND triggers
// are never active; they rest in CREATED until started.
func (s TriggerStatus) Active() bool {
	return s.State == glue.TriggerActivated
}

// Transitioning reports whether Glue is still moving the trigger between states.
func (s TriggerStatus) Transitioning() bool {
	switch s.State {
	case glue.TriggerCreating, glue.TriggerActivating, glue.TriggerDeactivating, glue.TriggerUpdating, glue.TriggerDeleting:
		return true
	}
	return false
}

// Inactive returns the non ON_DEMAND triggers that are not activated.
func (r *Report) Inactive() []TriggerStatus {
	var out []TriggerStatus
	for _, s := range r.Triggers {
		if s.Type != glue.TriggerOnDemand && !s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// Healthy is true when every requested trigger exists and none that should
// fire on its own is inactive.
func (r *Report) Healthy() bool {
	return len(r.NotFound) == 0 && len(r.Inactive()) == 0
}
