package models

import "time"

type ServiceState string

const (
	StateOnline           ServiceState = "online"
	StateModelUnavailable ServiceState = "model_unavailable"
	StateOffline          ServiceState = "offline"
)

// HealthStatus is the dashboard's view of the model service.
type HealthStatus struct {
	State       ServiceState `json:"state"`
	ModelLoaded bool         `json:"model_loaded"`
	Version     string       `json:"version,omitempty"`
	Detail      string       `json:"detail,omitempty"`
	CheckedAt   time.Time    `json:"checked_at"`
}

func OfflineStatus(detail string) *HealthStatus {
	return &HealthStatus{
		State:     StateOffline,
		Detail:    detail,
		CheckedAt: time.Now(),
	}
}

func (h *HealthStatus) IsOnline() bool {
	return h != nil && h.State == StateOnline
}

// Label is the badge text shown next to the model status.
func (h *HealthStatus) Label() string {
	if h == nil {
		return "API Offline"
	}
	switch h.State {
	case StateOnline:
		return "Model Active"
	case StateModelUnavailable:
		return "Model Unavailable"
	default:
		return "API Offline"
	}
}
