package events

// ProfileGenerationChannel is both the bus topic and the external pub/sub
// channel the UI listens on.
var ProfileGenerationChannel = "profile-generation"

const (
	ProfileGenerationComplete = "profile-generation-complete"
	ProfileGenerationProgress = "profile-generation-progress"
)

type Notification struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type ProfileGenerationResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	JobID     string `json:"jobId"`
	ProfileID string `json:"profileId"`
}

type ProfileGenerationProgressPayload struct {
	JobID    string `json:"jobId"`
	Progress int    `json:"progress"`
}
