package services

import (
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/cv-extractor/internal/events"
)

// Notifier publishes profile generation outcomes for the UI. Delivery is
// fire-and-forget.
type Notifier struct {
	bus EventBus.Bus
}

func NewNotifier(bus EventBus.Bus) *Notifier {
	return &Notifier{bus: bus}
}

func (n *Notifier) NotifyCompleted(jobID, profileID string) {
	n.publish(events.ProfileGenerationResult{Success: true, JobID: jobID, ProfileID: profileID})
}

func (n *Notifier) NotifyFailed(jobID, profileID string, err error) {
	n.publish(events.ProfileGenerationResult{Success: false, Error: err.Error(), JobID: jobID, ProfileID: profileID})
}

func (n *Notifier) publish(result events.ProfileGenerationResult) {
	n.bus.Publish(events.ProfileGenerationChannel, events.Notification{
		Event:   events.ProfileGenerationComplete,
		Payload: result,
	})
}
