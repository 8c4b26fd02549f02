package ws

import (
	"encoding/json"
	"time"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"
)

type JobChangedEvent struct {
	Type      string     `json:"type"`
	JobID     string     `json:"job_id"`
	Kind      string     `json:"kind"`
	OldPoint  *geo.Point `json:"old_point,omitempty"`
	NewPoint  *geo.Point `json:"new_point,omitempty"`
	Timestamp string     `json:"timestamp"`
}

// NotifyJobChanged sends change to every client whose area covers the job's
// old or new point.
func (h *Hub) NotifyJobChanged(change job.Change) {
	if h == nil {
		return
	}
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}
	b, err := json.Marshal(JobChangedEvent{
		Type:      "job_changed",
		JobID:     change.JobID.String(),
		Kind:      string(change.Kind),
		OldPoint:  change.OldPoint,
		NewPoint:  change.NewPoint,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	h.publish(message{payload: b, points: change.Points()})
}
