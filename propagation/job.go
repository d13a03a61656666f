package propagation

import (
	"encoding/json"
	"time"
)

// Job is the payload handed to background workers. Context identity and
// baggage live in the Metadata block; Body is opaque to this layer.
type Job struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	EnqueuedAt time.Time         `json:"enqueuedAt"`
	Metadata   map[string]string `json:"metadata"`
	Body       json.RawMessage   `json:"body,omitempty"`
}

// Carrier returns the job's metadata block as a carrier, allocating it
// when absent so injection into a fresh job works.
func (j *Job) Carrier() Carrier {
	if j.Metadata == nil {
		j.Metadata = make(map[string]string)
	}
	return MapCarrier(j.Metadata)
}

// EncodeJob serializes a job for the queue.
func EncodeJob(j *Job) ([]byte, error) {
	return json.Marshal(j)
}

// DecodeJob deserializes a job taken off the queue.
func DecodeJob(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}
