package events

import (
	"encoding/json"
	"time"
)

// RunCompleted is published after every strategy invocation.
type RunCompleted struct {
	RunID      string    `json:"run_id"`
	Domain     string    `json:"domain"`
	Status     string    `json:"status"`
	RowsIn     int       `json:"rows_in"`
	RowsOut    int       `json:"rows_out"`
	Notice     string    `json:"notice,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *RunCompleted) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunCompletedFromJSON decodes a message body.
func RunCompletedFromJSON(data []byte) (*RunCompleted, error) {
	var msg RunCompleted
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
