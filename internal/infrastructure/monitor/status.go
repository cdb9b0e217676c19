package monitor

import "time"

// Status is the last observed state of the task store. Error is kept for
// logs and never serialized.
type Status struct {
	Storage   bool      `json:"storage"`
	Driver    string    `json:"driver"`
	Latency   string    `json:"latency,omitempty"`
	Error     string    `json:"-"`
	LastCheck time.Time `json:"lastCheck"`
}
