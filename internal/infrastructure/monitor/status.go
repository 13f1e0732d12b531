package monitor

import "time"

type Status struct {
	Store      bool      `json:"store"`
	Redis      bool      `json:"redis"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether the dependencies requests rely on are reachable.
func (s Status) Healthy() bool {
	return s.Store && s.Redis
}
