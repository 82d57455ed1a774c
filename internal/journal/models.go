package journal

import (
	"time"

	"vapord/internal/request"
)

// Outcome is the structured record persisted for every request that reaches
// a terminal state. It is the only durable request history the service keeps.
type Outcome struct {
	ID             int64
	RequestID      string
	Username       string
	QueryText      string
	Status         request.Status
	Reason         string
	ElapsedSeconds float64
	CreatedAt      time.Time
}

// Succeeded reports whether the outcome reached the completed status.
func (o Outcome) Succeeded() bool {
	return o.Status == request.StatusCompleted
}
