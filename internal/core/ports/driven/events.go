package driven

import "github.com/coursewatch/coursewatch/internal/core/domain"

// EventPublisher fans domain events out to subscribers. Publish must not
// block the producer; slow consumers are the bus's problem, not the
// publisher's.
type EventPublisher interface {
	Publish(event domain.Event)
}
