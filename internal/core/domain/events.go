package domain

// Event is a domain event published to the event bus. The union is closed:
// only ScrapeJobEvent and AuditLogEvent implement it, so consumers can switch
// exhaustively and adding a kind is a compile-time-visible change.
type Event interface {
	// isEvent seals the union to this package.
	isEvent()
}

// ScrapeJobEvent announces a job state transition. Completed events carry the
// final upsert counts inside the job snapshot.
type ScrapeJobEvent struct {
	Job ScrapeJob
}

func (ScrapeJobEvent) isEvent() {}

// AuditLogEvent announces one committed audit entry for live subscribers.
// The durable copy is written inside the reconciliation transaction; this
// event only feeds real-time consumers.
type AuditLogEvent struct {
	Entry AuditLogEntry
}

func (AuditLogEvent) isEvent() {}
