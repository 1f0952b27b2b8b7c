// Package domain defines the core business entities for coursewatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CourseRecord: A catalog entry identified by its natural key (term + CRN)
//   - SearchQuery / SearchResult: One catalog search and a decoded result page
//   - AuditLogEntry / ChangeSet: Storage mutations paired with their audit trail
//   - ScrapeJob: One scraping run and its lifecycle state machine
//   - Event: The closed union of domain events published to the bus
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
