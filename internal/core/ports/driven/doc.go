// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CourseStore: Course persistence with atomic change-set application
//   - AuditStore: Read access to the append-only audit trail
//   - JobStore: Scrape job persistence for the status query surface
//   - LoginClient: Obtains upstream sessions via the registrar login flow
//   - CatalogClient: Issues one paginated search request
//   - CatalogScraper: Drives a query's full paginated result set
//   - EventPublisher: Fans domain events out to subscribers
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
