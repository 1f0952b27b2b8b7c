// Package services implements the driving port interfaces.
// Services contain the core business logic: the reconciliation engine that
// turns scraped batches into minimal audited storage mutations, the scrape
// job orchestrator, and the background scrape scheduler.
//
// Services are pure Go and depend only on domain types and driven ports.
package services
