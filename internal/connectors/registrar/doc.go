// Package registrar talks to the university registrar's self-service API:
// the session login flow, rate-limited paginated catalog searches, and the
// scraper that assembles a query's complete record batch.
//
// The session manager owns the upstream credential and serialises refreshes;
// the rate limiter throttles every outbound call and tightens its budget when
// the upstream signals overload; the client composes both per request; the
// scraper drives sequential pagination with bounded per-page retries.
package registrar
