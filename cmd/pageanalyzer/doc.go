// Package main hosts the page analyzer entrypoint.
//
// Architecture overview:
//   - HTTP surface: internal/web.Server renders the add form, the site list,
//     and the per-site detail page with its check history. POST handlers
//     redirect after writing, with flash messages carried in a signed cookie.
//   - Core flows: internal/service orchestrates normalization
//     (internal/urls), deduplicated registration, and on-demand page checks,
//     wiring the repository and the fetcher together.
//   - Fetch pipeline: internal/checker performs a single Colly GET bounded by
//     the configured timeout and extracts the first h1, the title, and the
//     meta description with goquery. A received response is always recorded
//     with its status code; transport failures write nothing.
//   - Persistence: internal/storage/postgres implements the repository over a
//     pgx connection pool. Each call is one unit of work; the unique
//     constraint on urls.name is the authoritative duplicate guard. The
//     embedded schema is applied idempotently at startup.
//   - Configuration & plumbing: Viper populates config from env/files
//     (ANALYZER_ prefix); zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler.
//
// Operational notes:
//   - The service is stateless across requests; concurrent checks of the
//     same site simply produce independent history rows.
//   - Shutdown is coordinated via context cancellation from SIGINT/SIGTERM
//     with a bounded drain of in-flight requests.
//
// Run locally: go run ./cmd/pageanalyzer -config config.yaml, or rely on
// env overrides such as ANALYZER_DATABASE_DSN and ANALYZER_SECRET_KEY.
package main
