// Package internal holds the meetups server internals.
//
// The tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses and routing
// - domain: event lifecycle, admission, comment moderation and the catalogue
// - storage: the in-memory and PostgreSQL repositories
// - jobs, notify, stats, email: background delivery to outside systems
// - auth, audit, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
