// Package empower provides a host runtime for lifecycle-managed
// services: long-running units of logic that declare their parameters,
// run an optional periodic loop, and notify interested parties through
// callbacks.
//
// # Architecture
//
// Services live inside containers. The default environment hosts
// system-wide workers; each tenant project hosts its own apps. Two
// managers own the containers and a REST surface drives everything:
//
//	┌─────────────────────────────────────┐
//	│          REST API (api)             │  catalog, workers,
//	│                                     │  projects, apps, callbacks
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌─────────────────────────────────────┐
//	│   EnvManager / ProjectsManager      │  container lifecycle,
//	│           (manager)                 │  owner accounts
//	└─────────────────────────────────────┘
//	           ↓ own
//	┌─────────────────────────────────────┐
//	│     Containers (container)          │  catalog instantiation,
//	│    default environment, projects    │  stop-before-delete
//	└─────────────────────────────────────┘
//	           ↓ host
//	┌─────────────────────────────────────┐
//	│       Services (service)            │  CREATED→RUNNING→STOPPED,
//	│  loop scheduling, callback registry │  IDLE when every == -1
//	└─────────────────────────────────────┘
//
// # Lifecycle
//
// A service is CREATED, then started. With a positive loop period it is
// RUNNING and its tick fires every `every` milliseconds; with the period
// disabled (-1) it is IDLE. Stopping a service durably saves its record
// before the timer is cancelled, so a restart resumes from the last
// persisted state. Removing a service or tearing down a container always
// stops first: no timer of a deleted service can ever fire.
//
// # Packages
//
// Core:
//   - service: Service interface, base implementation, callback registry
//   - container: environment/project containers and the type catalog
//   - manager: EnvManager, ProjectsManager, accounts collaborator
//   - manifest: parameter declarations, validation, JSON-schema export
//   - scheduler: injected periodic scheduler with a fake for tests
//
// Infrastructure:
//   - api: REST surface on net/http
//   - storage: durable record store; memstore (in-memory) and kvstore
//     (NATS JetStream KV) backends
//   - natsclient: NATS connection management
//   - metric: Prometheus metrics
//   - errors: classified error handling
//   - config: bootstrap configuration
//   - netid: network identity value types (EtherAddress, SSID, PLMNID,
//     IMSI) usable as typed service parameters
//
// Workers:
//   - workers/heartbeat: reference periodic worker
//
// # Binary
//
// Build and run the runtime:
//
//	go build -o bin/empower ./cmd/empower
//	./bin/empower -config empower.json
//
// The binary registers the built-in worker types, restores the default
// environment and every project from durable records, and serves the
// REST API.
package empower
