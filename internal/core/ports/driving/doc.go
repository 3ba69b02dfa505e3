// Package driving defines the interfaces through which the outside world
// drives the core: the sync orchestrator, the decrypt batch processor and
// the background scheduler.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// The CLI adapter and the scheduler call these; core services implement
// them.
package driving
