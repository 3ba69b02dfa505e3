// Package services contains the core pipeline logic: the decrypt batch
// processor, the rule matcher, the conflict resolver, the sync
// orchestrator and the background scheduler.
//
// Services depend only on domain types and ports; all infrastructure is
// injected.
package services
