// Package domain contains the core business types for dropsync: mapping
// rules and their period gates, the decryption key rotation schedule,
// discovered-file descriptors, date variable expansion, and the
// task/rule/file audit log hierarchy.
//
// The domain package has no dependencies on adapters or services and
// holds only pure logic.
package domain
