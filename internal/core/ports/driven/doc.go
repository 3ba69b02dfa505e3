// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RuleStore: Mapping rule persistence (read-only to the core)
//   - TransferLogStore: Task/rule/file audit log persistence
//   - DecryptLogStore: Decrypt batch outcome persistence
//   - AdhocStore: Adhoc dedup record persistence
//   - RemoteStore: Partner-facing remote file store (SFTP-like)
//   - Decryptor: External decryption tool (key import + decrypt)
//   - PassphraseSource: Passphrase file access for the current key
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - FileTypeStore / UploadStore: Only needed by filetype-matching rules
//   - ProgressPublisher: Live progress fan-out; nil drops events
//   - SchedulerStore: Only needed when the background scheduler runs
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
