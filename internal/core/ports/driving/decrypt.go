package driving

import (
	"context"
	"time"
)

// DecryptProcessor runs the dated decrypt batch that feeds the sync
// stage.
type DecryptProcessor interface {
	// ProcessBatch discovers, decrypts or copies all source files for
	// the date. Per-file failures are collected in the result; only
	// unrecoverable setup failures (e.g. missing source tree) return an
	// error.
	ProcessBatch(ctx context.Context, date time.Time) (*BatchResult, error)
}

// BatchResult is the outcome of one decrypt batch.
type BatchResult struct {
	// Date is the batch's target date.
	Date time.Time

	// Total is the number of files matched for the date.
	Total int

	// Processed counts files attempted (decrypted + copied + failed).
	Processed int

	// Decrypted counts files run through the decryption tool.
	Decrypted int

	// Copied counts non-encrypted files copied verbatim.
	Copied int

	// Failed counts per-file failures.
	Failed int

	// Errors holds the per-file failure messages.
	Errors []string
}

// Success reports whether every matched file processed cleanly.
func (r *BatchResult) Success() bool {
	return r.Failed == 0
}
