package driven

// ProgressEventType distinguishes per-file updates from batch completion.
type ProgressEventType string

const (
	ProgressFile     ProgressEventType = "file"
	ProgressComplete ProgressEventType = "complete"
)

// ProgressEvent is a structured live-progress update emitted by the
// decrypt batch. Delivery is at-most-once with no backpressure: a slow or
// disconnected listener simply misses events.
type ProgressEvent struct {
	Type        ProgressEventType
	Total       int
	Processed   int
	Decrypted   int
	Copied      int
	Failed      int
	CurrentFile string
}

// ProgressPublisher fans progress events out to zero or more listeners.
// Publish never blocks and never fails the run.
type ProgressPublisher interface {
	Publish(event ProgressEvent)
}
