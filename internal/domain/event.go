package domain

// EventSource identifies which inbound webhook delivered an event.
type EventSource string

const (
	SourceChat          EventSource = "chat"
	SourceSourceControl EventSource = "source-control"
	SourceIssueTracker  EventSource = "issue-tracker"
	SourceTranscript    EventSource = "transcript"
)

// InboundEvent is a received webhook. It is not modified after receipt.
type InboundEvent struct {
	Source  EventSource
	RawBody []byte
	Headers map[string]string
}

// Header returns a header value, matching the key exactly as stored.
func (e InboundEvent) Header(key string) string {
	if e.Headers == nil {
		return ""
	}
	return e.Headers[key]
}
