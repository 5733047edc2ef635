package leads

import (
	"context"
	"log"
)

// Status is the outcome of one sink attempt.
type Status int

const (
	// StatusStored means the sink durably accepted the lead.
	StatusStored Status = iota
	// StatusNotConfigured means the sink has no credentials and was skipped.
	StatusNotConfigured
	// StatusFailed means the sink was configured but the write failed.
	StatusFailed
)

// Result is the tri-state outcome of a sink attempt.
type Result struct {
	Status Status
	Err    error
}

// Sink is a destination that stores a lead record.
type Sink interface {
	Name() string
	Submit(ctx context.Context, lead *Lead) Result
}

// Chain tries sinks in a fixed priority order, stopping at the first success.
// Which tier stored the lead is logged and returned for internal use but never
// surfaces in the HTTP contract; callers only see "accepted".
type Chain struct {
	sinks []Sink
}

// NewChain builds a chain over the given sinks in priority order.
func NewChain(sinks ...Sink) *Chain {
	return &Chain{sinks: sinks}
}

// Submit runs the lead through the chain. It returns the name of the sink
// that stored the record, or "" when every tier was skipped or failed.
func (c *Chain) Submit(ctx context.Context, lead *Lead) string {
	for _, sink := range c.sinks {
		result := sink.Submit(ctx, lead)
		switch result.Status {
		case StatusStored:
			log.Printf("lead stored via %s for %s", sink.Name(), lead.Email)
			return sink.Name()
		case StatusNotConfigured:
			continue
		case StatusFailed:
			log.Printf("lead sink %s failed for %s: %v", sink.Name(), lead.Email, result.Err)
		}
	}
	log.Printf("no lead sink stored %s; submission logged only", lead.Email)
	return ""
}
