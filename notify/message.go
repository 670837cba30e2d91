// Package notify delivers workflow events recorded in the transactional
// outbox to an external channel.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrPublish wraps every delivery failure reported by a Publisher.
var ErrPublish = errors.New("notify: publish failed")

// Message is one pending outbox row.
type Message struct {
	ID        string
	Topic     string
	Key       string
	Payload   json.RawMessage
	Attempts  int
	CreatedAt time.Time
}

// Publisher hands a message to a downstream channel.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Report summarizes one relay pass.
type Report struct {
	Delivered    int
	Failed       int
	DeadLettered int
	// Deferred counts messages left pending behind an earlier failure on the
	// same key.
	Deferred int
}

func (r Report) Total() int {
	return r.Delivered + r.Failed + r.DeadLettered
}
