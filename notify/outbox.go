package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultMaxAttempts is how many failed deliveries a message survives before
// it is dead-lettered.
const DefaultMaxAttempts = 5

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Outbox hands pending messages to handle and records each result.
type Outbox interface {
	Process(ctx context.Context, limit int, handle func(context.Context, Message) error) (Report, error)
}

// PostgresOutbox drains the outbox table. Rows are claimed with
// FOR UPDATE SKIP LOCKED so several relays never deliver the same row twice.
// Messages sharing a key are delivered in seq order: only the oldest pending
// message of a key can be claimed, so a failed message holds back the rest of
// its key until it is delivered or dead-lettered.
type PostgresOutbox struct {
	pool        TxBeginner
	maxAttempts int
}

func NewPostgresOutbox(pool TxBeginner, maxAttempts int) *PostgresOutbox {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &PostgresOutbox{pool: pool, maxAttempts: maxAttempts}
}

func (o *PostgresOutbox) Process(ctx context.Context, limit int, handle func(context.Context, Message) error) (Report, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("notify: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	msgs, err := claimPending(ctx, tx, limit)
	if err != nil {
		return Report{}, err
	}

	var report Report
	blocked := make(map[string]bool)
	for _, msg := range msgs {
		if msg.Key != "" && blocked[msg.Key] {
			report.Deferred++
			continue
		}
		if herr := handle(ctx, msg); herr != nil {
			dead := msg.Attempts+1 >= o.maxAttempts
			if !dead {
				blocked[msg.Key] = true
			}
			if err := markFailed(ctx, tx, msg.ID, herr, dead); err != nil {
				return Report{}, err
			}
			if dead {
				report.DeadLettered++
			} else {
				report.Failed++
			}
			continue
		}
		if err := markProcessed(ctx, tx, msg.ID); err != nil {
			return Report{}, err
		}
		report.Delivered++
	}

	if err := tx.Commit(ctx); err != nil {
		return Report{}, fmt.Errorf("notify: commit: %w", err)
	}
	return report, nil
}

func claimPending(ctx context.Context, tx pgx.Tx, limit int) ([]Message, error) {
	const q = `
SELECT o.id::text, o.topic, o.message_key, o.payload, o.attempts, o.created_at
FROM outbox o
WHERE o.status = 'pending'
  AND (o.message_key = '' OR NOT EXISTS (
      SELECT 1 FROM outbox e
      WHERE e.status = 'pending' AND e.message_key = o.message_key AND e.seq < o.seq))
ORDER BY o.seq
LIMIT $1
FOR UPDATE OF o SKIP LOCKED
`
	rows, err := tx.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: claim pending: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			msg     Message
			payload []byte
		)
		if err := rows.Scan(&msg.ID, &msg.Topic, &msg.Key, &payload, &msg.Attempts, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan outbox: %w", err)
		}
		msg.Payload = payload
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: iterate outbox: %w", err)
	}
	return msgs, nil
}

func markProcessed(ctx context.Context, tx pgx.Tx, id string) error {
	const q = `
UPDATE outbox
SET status = 'processed', attempts = attempts + 1, processed_at = now(), last_error = NULL
WHERE id = $1::uuid
`
	if _, err := tx.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("notify: mark processed: %w", err)
	}
	return nil
}

func markFailed(ctx context.Context, tx pgx.Tx, id string, cause error, dead bool) error {
	status := "pending"
	if dead {
		status = "dead"
	}
	const q = `
UPDATE outbox
SET status = $2, attempts = attempts + 1, last_error = $3
WHERE id = $1::uuid
`
	if _, err := tx.Exec(ctx, q, id, status, cause.Error()); err != nil {
		return fmt.Errorf("notify: mark failed: %w", err)
	}
	return nil
}
