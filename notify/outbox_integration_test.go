package notify

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addressme/migrations"
)

// TestPostgresOutbox_CommitOrder_Integration inserts a request's messages so
// that the later one carries the earlier timestamp, the way a transaction that
// waited on the row lock does, and checks delivery follows insertion.
func TestPostgresOutbox_CommitOrder_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	_, err = migrations.Apply(ctx, pool)
	require.NoError(t, err)

	key := "it-" + uuid.NewString()
	insert := func(event string, createdAt time.Time) {
		_, err := pool.Exec(ctx,
			`INSERT INTO outbox (topic, message_key, payload, created_at) VALUES ('verification.status_changed', $1, jsonb_build_object('request_id', $1::text, 'event', $2::text), $3)`,
			key, event, createdAt)
		require.NoError(t, err)
	}
	now := time.Now()
	insert("claim", now)
	insert("approve", now.Add(-time.Minute))
	insert("requestInfo", now.Add(-2*time.Minute))

	outbox := NewPostgresOutbox(pool, 5)
	var delivered []string
	failOnce := true
	handle := func(_ context.Context, msg Message) error {
		if msg.Key != key {
			return nil
		}
		if failOnce {
			failOnce = false
			return errors.New("broker down")
		}
		delivered = append(delivered, string(msg.Payload))
		return nil
	}

	for i := 0; i < 20 && len(delivered) < 3; i++ {
		_, err := outbox.Process(ctx, 1000, handle)
		require.NoError(t, err)
	}

	require.Len(t, delivered, 3)
	assert.Contains(t, delivered[0], `"claim"`)
	assert.Contains(t, delivered[1], `"approve"`)
	assert.Contains(t, delivered[2], `"requestInfo"`)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE message_key = $1 AND status = 'pending'`, key).Scan(&pending))
	assert.Zero(t, pending)
}
