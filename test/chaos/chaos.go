package chaos

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TerminateRandomBackend kills one random backend of the current database
// about every fifth tick. Workflow transactions caught mid-flight must roll
// back without leaving partial history.
func TerminateRandomBackend(ctx context.Context, pool *pgxpool.Pool, every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if rand.Intn(5) == 0 {
				_, _ = pool.Exec(ctx, `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = current_database() AND pid <> pg_backend_pid() ORDER BY random() LIMIT 1`)
			}
		}
	}
}

// HoldRowLocks grabs a random request row lock and sits on it, forcing
// workflow updates on that request to queue behind it.
func HoldRowLocks(ctx context.Context, pool *pgxpool.Pool, hold time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			time.Sleep(hold)
			continue
		}
		var id string
		_ = tx.QueryRow(ctx, `SELECT id FROM address_requests ORDER BY random() LIMIT 1 FOR UPDATE`).Scan(&id)
		time.Sleep(hold)
		_ = tx.Rollback(ctx)
	}
}
