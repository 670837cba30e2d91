package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoDatabase means no DSN was supplied, Docker is unavailable and no local
// PostgreSQL answered.
var ErrNoDatabase = errors.New("infra: no database available")

// Harness owns the database used by a stress run: where it came from, the
// migrated pool and the teardown of the per-run schema.
type Harness struct {
	container *PGContainer
	pool      *pgxpool.Pool
	teardown  func(context.Context) error
}

// NewHarness resolves a database in order: overrideDSN, STRESS_TEST_PG_DSN, a
// Docker container, a local PostgreSQL. Shared databases get an isolated
// schema that Close drops.
func NewHarness(ctx context.Context, overrideDSN string) (*Harness, error) {
	var (
		pgC    *PGContainer
		dsn    string
		shared bool
		err    error
	)
	switch {
	case overrideDSN != "":
		dsn, shared = overrideDSN, true
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn, shared = os.Getenv("STRESS_TEST_PG_DSN"), true
	case dockerAvailable(ctx):
		pgC, dsn, err = StartPostgres(ctx)
		if err != nil {
			return nil, fmt.Errorf("start postgres: %w", err)
		}
	default:
		dsn, err = RecreateLocalDatabase(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDatabase, err)
		}
	}

	pool, teardown, err := OpenMigrated(ctx, dsn, shared)
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Harness{container: pgC, pool: pool, teardown: teardown}, nil
}

// Pool exposes the migrated pgx pool.
func (h *Harness) Pool() *pgxpool.Pool {
	return h.pool
}

// Reset empties every table between epochs. TRUNCATE bypasses the row-level
// append-only trigger on request_history.
func (h *Harness) Reset(ctx context.Context) error {
	const q = `TRUNCATE TABLE appointments, interview_slots, outbox, certificates, request_history, address_requests, users`
	if _, err := h.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// Close drops the per-run schema and tears down the container.
func (h *Harness) Close(ctx context.Context) error {
	var errs []error
	if h.pool != nil {
		h.pool.Close()
	}
	if h.teardown != nil {
		errs = append(errs, h.teardown(ctx))
	}
	errs = append(errs, h.container.Terminate(ctx))
	return errors.Join(errs...)
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}
