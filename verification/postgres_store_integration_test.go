package verification

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"addressme/migrations"
)

// openIntegrationPool connects to DATABASE_URL, skipping when it is unset, and
// migrates the schema.
func openIntegrationPool(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = migrations.Apply(ctx, pool)
	require.NoError(t, err)
	return ctx, pool
}

func newPostgresService(pool *pgxpool.Pool, prefix string) *Service {
	roles := staticRoles{
		prefix + "res1":      RoleResident,
		prefix + "res2":      RoleResident,
		prefix + "verifierA": RoleVerifier,
		prefix + "verifierB": RoleVerifier,
	}
	return NewService(NewPostgresStore(pool), roles, nil).
		WithIDGenerator(func() string { return prefix + uuid.NewString() })
}

func outboxCount(ctx context.Context, t *testing.T, pool *pgxpool.Pool, requestID string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE payload->>'request_id' = $1`, requestID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestPostgresStore_WorkflowRoundTrip_Integration(t *testing.T) {
	ctx, pool := openIntegrationPool(t)
	p := "it-" + uuid.NewString()[:8] + "-"
	svc := newPostgresService(pool, p)

	req, err := svc.CreateRequest(ctx, p+"res1", nairobi)
	require.NoError(t, err)
	assert.Equal(t, 1, outboxCount(ctx, t, pool, req.ID))

	moved := Coordinates{Latitude: -1.2805, Longitude: 36.8207}
	_, err = svc.CorrectLocation(ctx, req.ID, p+"res1", moved)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, req.ID, EventClaim, p+"verifierA", "")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, req.ID, EventRequestInfo, p+"verifierA", "gate colour?")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, req.ID, EventProvideInfo, p+"res2", "")
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Transition(ctx, req.ID, EventProvideInfo, p+"res1", "green")
	require.NoError(t, err)
	approved, err := svc.Transition(ctx, req.ID, EventApprove, p+"verifierB", "")
	require.NoError(t, err)
	require.NotNil(t, approved.Certificate)

	got, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.Status)
	assert.Equal(t, moved, got.Coordinates)
	require.NotNil(t, got.VerifierID)
	assert.Equal(t, p+"verifierB", *got.VerifierID)
	require.NotNil(t, got.Certificate)
	assert.Equal(t, approved.Certificate.Number, got.Certificate.Number)

	entries := got.History.Entries()
	require.Len(t, entries, 6)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Seq)
	}
	assert.Equal(t, "green", entries[4].Note)
	assert.Equal(t, 6, outboxCount(ctx, t, pool, req.ID))

	_, err = svc.Transition(ctx, req.ID, EventReject, p+"verifierA", "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 6, outboxCount(ctx, t, pool, req.ID))

	queue, total, err := svc.List(ctx, ListFilters{ResidentID: p + "res1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, queue, 1)
	assert.Equal(t, 6, queue[0].History.Len())
}

func TestPostgresStore_HistoryIsAppendOnly_Integration(t *testing.T) {
	ctx, pool := openIntegrationPool(t)
	p := "it-" + uuid.NewString()[:8] + "-"
	svc := newPostgresService(pool, p)

	req, err := svc.CreateRequest(ctx, p+"res1", nairobi)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE request_history SET note = 'rewritten' WHERE request_id = $1`, req.ID)
	require.Error(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM request_history WHERE request_id = $1`, req.ID)
	require.Error(t, err)
}

func TestPostgresStore_ConcurrentDecisions_Integration(t *testing.T) {
	ctx, pool := openIntegrationPool(t)
	p := "it-" + uuid.NewString()[:8] + "-"
	svc := newPostgresService(pool, p)

	for i := 0; i < 10; i++ {
		req, err := svc.CreateRequest(ctx, p+"res1", nairobi)
		require.NoError(t, err)
		_, err = svc.Transition(ctx, req.ID, EventClaim, p+"verifierA", "")
		require.NoError(t, err)

		var (
			g    errgroup.Group
			errs [2]error
		)
		g.Go(func() error {
			_, errs[0] = svc.Transition(ctx, req.ID, EventApprove, p+"verifierA", "")
			return nil
		})
		g.Go(func() error {
			_, errs[1] = svc.Transition(ctx, req.ID, EventReject, p+"verifierB", "")
			return nil
		})
		require.NoError(t, g.Wait())

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, ErrInvalidTransition)
		}
		require.Equal(t, 1, wins)

		got, err := svc.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.History.Len())
	}
}
