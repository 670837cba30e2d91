package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// OutboxTopicCreated is published when a resident submits a request.
	OutboxTopicCreated = "verification.created"
	// OutboxTopicStatusChanged is published for every workflow transition.
	OutboxTopicStatusChanged = "verification.status_changed"
	// OutboxTopicLocationCorrected is published when a resident moves the pin.
	OutboxTopicLocationCorrected = "verification.location_corrected"
)

// PostgresStore persists requests in PostgreSQL. Update holds a row lock
// (SELECT ... FOR UPDATE) for the whole read-modify-write, and writes the
// history rows, certificate and outbox message in the same transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (r *PostgresStore) Create(ctx context.Context, req AddressRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("verification: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSQL = `
INSERT INTO address_requests (id, resident_id, latitude, longitude, status, verifier_id, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::request_status, $6, $7, $8, $9)
`
	if _, err := tx.Exec(ctx, insertSQL,
		req.ID,
		req.ResidentID,
		req.Coordinates.Latitude,
		req.Coordinates.Longitude,
		string(req.Status),
		req.VerifierID,
		req.Version,
		req.CreatedAt,
		req.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("verification: request %s already exists", req.ID)
		}
		return fmt.Errorf("verification: insert request: %w", err)
	}

	if err := insertHistory(ctx, tx, req.ID, req.History.Entries()); err != nil {
		return err
	}

	payload := map[string]any{
		"request_id":  req.ID,
		"resident_id": req.ResidentID,
		"status":      req.Status,
		"latitude":    req.Coordinates.Latitude,
		"longitude":   req.Coordinates.Longitude,
	}
	if err := enqueueOutbox(ctx, tx, OutboxTopicCreated, req.ID, payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("verification: commit create: %w", err)
	}
	return nil
}

func (r *PostgresStore) Get(ctx context.Context, id string) (AddressRequest, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return AddressRequest{}, fmt.Errorf("verification: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rec, err := loadRequest(ctx, tx, id, false)
	if err != nil {
		return AddressRequest{}, err
	}
	return rec, nil
}

func (r *PostgresStore) List(ctx context.Context, filters ListFilters) ([]AddressRequest, int, error) {
	filters = filters.normalized()

	var (
		conds []string
		args  []any
	)
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		conds = append(conds, fmt.Sprintf("r.status::text = $%d", len(args)))
	}
	if filters.ResidentID != "" {
		args = append(args, filters.ResidentID)
		conds = append(conds, fmt.Sprintf("r.resident_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM address_requests r `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("verification: count: %w", err)
	}

	pageArgs := append(args, filters.PageSize, filters.offset())
	query := requestColumns + where + fmt.Sprintf(`
ORDER BY r.created_at DESC, r.id DESC
LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("verification: list: %w", err)
	}
	defer rows.Close()

	records := []AddressRequest{}
	ids := []string{}
	for rows.Next() {
		rec, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("verification: scan request: %w", err)
		}
		records = append(records, rec)
		ids = append(ids, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("verification: iterate requests: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return records, total, nil
	}

	histories, err := loadHistories(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range records {
		records[i].History = NewHistory(histories[records[i].ID]...)
	}
	return records, total, nil
}

func (r *PostgresStore) Update(ctx context.Context, id string, fn func(*AddressRequest) error) (AddressRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return AddressRequest{}, fmt.Errorf("verification: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := loadRequest(ctx, tx, id, true)
	if err != nil {
		return AddressRequest{}, err
	}

	working := current.clone()
	if err := fn(&working); err != nil {
		return AddressRequest{}, err
	}
	working.Version = current.Version + 1

	const updateSQL = `
UPDATE address_requests
SET latitude = $1,
    longitude = $2,
    status = $3::request_status,
    verifier_id = $4,
    version = $5,
    updated_at = $6
WHERE id = $7 AND version = $8
`
	tag, err := tx.Exec(ctx, updateSQL,
		working.Coordinates.Latitude,
		working.Coordinates.Longitude,
		string(working.Status),
		working.VerifierID,
		working.Version,
		working.UpdatedAt,
		id,
		current.Version,
	)
	if err != nil {
		return AddressRequest{}, fmt.Errorf("verification: update request: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return AddressRequest{}, fmt.Errorf("verification: request %s changed concurrently", id)
	}

	appended := working.History.Since(current.History.Len())
	if err := insertHistory(ctx, tx, id, appended); err != nil {
		return AddressRequest{}, err
	}

	if working.Certificate != nil && current.Certificate == nil {
		const certSQL = `
INSERT INTO certificates (request_id, number, issued_at, expires_at)
VALUES ($1, $2, $3, $4)
`
		if _, err := tx.Exec(ctx, certSQL, id, working.Certificate.Number, working.Certificate.IssuedAt, working.Certificate.ExpiresAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "certificates_number_key" {
				return AddressRequest{}, ErrCertificateNumberTaken
			}
			return AddressRequest{}, fmt.Errorf("verification: insert certificate: %w", err)
		}
	}

	previous := current.Status
	for _, entry := range appended {
		topic, payload := changeMessage(working, previous, entry)
		if err := enqueueOutbox(ctx, tx, topic, id, payload); err != nil {
			return AddressRequest{}, err
		}
		previous = entry.Status
	}

	if err := tx.Commit(ctx); err != nil {
		return AddressRequest{}, fmt.Errorf("verification: commit update: %w", err)
	}
	return working, nil
}

func changeMessage(req AddressRequest, previous Status, entry HistoryEntry) (string, map[string]any) {
	payload := map[string]any{
		"request_id":      req.ID,
		"resident_id":     req.ResidentID,
		"event":           entry.Event,
		"previous_status": previous,
		"status":          entry.Status,
		"actor_id":        entry.ActorID,
		"seq":             entry.Seq,
		"recorded_at":     entry.RecordedAt.UTC(),
	}
	if entry.Note != "" {
		payload["note"] = entry.Note
	}
	if entry.Event == EventCorrectLocation {
		payload["latitude"] = req.Coordinates.Latitude
		payload["longitude"] = req.Coordinates.Longitude
		return OutboxTopicLocationCorrected, payload
	}
	if entry.Status == StatusVerified && req.Certificate != nil {
		payload["certificate_number"] = req.Certificate.Number
	}
	return OutboxTopicStatusChanged, payload
}

const requestColumns = `
SELECT r.id, r.resident_id, r.latitude, r.longitude, r.status::text, r.verifier_id,
       r.version, r.created_at, r.updated_at, c.number, c.issued_at, c.expires_at
FROM address_requests r
LEFT JOIN certificates c ON c.request_id = r.id
`

func loadRequest(ctx context.Context, tx pgx.Tx, id string, forUpdate bool) (AddressRequest, error) {
	query := requestColumns + `WHERE r.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF r`
	}

	rec, err := scanRequest(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AddressRequest{}, ErrNotFound
		}
		return AddressRequest{}, fmt.Errorf("verification: load request: %w", err)
	}

	histories, err := loadHistories(ctx, tx, []string{id})
	if err != nil {
		return AddressRequest{}, err
	}
	rec.History = NewHistory(histories[id]...)
	return rec, nil
}

func scanRequest(row pgx.Row) (AddressRequest, error) {
	var (
		rec        AddressRequest
		status     string
		certNumber *string
		issuedAt   *time.Time
		expiresAt  *time.Time
	)
	if err := row.Scan(
		&rec.ID,
		&rec.ResidentID,
		&rec.Coordinates.Latitude,
		&rec.Coordinates.Longitude,
		&status,
		&rec.VerifierID,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&certNumber,
		&issuedAt,
		&expiresAt,
	); err != nil {
		return AddressRequest{}, err
	}
	rec.Status = Status(status)
	if certNumber != nil && issuedAt != nil && expiresAt != nil {
		rec.Certificate = &Certificate{Number: *certNumber, IssuedAt: *issuedAt, ExpiresAt: *expiresAt}
	}
	return rec, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadHistories(ctx context.Context, q querier, ids []string) (map[string][]HistoryEntry, error) {
	const query = `
SELECT request_id, seq, status::text, event, actor_id, note, recorded_at
FROM request_history
WHERE request_id = ANY($1)
ORDER BY request_id, seq
`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("verification: load history: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]HistoryEntry, len(ids))
	for rows.Next() {
		var (
			requestID string
			entry     HistoryEntry
			status    string
			event     string
		)
		if err := rows.Scan(&requestID, &entry.Seq, &status, &event, &entry.ActorID, &entry.Note, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("verification: scan history: %w", err)
		}
		entry.Status = Status(status)
		entry.Event = Event(event)
		out[requestID] = append(out[requestID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("verification: iterate history: %w", err)
	}
	return out, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, requestID string, entries []HistoryEntry) error {
	const q = `
INSERT INTO request_history (request_id, seq, status, event, actor_id, note, recorded_at)
VALUES ($1, $2, $3::request_status, $4, $5, $6, $7)
`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, q, requestID, e.Seq, string(e.Status), string(e.Event), e.ActorID, e.Note, e.RecordedAt); err != nil {
			return fmt.Errorf("verification: insert history: %w", err)
		}
	}
	return nil
}

// enqueueOutbox runs while the request row is locked, so the seq it draws
// orders one request's messages by commit.
func enqueueOutbox(ctx context.Context, tx pgx.Tx, topic, key string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("verification: marshal outbox payload: %w", err)
	}
	const q = `INSERT INTO outbox (topic, message_key, payload) VALUES ($1, $2, $3::jsonb)`
	if _, err := tx.Exec(ctx, q, topic, key, body); err != nil {
		return fmt.Errorf("verification: enqueue outbox: %w", err)
	}
	return nil
}
