package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Oracle is a query that returns no rows while the invariant it names holds.
type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "history_seq_contiguous",
			SQL: `SELECT request_id, MIN(seq), MAX(seq), COUNT(*) FROM request_history
                  GROUP BY request_id
                  HAVING MIN(seq) <> 1 OR MAX(seq) <> COUNT(*)`,
		},
		{
			Name: "status_matches_last_history",
			SQL: `SELECT r.id, r.status, h.status FROM address_requests r
                  JOIN LATERAL (
                      SELECT status FROM request_history
                      WHERE request_id = r.id ORDER BY seq DESC LIMIT 1) h ON true
                  WHERE h.status <> r.status`,
		},
		{
			Name: "verifier_iff_reviewed",
			SQL: `SELECT id, status, verifier_id FROM address_requests
                  WHERE (status = 'pending') <> (verifier_id IS NULL)`,
		},
		{
			Name: "single_terminal_entry",
			SQL: `SELECT request_id, COUNT(*) FROM request_history
                  WHERE status IN ('verified','rejected')
                  GROUP BY request_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "certificate_iff_verified",
			SQL: `SELECT r.id, r.status, c.number FROM address_requests r
                  LEFT JOIN certificates c ON c.request_id = r.id
                  WHERE (r.status = 'verified') <> (c.request_id IS NOT NULL)`,
		},
		{
			Name: "history_edges_legal",
			SQL: `WITH steps AS (
                      SELECT request_id, seq, event, status,
                             LAG(status) OVER (PARTITION BY request_id ORDER BY seq) AS prev
                      FROM request_history)
                  SELECT * FROM steps
                  WHERE NOT (
                      (prev IS NULL AND event = 'submit' AND status = 'pending') OR
                      (prev = 'pending' AND event = 'correctLocation' AND status = 'pending') OR
                      (prev = 'pending' AND event = 'claim' AND status = 'under_review') OR
                      (prev = 'under_review' AND event = 'approve' AND status = 'verified') OR
                      (prev = 'under_review' AND event = 'reject' AND status = 'rejected') OR
                      (prev = 'under_review' AND event = 'requestInfo' AND status = 'needs_info') OR
                      (prev = 'needs_info' AND event = 'provideInfo' AND status = 'under_review'))`,
		},
		{
			Name: "verifier_events_by_approved_verifiers",
			SQL: `SELECT h.request_id, h.seq, h.actor_id FROM request_history h
                  LEFT JOIN users u ON u.id = h.actor_id
                  WHERE h.event IN ('claim','approve','reject','requestInfo')
                    AND (u.id IS NULL OR u.role <> 'verifier' OR NOT u.approved)`,
		},
		{
			Name: "resident_events_by_owner",
			SQL: `SELECT h.request_id, h.seq, h.actor_id FROM request_history h
                  JOIN address_requests r ON r.id = h.request_id
                  WHERE h.event IN ('submit','provideInfo','correctLocation')
                    AND h.actor_id <> r.resident_id`,
		},
		{
			Name: "history_trigger_present",
			SQL: `SELECT 'missing_request_history_worm' AS detail
                  WHERE NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'request_history_worm')`,
		},
		{
			Name: "outbox_key_order",
			SQL: `SELECT p.message_key, p.seq, e.seq FROM outbox p
                  JOIN outbox e ON e.message_key = p.message_key AND e.seq < p.seq
                  WHERE p.message_key <> '' AND p.status = 'processed' AND e.status = 'pending'`,
		},
		{
			Name: "slot_booked_iff_held",
			SQL: `SELECT s.id, s.booked FROM interview_slots s
                  WHERE s.booked <> EXISTS (
                      SELECT 1 FROM appointments a
                      WHERE a.slot_id = s.id AND a.status IN ('scheduled', 'completed'))`,
		},
		{
			Name: "slots_do_not_overlap",
			SQL: `SELECT a.id, b.id FROM interview_slots a
                  JOIN interview_slots b ON a.verifier_id = b.verifier_id AND a.id < b.id
                  WHERE a.starts_at < b.ends_at AND b.starts_at < a.ends_at`,
		},
		{
			Name: "appointment_with_reviewing_verifier",
			SQL: `SELECT a.id, a.verifier_id, r.verifier_id FROM appointments a
                  JOIN address_requests r ON r.id = a.request_id
                  WHERE r.verifier_id IS DISTINCT FROM a.verifier_id OR r.resident_id <> a.resident_id`,
		},
		{
			Name: "outbox_not_stale",
			SQL: `SELECT id, topic, attempts FROM outbox
                  WHERE status = 'pending' AND now() - created_at > interval '5 minutes'`,
		},
	}
}

// Run executes every oracle and returns the name and first row of the first
// failure, or an empty name when all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		if rows.Next() {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
	}
	return "", "", nil
}
