package actors

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"addressme/notify"
	"addressme/scheduling"
	"addressme/verification"
)

// Tally counts actor outcomes across a run.
type Tally struct {
	Created     atomic.Int64
	Transitions atomic.Int64
	Refused     atomic.Int64
	RaceWins    atomic.Int64
	RaceLosses  atomic.Int64
	// RaceAnomalies counts races with zero or two winners.
	RaceAnomalies atomic.Int64
	InfraErrors   atomic.Int64
}

func (t *Tally) record(err error) {
	switch {
	case err == nil:
		t.Transitions.Add(1)
	case errors.Is(err, verification.ErrInvalidTransition),
		errors.Is(err, verification.ErrForbidden),
		errors.Is(err, verification.ErrNotFound),
		errors.Is(err, verification.ErrInvalidInput),
		errors.Is(err, scheduling.ErrConflict):
		t.Refused.Add(1)
	default:
		t.InfraErrors.Add(1)
	}
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

func pause(minMs, spreadMs int) {
	time.Sleep(time.Duration(minMs+rand.Intn(spreadMs)) * time.Millisecond)
}

// pick returns a random request id in status, or "" when none exists.
func pick(ctx context.Context, pool *pgxpool.Pool, status verification.Status, residentID string) string {
	var id string
	q := `SELECT id FROM address_requests WHERE status::text = $1 AND ($2 = '' OR resident_id = $2) ORDER BY random() LIMIT 1`
	_ = pool.QueryRow(ctx, q, string(status), residentID).Scan(&id)
	return id
}

// Submitter files new requests around Nairobi, with the occasional
// out-of-range coordinate that must be refused.
func Submitter(ctx context.Context, svc *verification.Service, residentID string, tally *Tally, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		coords := verification.Coordinates{
			Latitude:  -1.28 + rand.Float64()*0.1,
			Longitude: 36.82 + rand.Float64()*0.1,
		}
		if rand.Intn(20) == 0 {
			coords.Latitude = 120
		}
		_, err := svc.CreateRequest(ctx, residentID, coords)
		if err == nil {
			tally.Created.Add(1)
		} else {
			tally.record(err)
		}
		pause(20, 40)
	}
	return nil
}

// Resident answers info requests and moves pins on its own requests. It also
// tries to touch other residents' requests, which must be refused.
func Resident(ctx context.Context, svc *verification.Service, pool *pgxpool.Pool, residentID string, tally *Tally, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		owner := residentID
		if rand.Intn(5) == 0 {
			owner = ""
		}
		if id := pick(ctx, pool, verification.StatusNeedsInfo, owner); id != "" {
			_, err := svc.Transition(ctx, id, verification.EventProvideInfo, residentID, "landmark: blue kiosk")
			tally.record(err)
		}
		if id := pick(ctx, pool, verification.StatusPending, owner); id != "" {
			coords := verification.Coordinates{Latitude: -1.28 + rand.Float64()*0.01, Longitude: 36.82 + rand.Float64()*0.01}
			_, err := svc.CorrectLocation(ctx, id, residentID, coords)
			tally.record(err)
		}
		pause(15, 30)
	}
	return nil
}

// Verifier works the queue: claim pending requests and decide claimed ones.
func Verifier(ctx context.Context, svc *verification.Service, pool *pgxpool.Pool, verifierID string, tally *Tally, stop <-chan struct{}) error {
	decisions := []verification.Event{verification.EventApprove, verification.EventReject, verification.EventRequestInfo}
	for !stopped(ctx, stop) {
		if id := pick(ctx, pool, verification.StatusPending, ""); id != "" {
			_, err := svc.Transition(ctx, id, verification.EventClaim, verifierID, "")
			tally.record(err)
		}
		if id := pick(ctx, pool, verification.StatusUnderReview, ""); id != "" {
			ev := decisions[rand.Intn(len(decisions))]
			_, err := svc.Transition(ctx, id, ev, verifierID, "site visit")
			tally.record(err)
		}
		pause(10, 30)
	}
	return nil
}

// Racer fires approve and reject at the same under-review request from two
// verifiers at once. Exactly one may win.
func Racer(ctx context.Context, svc *verification.Service, pool *pgxpool.Pool, verifierA, verifierB string, tally *Tally, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		id := pick(ctx, pool, verification.StatusUnderReview, "")
		if id == "" {
			pause(20, 20)
			continue
		}

		errs := make(chan error, 2)
		go func() {
			_, err := svc.Transition(ctx, id, verification.EventApprove, verifierA, "")
			errs <- err
		}()
		go func() {
			_, err := svc.Transition(ctx, id, verification.EventReject, verifierB, "")
			errs <- err
		}()

		wins, losses, infra := 0, 0, 0
		for i := 0; i < 2; i++ {
			err := <-errs
			switch {
			case err == nil:
				wins++
			case errors.Is(err, verification.ErrInvalidTransition):
				losses++
			default:
				infra++
			}
		}
		tally.RaceWins.Add(int64(wins))
		tally.RaceLosses.Add(int64(losses))
		tally.InfraErrors.Add(int64(infra))
		// Another actor may have decided the request first, giving two losses.
		// Two winners is always a violation.
		if wins > 1 {
			tally.RaceAnomalies.Add(1)
		}
		pause(20, 30)
	}
	return nil
}

// Impostor is an unapproved verifier. Every attempt must be refused.
func Impostor(ctx context.Context, svc *verification.Service, pool *pgxpool.Pool, actorID string, tally *Tally, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		if id := pick(ctx, pool, verification.StatusPending, ""); id != "" {
			_, err := svc.Transition(ctx, id, verification.EventClaim, actorID, "")
			tally.record(err)
		}
		pause(30, 40)
	}
	return nil
}

// Interviewer publishes slots for verifierID, some of them overlapping, and
// books them on behalf of residents whose requests verifierID is reviewing.
// A third of the bookings are cancelled again so slots get reused.
func Interviewer(ctx context.Context, sched *scheduling.Service, pool *pgxpool.Pool, verifierID string, tally *Tally, stop <-chan struct{}) error {
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	for !stopped(ctx, stop) {
		start := base.Add(time.Duration(rand.Intn(400)) * 15 * time.Minute)
		_, err := sched.PublishSlot(ctx, verifierID, start, start.Add(30*time.Minute))
		tally.record(err)

		var requestID, residentID, slotID string
		_ = pool.QueryRow(ctx, `SELECT id, resident_id FROM address_requests
			WHERE status = 'under_review' AND verifier_id = $1 ORDER BY random() LIMIT 1`, verifierID).Scan(&requestID, &residentID)
		_ = pool.QueryRow(ctx, `SELECT id FROM interview_slots
			WHERE verifier_id = $1 AND NOT booked ORDER BY random() LIMIT 1`, verifierID).Scan(&slotID)
		if requestID != "" && slotID != "" {
			appt, err := sched.Book(ctx, residentID, requestID, slotID)
			tally.record(err)
			if err == nil && rand.Intn(3) == 0 {
				_, err = sched.Cancel(ctx, residentID, appt.ID)
				tally.record(err)
			}
		}
		pause(20, 40)
	}
	return nil
}

// FlakyPublisher fails a fraction of deliveries.
type FlakyPublisher struct {
	FailEvery int
	Delivered atomic.Int64
}

func (p *FlakyPublisher) Publish(context.Context, notify.Message) error {
	if p.FailEvery > 0 && rand.Intn(p.FailEvery) == 0 {
		return errors.New("downstream unavailable")
	}
	p.Delivered.Add(1)
	return nil
}

// Relay drains the outbox concurrently with other relays.
func Relay(ctx context.Context, relay *notify.Relay, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		_, _ = relay.RunOnce(ctx)
		pause(50, 50)
	}
	return nil
}
