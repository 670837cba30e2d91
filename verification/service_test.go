package verification

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type staticRoles map[string]Role

func (s staticRoles) Role(_ context.Context, actorID string) (Role, error) {
	return s[actorID], nil
}

type countingRecorder struct {
	mu          sync.Mutex
	created     int
	transitions map[string]int
}

func (c *countingRecorder) RequestCreated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created++
}

func (c *countingRecorder) TransitionObserved(event, outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transitions == nil {
		c.transitions = map[string]int{}
	}
	c.transitions[event+"/"+outcome]++
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var nairobi = Coordinates{Latitude: -1.28, Longitude: 36.82}

func newTestService(t *testing.T) *Service {
	t.Helper()
	roles := staticRoles{
		"res1":      RoleResident,
		"res2":      RoleResident,
		"verifierA": RoleVerifier,
		"verifierB": RoleVerifier,
	}
	var (
		mu     sync.Mutex
		seq    int
		certNo = 0xBEEF
	)
	return NewService(NewMemoryStore(), roles, nil).
		WithClock(func() time.Time { return testNow }).
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("req-%03d", seq)
		}).
		WithCertificateNumbers(func() string {
			mu.Lock()
			defer mu.Unlock()
			n := fmt.Sprintf("AM-%08X", certNo)
			certNo++
			return n
		})
}

// driveTo creates a request owned by res1 and walks it to status.
func driveTo(t *testing.T, svc *Service, status Status) AddressRequest {
	t.Helper()
	ctx := context.Background()
	req, err := svc.CreateRequest(ctx, "res1", nairobi)
	require.NoError(t, err)

	steps := map[Status][]Event{
		StatusPending:     nil,
		StatusUnderReview: {EventClaim},
		StatusNeedsInfo:   {EventClaim, EventRequestInfo},
		StatusVerified:    {EventClaim, EventApprove},
		StatusRejected:    {EventClaim, EventReject},
	}
	for _, ev := range steps[status] {
		req, err = svc.Transition(ctx, req.ID, ev, "verifierA", "")
		require.NoError(t, err)
	}
	require.Equal(t, status, req.Status)
	return req
}

func TestCreateRequest_ValidCoordinatesStartPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for lat := -90.0; lat <= 90; lat += 22.5 {
		for lng := -180.0; lng <= 180; lng += 45 {
			req, err := svc.CreateRequest(ctx, "res1", Coordinates{Latitude: lat, Longitude: lng})
			require.NoError(t, err, "lat=%v lng=%v", lat, lng)
			assert.Equal(t, StatusPending, req.Status)
			assert.Equal(t, 1, req.History.Len())
			assert.Nil(t, req.VerifierID)

			first, ok := req.History.Last()
			require.True(t, ok)
			assert.Equal(t, 1, first.Seq)
			assert.Equal(t, EventSubmit, first.Event)
			assert.Equal(t, "res1", first.ActorID)
			assert.Equal(t, testNow, req.CreatedAt)
			assert.Equal(t, testNow, req.UpdatedAt)
		}
	}
}

func TestCreateRequest_InvalidInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := map[string]struct {
		resident string
		coords   Coordinates
	}{
		"latitude above range":  {"res1", Coordinates{Latitude: 90.0001, Longitude: 0}},
		"latitude below range":  {"res1", Coordinates{Latitude: -91, Longitude: 0}},
		"longitude above range": {"res1", Coordinates{Latitude: 0, Longitude: 180.5}},
		"longitude below range": {"res1", Coordinates{Latitude: 0, Longitude: -200}},
		"nan latitude":          {"res1", Coordinates{Latitude: math.NaN(), Longitude: 0}},
		"infinite longitude":    {"res1", Coordinates{Latitude: 0, Longitude: math.Inf(1)}},
		"missing resident":      {"  ", nairobi},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateRequest(ctx, tc.resident, tc.coords)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	items, total, err := svc.List(ctx, ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestCreateRequest_RequiresResidentRole(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateRequest(context.Background(), "verifierA", nairobi)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateRequest(context.Background(), "stranger", nairobi)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestTransition_UndefinedEdgesLeaveStateUntouched(t *testing.T) {
	events := append(Events(), Event("bogus"), EventCorrectLocation)

	for _, status := range Statuses() {
		for _, event := range events {
			if _, ok := lookupEdge(status, event); ok {
				continue
			}
			t.Run(string(status)+"/"+string(event), func(t *testing.T) {
				svc := newTestService(t)
				ctx := context.Background()
				req := driveTo(t, svc, status)

				for _, actor := range []string{"verifierA", "res1"} {
					_, err := svc.Transition(ctx, req.ID, event, actor, "note")
					require.ErrorIs(t, err, ErrInvalidTransition, "actor %s", actor)
				}

				after, err := svc.GetStatus(ctx, req.ID)
				require.NoError(t, err)
				assert.Equal(t, status, after.Status)
				assert.Equal(t, req.History.Entries(), after.History)
			})
		}
	}
}

func TestTransition_WrongActorIsForbidden(t *testing.T) {
	for _, edge := range Edges() {
		if edge.CreationOnly {
			continue
		}
		var intruders []string
		if edge.Actor == RoleVerifier {
			intruders = []string{"res1", "res2", "nobody"}
		} else {
			intruders = []string{"verifierA", "res2", "nobody"}
		}

		for _, actor := range intruders {
			t.Run(fmt.Sprintf("%s/%s/%s", edge.From, edge.Event, actor), func(t *testing.T) {
				svc := newTestService(t)
				ctx := context.Background()
				req := driveTo(t, svc, edge.From)

				_, err := svc.Transition(ctx, req.ID, edge.Event, actor, "")
				require.ErrorIs(t, err, ErrForbidden)

				after, err := svc.Get(ctx, req.ID)
				require.NoError(t, err)
				assert.Equal(t, edge.From, after.Status)
				assert.Equal(t, req.History.Len(), after.History.Len())
				assert.Equal(t, req.VerifierID, after.VerifierID)
			})
		}
	}
}

func TestTransition_SubmitIsCreationOnly(t *testing.T) {
	svc := newTestService(t)
	req := driveTo(t, svc, StatusPending)

	_, err := svc.Transition(context.Background(), req.ID, EventSubmit, "res1", "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_UnknownRequest(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Transition(context.Background(), "missing", EventClaim, "verifierA", "")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetStatus(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_MissingFields(t *testing.T) {
	svc := newTestService(t)
	req := driveTo(t, svc, StatusPending)

	_, err := svc.Transition(context.Background(), req.ID, EventClaim, "", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Transition(context.Background(), req.ID, EventClaim, "verifierA", strings.Repeat("x", maxNoteLength+1))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestScenario_ClaimApproveThenTerminal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "res1", Coordinates{Latitude: -1.28, Longitude: 36.82})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, 1, req.History.Len())

	req, err = svc.Transition(ctx, req.ID, EventClaim, "verifierA", "")
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, req.Status)

	req, err = svc.Transition(ctx, req.ID, EventApprove, "verifierA", "visited the plot")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, req.Status)
	assert.True(t, req.Status.Terminal())

	_, err = svc.Transition(ctx, req.ID, EventReject, "verifierA", "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	report, err := svc.GetStatus(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, report.History, 3)
	assert.Equal(t, []Status{StatusPending, StatusUnderReview, StatusVerified},
		[]Status{report.History[0].Status, report.History[1].Status, report.History[2].Status})
	assert.Equal(t, "visited the plot", report.History[2].Note)
	require.NotNil(t, report.VerifierID)
	assert.Equal(t, "verifierA", *report.VerifierID)
}

func TestScenario_RequestInfoRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	req := driveTo(t, svc, StatusUnderReview)

	req, err := svc.Transition(ctx, req.ID, EventRequestInfo, "verifierA", "need a landmark")
	require.NoError(t, err)
	assert.Equal(t, StatusNeedsInfo, req.Status)

	_, err = svc.Transition(ctx, req.ID, EventProvideInfo, "res2", "")
	require.ErrorIs(t, err, ErrForbidden)

	req, err = svc.Transition(ctx, req.ID, EventProvideInfo, "res1", "next to the blue kiosk")
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, req.Status)

	require.NotNil(t, req.VerifierID)
	assert.Equal(t, "verifierA", *req.VerifierID, "resident actions do not replace the verifier")
	assert.Equal(t, 4, req.History.Len())
}

func TestTransition_ConcurrentApproveAndRejectHaveOneWinner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		req := driveTo(t, svc, StatusUnderReview)

		var (
			g    errgroup.Group
			errs [2]error
		)
		g.Go(func() error {
			_, errs[0] = svc.Transition(ctx, req.ID, EventApprove, "verifierA", "")
			return nil
		})
		g.Go(func() error {
			_, errs[1] = svc.Transition(ctx, req.ID, EventReject, "verifierB", "")
			return nil
		})
		require.NoError(t, g.Wait())

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			require.ErrorIs(t, err, ErrInvalidTransition)
		}
		require.Equal(t, 1, successes)

		after, err := svc.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.True(t, after.Status.Terminal())
		assert.Equal(t, 3, after.History.Len())
	}
}

func TestTransition_DifferentRequestsProceedIndependently(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = driveTo(t, svc, StatusPending).ID
	}

	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			_, err := svc.Transition(ctx, id, EventClaim, "verifierB", "")
			return err
		})
	}
	require.NoError(t, g.Wait())

	queue, total, err := svc.List(ctx, ListFilters{Status: StatusUnderReview, PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, len(ids), total)
	assert.Len(t, queue, len(ids))
}

func TestVerifierIDSetOnlyAfterLeavingPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := driveTo(t, svc, StatusPending)
	assert.Nil(t, req.VerifierID)

	req, err := svc.CorrectLocation(ctx, req.ID, "res1", Coordinates{Latitude: -1.29, Longitude: 36.83})
	require.NoError(t, err)
	assert.Nil(t, req.VerifierID)

	req, err = svc.Transition(ctx, req.ID, EventClaim, "verifierB", "")
	require.NoError(t, err)
	require.NotNil(t, req.VerifierID)
	assert.Equal(t, "verifierB", *req.VerifierID)

	req, err = svc.Transition(ctx, req.ID, EventRequestInfo, "verifierA", "")
	require.NoError(t, err)
	assert.Equal(t, "verifierA", *req.VerifierID)
}

func TestApproveIssuesCertificate(t *testing.T) {
	svc := newTestService(t)
	req := driveTo(t, svc, StatusVerified)

	require.NotNil(t, req.Certificate)
	assert.Equal(t, "AM-0000BEEF", req.Certificate.Number)
	assert.Equal(t, testNow, req.Certificate.IssuedAt)
	assert.Equal(t, testNow.AddDate(0, 0, 365), req.Certificate.ExpiresAt)

	rejected := driveTo(t, svc, StatusRejected)
	assert.Nil(t, rejected.Certificate)
}

func TestNewCertificateNumberFormat(t *testing.T) {
	n := newCertificateNumber()
	require.Len(t, n, 11)
	assert.True(t, strings.HasPrefix(n, "AM-"))
	assert.Equal(t, strings.ToUpper(n), n)
}

func TestApprove_RedrawsCollidingCertificateNumber(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	numbers := []string{"AM-0000BEEF", "AM-0000BEEF", "AM-0000CAFE"}
	svc.WithCertificateNumbers(func() string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	})

	first := driveTo(t, svc, StatusUnderReview)
	second := driveTo(t, svc, StatusUnderReview)

	got, err := svc.Transition(ctx, first.ID, EventApprove, "verifierA", "")
	require.NoError(t, err)
	assert.Equal(t, "AM-0000BEEF", got.Certificate.Number)

	got, err = svc.Transition(ctx, second.ID, EventApprove, "verifierA", "")
	require.NoError(t, err)
	assert.Equal(t, "AM-0000CAFE", got.Certificate.Number)
	assert.Empty(t, numbers)
}

func TestApprove_GivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t).WithCertificateNumbers(func() string { return "AM-0000BEEF" })

	driveTo(t, svc, StatusVerified)
	pending := driveTo(t, svc, StatusUnderReview)

	_, err := svc.Transition(ctx, pending.ID, EventApprove, "verifierA", "")
	require.ErrorIs(t, err, ErrCertificateNumberTaken)

	report, err := svc.GetStatus(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnderReview, report.Status)
	assert.Nil(t, report.Certificate)
}

func TestCorrectLocation(t *testing.T) {
	ctx := context.Background()
	moved := Coordinates{Latitude: -1.2801, Longitude: 36.8201}

	t.Run("owner while pending", func(t *testing.T) {
		svc := newTestService(t)
		req := driveTo(t, svc, StatusPending)

		updated, err := svc.CorrectLocation(ctx, req.ID, "res1", moved)
		require.NoError(t, err)
		assert.Equal(t, moved, updated.Coordinates)
		assert.Equal(t, StatusPending, updated.Status)
		require.Equal(t, 2, updated.History.Len())

		last, _ := updated.History.Last()
		assert.Equal(t, EventCorrectLocation, last.Event)
		assert.Equal(t, StatusPending, last.Status)
		assert.Contains(t, last.Note, "location corrected by")
	})

	t.Run("another resident", func(t *testing.T) {
		svc := newTestService(t)
		req := driveTo(t, svc, StatusPending)

		_, err := svc.CorrectLocation(ctx, req.ID, "res2", moved)
		require.ErrorIs(t, err, ErrForbidden)
	})

	for _, status := range []Status{StatusUnderReview, StatusNeedsInfo, StatusVerified, StatusRejected} {
		t.Run("locked in "+string(status), func(t *testing.T) {
			svc := newTestService(t)
			req := driveTo(t, svc, status)

			_, err := svc.CorrectLocation(ctx, req.ID, "res1", moved)
			require.ErrorIs(t, err, ErrForbidden)

			after, err := svc.Get(ctx, req.ID)
			require.NoError(t, err)
			assert.Equal(t, nairobi, after.Coordinates)
			assert.Equal(t, req.History.Len(), after.History.Len())
		})
	}

	t.Run("invalid coordinates", func(t *testing.T) {
		svc := newTestService(t)
		req := driveTo(t, svc, StatusPending)

		_, err := svc.CorrectLocation(ctx, req.ID, "res1", Coordinates{Latitude: 100})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown request", func(t *testing.T) {
		svc := newTestService(t)

		_, err := svc.CorrectLocation(ctx, "missing", "res1", moved)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetStatus_ReturnsDetachedHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	req := driveTo(t, svc, StatusUnderReview)

	report, err := svc.GetStatus(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, report.History, 2)
	report.History[0].Note = "tampered"

	again, err := svc.GetStatus(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, again.History[0].Note)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		driveTo(t, svc, StatusPending)
	}
	_, err := svc.CreateRequest(ctx, "res2", nairobi)
	require.NoError(t, err)

	page, total, err := svc.List(ctx, ListFilters{ResidentID: "res1", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "req-003", page[0].ID)
	assert.Equal(t, "req-002", page[1].ID)

	_, _, err = svc.List(ctx, ListFilters{Status: "archived"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecorderObservesOutcomes(t *testing.T) {
	rec := &countingRecorder{}
	svc := newTestService(t).WithRecorder(rec)
	ctx := context.Background()

	req := driveTo(t, svc, StatusUnderReview)
	_, err := svc.Transition(ctx, req.ID, EventClaim, "verifierA", "")
	require.Error(t, err)
	_, err = svc.Transition(ctx, req.ID, EventApprove, "res1", "")
	require.Error(t, err)

	assert.Equal(t, 1, rec.created)
	assert.Equal(t, 1, rec.transitions["claim/ok"])
	assert.Equal(t, 1, rec.transitions["claim/invalid_transition"])
	assert.Equal(t, 1, rec.transitions["approve/forbidden"])
}
