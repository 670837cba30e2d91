package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"addressme/auth"
	"addressme/certificate"
	"addressme/metrics"
	"addressme/scheduling"
	"addressme/verification"
)

type contextKey string

const (
	ctxKeyUserID contextKey = "user_id"
	ctxKeyRole   contextKey = "role"
)

// Server exposes the verification workflow over HTTP.
type Server struct {
	workflow   Workflow
	users      Users
	tokens     TokenVerifier
	scheduling Scheduling
	logger     *zap.Logger
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	ready      func(ctx context.Context) error
}

func NewServer(workflow Workflow, users Users, tokens TokenVerifier, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		workflow: workflow,
		users:    users,
		tokens:   tokens,
		logger:   logger,
		gatherer: prometheus.DefaultGatherer,
	}
}

// WithScheduling mounts the interview routes.
func (s *Server) WithScheduling(sched Scheduling) *Server {
	s.scheduling = sched
	return s
}

func (s *Server) WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) *Server {
	s.metrics = m
	if g != nil {
		s.gatherer = g
	}
	return s
}

// WithReadiness sets the dependency check behind /healthz.
func (s *Server) WithReadiness(check func(ctx context.Context) error) *Server {
	s.ready = check
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/requests", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.handleCreateRequest)
		r.Get("/", s.handleListRequests)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRequest)
			r.Post("/transitions", s.handleTransition)
			r.Put("/location", s.handleCorrectLocation)
			r.Get("/location.geojson", s.handleLocationGeoJSON)
			r.Get("/certificate.pdf", s.handleCertificate)
			if s.scheduling != nil {
				r.Get("/appointments", s.handleListAppointments)
				r.Post("/appointments", s.handleBookAppointment)
			}
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.handleRegister)
		r.Get("/me", s.handleCurrentUser)
		r.Post("/{id}/approve", s.handleApprove)
	})

	if s.scheduling != nil {
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/api/slots", s.handlePublishSlot)
			r.Get("/api/slots", s.handleOpenSlots)
			r.Post("/api/appointments/{id}/cancel", s.handleCancelAppointment)
			r.Post("/api/appointments/{id}/complete", s.handleCompleteAppointment)
		})
	}
	return r
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveHTTP(r.Method, route, status, time.Since(start))
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		userID, _, err := s.tokens.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			s.logger.Debug("rejected bearer token", zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid bearer token"})
			return
		}
		// The token's role claim is not trusted; the directory decides.
		role, err := s.users.Role(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) (string, verification.Role) {
	userID, _ := ctx.Value(ctxKeyUserID).(string)
	role, _ := ctx.Value(ctxKeyRole).(verification.Role)
	return userID, role
}

// canView reports whether the caller may read a request: its owner or any
// approved verifier.
func canView(ctx context.Context, residentID string) bool {
	userID, role := actorFromContext(ctx)
	return role == verification.RoleVerifier || userID == residentID
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body coordinatesRequest
	if !decodeBody(w, r, &body) {
		return
	}
	coords, ok := body.coordinates()
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "latitude and longitude are required"})
		return
	}

	userID, _ := actorFromContext(r.Context())
	req, err := s.workflow.CreateRequest(r.Context(), userID, coords)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRequestResponse(req))
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := verification.ListFilters{
		Status:     verification.Status(q.Get("status")),
		ResidentID: q.Get("resident_id"),
	}
	var err error
	if filters.Page, err = optionalInt(q.Get("page")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page must be an integer"})
		return
	}
	if filters.PageSize, err = optionalInt(q.Get("page_size")); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page_size must be an integer"})
		return
	}

	userID, role := actorFromContext(r.Context())
	switch role {
	case verification.RoleVerifier:
	case verification.RoleResident:
		filters.ResidentID = userID
	default:
		s.writeError(w, fmt.Errorf("%w: caller holds no role", verification.ErrForbidden))
		return
	}

	items, total, err := s.workflow.List(r.Context(), filters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := listResponse{Items: make([]requestResponse, 0, len(items)), Total: total}
	for _, item := range items {
		resp.Items = append(resp.Items, newRequestResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	report, err := s.workflow.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !canView(r.Context(), report.ResidentID) {
		s.writeError(w, verification.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, newStatusResponse(report))
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var body transitionRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Event) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "event is required"})
		return
	}

	userID, _ := actorFromContext(r.Context())
	req, err := s.workflow.Transition(r.Context(), chi.URLParam(r, "id"), verification.Event(body.Event), userID, body.Note)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRequestResponse(req))
}

func (s *Server) handleCorrectLocation(w http.ResponseWriter, r *http.Request) {
	var body coordinatesRequest
	if !decodeBody(w, r, &body) {
		return
	}
	coords, ok := body.coordinates()
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "latitude and longitude are required"})
		return
	}

	userID, _ := actorFromContext(r.Context())
	req, err := s.workflow.CorrectLocation(r.Context(), chi.URLParam(r, "id"), userID, coords)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRequestResponse(req))
}

func (s *Server) handleLocationGeoJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadVisible(w, r)
	if !ok {
		return
	}
	body, err := verification.Feature(req).MarshalJSON()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadVisible(w, r)
	if !ok {
		return
	}
	data, err := certificate.FromRequest(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := certificate.Render(&buf, data); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+data.Number+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) loadVisible(w http.ResponseWriter, r *http.Request) (verification.AddressRequest, bool) {
	req, err := s.workflow.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return verification.AddressRequest{}, false
	}
	if !canView(r.Context(), req.ResidentID) {
		s.writeError(w, verification.ErrForbidden)
		return verification.AddressRequest{}, false
	}
	return req, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, verification.ErrInvalidInput), errors.Is(err, auth.ErrInvalidUser):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, verification.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, verification.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, verification.ErrInvalidTransition), errors.Is(err, certificate.ErrNotIssued),
		errors.Is(err, auth.ErrUserExists), errors.Is(err, scheduling.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return false
	}
	return true
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
