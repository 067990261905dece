// Package web serves the door controller's HTTP interface.
package web

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/garage-door/internal/access"
	"github.com/sweeney/garage-door/internal/door"
	"github.com/sweeney/garage-door/internal/metrics"
	"github.com/sweeney/garage-door/internal/mqtt"
	"github.com/sweeney/garage-door/internal/status"
)

// Controller runs hardware sequences. Implemented by door.Engine.
type Controller interface {
	Status(ctx context.Context) (door.Classification, error)
	Execute(ctx context.Context, cmd door.Command) (door.Outcome, error)
}

// Options configures a Server.
type Options struct {
	Addr       string
	Gate       *access.Gate
	Controller Controller
	Tracker    *status.Tracker
	Publisher  mqtt.Publisher // nil disables event publishing
	Metrics    *metrics.Metrics

	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler

	// DropUnauthorized closes the connection without a response instead of
	// answering 401.
	DropUnauthorized bool

	Now func() time.Time
}

// Server serves the door endpoints over HTTP.
type Server struct {
	httpServer *http.Server
	opts       Options
}

// New creates a Server. Options.Gate, Controller and Tracker are required.
func New(opts Options) *Server {
	if opts.Publisher == nil {
		opts.Publisher = mqtt.NoopPublisher{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/open", s.guard("open", s.command(door.CommandOpen)))
	mux.HandleFunc("/close", s.guard("close", s.command(door.CommandClose)))
	mux.HandleFunc("/operate", s.guard("operate", s.command(door.CommandOperate)))
	mux.HandleFunc("/status", s.guard("status", s.status))
	mux.HandleFunc("/healthz", s.handleHealth)
	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}

	s.httpServer = &http.Server{
		Addr:    opts.Addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// action performs an authorized request and returns the body to send.
type action func(ctx context.Context) (string, error)

// guard checks the method and key before running fn, then maps its result
// onto a fixed response.
func (s *Server) guard(endpoint string, fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeText(w, http.StatusMethodNotAllowed, bodyMethodNotAllowed)
			return
		}

		vals, present := r.URL.Query()["key"]
		key := ""
		if present && len(vals) > 0 {
			key = vals[0]
		}
		if !s.opts.Gate.Authorize(key, present) {
			s.unauthorized(w, r, endpoint)
			return
		}

		start := s.opts.Now()
		body, err := fn(r.Context())
		elapsed := s.opts.Now().Sub(start)

		switch {
		case err == nil:
			s.opts.Metrics.Request(endpoint, metrics.ResultOK, elapsed)
			writeText(w, http.StatusOK, body)
		case errors.Is(err, door.ErrBusy):
			log.Printf("http: /%s from %s: %v", endpoint, r.RemoteAddr, err)
			s.opts.Tracker.RecordBusy()
			s.opts.Metrics.Request(endpoint, metrics.ResultBusy, elapsed)
			writeText(w, http.StatusServiceUnavailable, bodyBusy)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Printf("http: /%s from %s abandoned while waiting: %v", endpoint, r.RemoteAddr, err)
			s.opts.Metrics.Request(endpoint, metrics.ResultCancelled, elapsed)
			writeText(w, http.StatusServiceUnavailable, bodyCancelled)
		default:
			log.Printf("http: /%s hardware error: %v", endpoint, err)
			s.opts.Tracker.RecordHardwareError()
			s.opts.Metrics.Request(endpoint, metrics.ResultError, elapsed)
			writeText(w, http.StatusInternalServerError, bodyHardwareError)
		}
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, endpoint string) {
	log.Printf("auth: rejected /%s from %s", endpoint, r.RemoteAddr)
	s.opts.Tracker.RecordAuthFailure()
	s.opts.Metrics.Request(endpoint, metrics.ResultUnauthorized, 0)

	if s.opts.DropUnauthorized {
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
				return
			}
			log.Printf("auth: hijack failed, answering 401: %v", err)
		}
	}
	writeText(w, http.StatusUnauthorized, bodyUnauthorized)
}

func (s *Server) command(cmd door.Command) action {
	return func(ctx context.Context) (string, error) {
		out, err := s.opts.Controller.Execute(ctx, cmd)
		if err != nil {
			return "", err
		}

		log.Printf("command: %s state=%s pulsed=%v", out.Command, out.State, out.Pulsed)
		s.opts.Tracker.RecordOutcome(out)
		if out.Pulsed {
			s.opts.Metrics.Pulse()
		}
		if out.State != "" {
			s.opts.Metrics.State(out.State)
		}
		event := mqtt.CommandEvent{Timestamp: s.opts.Now(), Outcome: out}
		if err := s.opts.Publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
		return out.Message, nil
	}
}

func (s *Server) status(ctx context.Context) (string, error) {
	cl, err := s.opts.Controller.Status(ctx)
	if err != nil {
		return "", err
	}
	s.opts.Tracker.RecordStatus()
	s.opts.Metrics.State(cl.State)

	snap := s.opts.Tracker.Snapshot()
	return NewStatusResponse(cl, status.FormatUptime(snap.Uptime())).String(), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, bodyHealthy)
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	w.Write([]byte(body))
}
