package devbackend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cubectl/pkg/logging"
)

const maxRequestBodySize = 1 << 20

// Config holds the settings of a development backend.
type Config struct {
	Listen         string
	SeedWorkspaces int
	LogInterval    time.Duration
	// ActionDelay is slept before every lifecycle action to make the
	// client's transient states visible.
	ActionDelay time.Duration
}

// Failure is an injected answer for one call.
type Failure struct {
	// Code is the HTTP status. 200 answers with Message, which lets tests
	// exercise replies that do not confirm success.
	Code    int
	Message string
}

// Server is the in-memory backend.
type Server struct {
	cfg   Config
	state *state
	logs  *logHub

	mu       sync.Mutex
	failures map[string]Failure
}

// New creates a server seeded with cfg.SeedWorkspaces demo workspaces.
func New(cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		state:    newState(),
		logs:     newLogHub(),
		failures: make(map[string]Failure),
	}
	s.state.seed(cfg.SeedWorkspaces)
	return s
}

// InjectFailure makes the call answer with f until cleared. Calls are
// named "workspace/<id>/<action>" or "cube/<id>/<action>", for example
// "cube/3/deploy" or "workspace/1/delete".
func (s *Server) InjectFailure(call string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[call] = f
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
}

// Publish sends a line to every connected log stream client.
func (s *Server) Publish(format string, args ...interface{}) {
	s.logs.publish(format, args...)
}

// StreamClients returns the number of connected log stream clients.
func (s *Server) StreamClients() int {
	return s.logs.clientCount()
}

// injected writes the injected answer for call, if any.
func (s *Server) injected(w http.ResponseWriter, call string) bool {
	s.mu.Lock()
	f, ok := s.failures[call]
	s.mu.Unlock()
	if !ok {
		return false
	}
	logging.Debug("DevBackend", "Injected failure for %s: %d %s", call, f.Code, f.Message)
	if f.Code == http.StatusOK {
		writeMessage(w, f.Message)
		return true
	}
	writeJSON(w, f.Code, errorBody{Error: f.Message})
	return true
}

// Handler returns the HTTP handler serving the API under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(bodySizeLimitMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/workspaces", s.listWorkspaces)
		r.Route("/workspace", func(r chi.Router) {
			r.Post("/create", s.createWorkspace)
			r.Delete("/delete", s.deleteWorkspace)
			r.Post("/{action}", s.workspaceAction)
		})

		r.Get("/cubes", s.listCubes)
		r.Route("/cube", func(r chi.Router) {
			r.Post("/", s.createCube)
			r.Delete("/delete", s.deleteCubeByQuery)
			r.Post("/deploy", s.cubeActionByQuery)
			r.Post("/stop", s.cubeActionByQuery)
			r.Post("/redeploy", s.cubeActionByQuery)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getCube)
				r.Put("/", s.updateCube)
				r.Delete("/", s.deleteCube)
				r.Post("/commit", s.commitCube)
				r.Post("/{action}", s.cubeAction)
			})
		})

		r.Get("/logs/stream", s.logs.serveStream)
	})

	return r
}

// Serve answers requests on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.logs.heartbeat(hbCtx, s.cfg.LogInterval, s.describe)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logging.Info("DevBackend", "Serving API on http://%s/api", ln.Addr())

	select {
	case err := <-errCh:
		s.logs.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logs.close()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down dev backend: %w", err)
	}
	logging.Info("DevBackend", "Stopped")
	return nil
}

// Run listens on cfg.Listen and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) describe() string {
	list := s.state.listWorkspaces()
	return fmt.Sprintf("workspaces=%d cubes=%d running=%d", list.TotalWorkspaces, list.TotalCubes, list.TotalRunningCubes)
}

func (s *Server) delay(ctx context.Context) {
	if s.cfg.ActionDelay <= 0 {
		return
	}
	t := time.NewTimer(s.cfg.ActionDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug("DevBackend", "%s %s -> %d in %s (request %s)",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		next.ServeHTTP(w, r)
	})
}
