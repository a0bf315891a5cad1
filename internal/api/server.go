// Package api serves game insights over HTTP as JSON.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/pable/bg-insights/internal/model"
)

// GameLister lists a user's games.
type GameLister interface {
	ListGames(ctx context.Context, ownerID int64) ([]model.Game, error)
}

// Insighter computes the insights of one game for one user.
type Insighter interface {
	GameInsights(ctx context.Context, gameID, userID int64) (*model.GameInsights, error)
}

type Server struct {
	games    GameLister
	insights Insighter
	log      *logrus.Entry

	mu         sync.Mutex
	httpServer *http.Server
	stopped    bool

	// DefaultUserID is used when a request carries no user parameter.
	DefaultUserID int64
}

func NewServer(games GameLister, insights Insighter, log *logrus.Entry) *Server {
	return &Server{games: games, insights: insights, log: log, DefaultUserID: 1}
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}/insights", s.handleGameInsights).Methods("GET")

	router.Use(s.logRequests)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// Start listens on addr until Stop is called. It returns http.ErrServerClosed
// after a clean Stop.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.httpServer = srv
	s.mu.Unlock()

	s.log.WithField("addr", addr).Info("http server listening")
	return srv.ListenAndServe()
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.httpServer
	s.stopped = true
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
