package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/internal/updatemanager"
	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/server/middleware"
	"github.com/gitify-app/updater/client/server/util"
)

const (
	apiPrefix          = "/api/update"
	metricsPath        = "/metrics"
	readHeaderTimeout  = 10 * time.Second
	gracefulStopPeriod = 5 * time.Second
)

// UpdateManager is the command surface the API exposes
type UpdateManager interface {
	CheckForUpdates(ctx context.Context) error
	InstallUpdate(ctx context.Context) error
	GetUpdateStatus() updatemanager.Status
}

// Server serves the local update API of the daemon
type Server struct {
	rootCtx context.Context

	manager UpdateManager
	bus     *event.Bus
	metrics http.Handler
	limiter *middleware.APIRateLimiter
	origins *middleware.OriginGuard

	checks sync.WaitGroup
}

// New server instance constructor. metricsHandler may be nil.
// allowedOrigins lists the browser origins allowed to call the API.
func New(ctx context.Context, manager UpdateManager, bus *event.Bus, metricsHandler http.Handler, rateLimit *middleware.RateLimiterConfig, allowedOrigins []string) *Server {
	return &Server{
		rootCtx: ctx,
		manager: manager,
		bus:     bus,
		metrics: metricsHandler,
		limiter: middleware.NewAPIRateLimiter(rateLimit),
		origins: middleware.NewOriginGuard(allowedOrigins),
	}
}

// Handler returns the API router
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestHandler, s.origins.Middleware)

	api := router.PathPrefix(apiPrefix).Subrouter()
	api.Handle("/check", s.limiter.Middleware(http.HandlerFunc(s.checkForUpdates))).Methods(http.MethodPost)
	api.Handle("/install", s.limiter.Middleware(http.HandlerFunc(s.installUpdate))).Methods(http.MethodPost)
	api.HandleFunc("/status", s.getUpdateStatus).Methods(http.MethodGet)
	api.HandleFunc("/events", s.subscribeEvents).Methods(http.MethodGet)

	debug := router.PathPrefix("/api/debug").Subrouter()
	debug.HandleFunc("/log-level", s.getLogLevel).Methods(http.MethodGet)
	debug.Handle("/log-level", s.limiter.Middleware(http.HandlerFunc(s.setLogLevel))).Methods(http.MethodPut)

	if s.metrics != nil {
		router.Handle(metricsPath, s.metrics).Methods(http.MethodGet)
	}

	corsMiddleware := cors.New(cors.Options{
		AllowOriginFunc: s.origins.Allowed,
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders:  []string{"Content-Type"},
		ExposedHeaders:  []string{"X-Request-Id"},
		MaxAge:          300,
	})
	return corsMiddleware.Handler(router)
}

// ListenAndServe serves the API on addr until the root context is done
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves the API on l until the root context is done
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		// request contexts end with the daemon, so event streams do not hold up the shutdown
		BaseContext: func(net.Listener) context.Context { return s.rootCtx },
	}

	go func() {
		<-s.rootCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), gracefulStopPeriod)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warnf("failed to shut down the API server gracefully: %v", err)
		}
	}()

	log.Infof("update API listening on %s", l.Addr())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop waits for background checks started by the API
func (s *Server) Stop() {
	s.checks.Wait()
}

func (s *Server) checkForUpdates(w http.ResponseWriter, r *http.Request) {
	s.checks.Add(1)
	go func() {
		defer s.checks.Done()
		// failures are reported to subscribers as error events
		if err := s.manager.CheckForUpdates(s.rootCtx); err != nil {
			log.Debugf("manual update check failed: %v", err)
		}
	}()

	util.WriteJSONObjectWithStatus(r.Context(), w, http.StatusAccepted, util.EmptyObject{})
}

func (s *Server) installUpdate(w http.ResponseWriter, r *http.Request) {
	// a disconnecting client must not abort a running install
	if err := s.manager.InstallUpdate(s.rootCtx); err != nil {
		util.WriteError(r.Context(), err, w)
		return
	}
	util.WriteJSONObject(r.Context(), w, util.EmptyObject{})
}

func (s *Server) getUpdateStatus(w http.ResponseWriter, r *http.Request) {
	util.WriteJSONObject(r.Context(), w, s.manager.GetUpdateStatus())
}
