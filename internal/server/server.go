// Package server wires the modules into one HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/casdoor/oss"
	"github.com/gin-gonic/gin"
	"github.com/ncobase/collab/biz/admin"
	"github.com/ncobase/collab/biz/application"
	"github.com/ncobase/collab/biz/attachment"
	auditservice "github.com/ncobase/collab/biz/audit/service"
	"github.com/ncobase/collab/biz/comment"
	"github.com/ncobase/collab/biz/membership"
	"github.com/ncobase/collab/biz/project"
	"github.com/ncobase/collab/biz/realtime"
	"github.com/ncobase/collab/biz/task"
	"github.com/ncobase/collab/concurrency/worker"
	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/core/identity"
	"github.com/ncobase/collab/core/identity/middleware"
	idstructs "github.com/ncobase/collab/core/identity/structs"
	"github.com/ncobase/collab/data"
	"github.com/ncobase/collab/data/cache"
	"github.com/ncobase/collab/helper"
	"github.com/ncobase/collab/internal/event"
	"github.com/ncobase/collab/logging/logger"
	"github.com/ncobase/collab/logging/observes"
	"github.com/ncobase/collab/messaging"
	"github.com/ncobase/collab/net/resp"
	"github.com/ncobase/collab/search"
	"github.com/ncobase/collab/security/jwt"
	"github.com/ncobase/collab/storage"
)

// Deps are the external resources the server runs on. Data may be nil when
// Repositories are supplied; Store, Publisher and Search are optional.
type Deps struct {
	Data         *data.Data
	Repositories *Repositories
	Store        oss.StorageInterface
	Publisher    messaging.Publisher
	Search       search.Index
}

type Server struct {
	config   *config.Config
	logger   *logger.Logger
	data     *data.Data
	bus      *event.Bus
	realtime *realtime.Module
	pub      messaging.Publisher
	engine   *gin.Engine
}

// New builds every module and the router.
func New(cfg *config.Config, log *logger.Logger, deps *Deps) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if deps == nil {
		deps = &Deps{}
	}
	if cfg.Auth == nil || cfg.Auth.JWT == nil || cfg.Auth.JWT.Secret == "" {
		return nil, fmt.Errorf("auth.jwt.secret is required")
	}
	if cfg.Realtime == nil {
		return nil, fmt.Errorf("realtime config is required")
	}

	repos := deps.Repositories
	if repos == nil {
		var err error
		if repos, err = NewRepositories(deps.Data); err != nil {
			return nil, fmt.Errorf("failed to create repositories: %w", err)
		}
	}

	s := &Server{config: cfg, logger: log, data: deps.Data, pub: deps.Publisher}
	s.bus = event.NewBus(workerConfig(cfg.Worker), log)
	if deps.Publisher != nil {
		s.bus.SubscribeAll(messaging.NewSink(deps.Publisher, log).Handle)
	}

	r := helper.NewResponder(log, cfg.IsDebug())
	mw := middleware.NewMiddleware(s.authenticator(), log)

	projects := project.New(repos.Projects, repos.Applications, s.bus, log, r)
	if deps.Search != nil {
		search.NewIndexer(deps.Search, log).Register(s.bus)
		projects.Service().UseSearch(deps.Search)
	}
	applications := application.New(repos.Applications, repos.Projects, s.bus, log, r)
	gate := membership.NewGate(repos.Projects, repos.Applications, s.bus, log)
	tasks := task.New(repos.Tasks, gate, log, r)
	attachments := attachment.New(repos.Attachments, gate, deps.Store, storage.MaxUploadSize(cfg.Storage), log, r)
	comments := comment.New(repos.Comments, repos.Tasks, gate, log, r)
	audit := auditservice.NewService(repos.Audit, log)
	admins := admin.New(repos.Projects, applications.Service(), repos.Applications, audit, s.bus, log, r)
	s.realtime = realtime.New(s.bus, cfg.Realtime, log, r)

	if !cfg.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.HandleMethodNotAllowed = true
	e.NoRoute(func(c *gin.Context) { resp.Fail(c.Writer, resp.NotFound("route not found")) })
	e.NoMethod(func(c *gin.Context) { resp.Fail(c.Writer, resp.NotAllowed("method not allowed")) })
	e.Use(s.traceMiddleware(), s.recoveryMiddleware(), observes.Middleware(), s.loggerMiddleware())
	e.GET("/health", s.handleHealth)

	v1 := e.Group("/v1")
	// The upgrade route authenticates on its own so browsers can pass the
	// token as a query parameter.
	s.realtime.RegisterRoutes(v1, mw.AuthenticateUpgrade())

	authed := v1.Group("", mw.Authenticate())
	projects.RegisterRoutes(authed)
	applications.RegisterRoutes(authed)
	tasks.RegisterRoutes(authed)
	attachments.RegisterRoutes(authed)
	comments.RegisterRoutes(authed)
	s.realtime.RegisterStatsRoute(authed)
	authed.GET("/events/stats", mw.RequireAdmin(), s.handleEventStats)

	adminGroup := authed.Group("/admin", mw.RequireAdmin())
	projects.RegisterAdminRoutes(adminGroup)
	applications.RegisterAdminRoutes(adminGroup)
	admins.RegisterAdminRoutes(adminGroup)

	s.engine = e
	return s, nil
}

func workerConfig(c *config.Worker) *worker.Config {
	wc := worker.DefaultConfig()
	if c == nil {
		return wc
	}
	if c.MaxWorkers > 0 {
		wc.MaxWorkers = c.MaxWorkers
	}
	if c.QueueSize > 0 {
		wc.QueueSize = c.QueueSize
	}
	wc.TaskTimeout = c.TaskTimeout
	return wc
}

// authenticator chains cache, token claims, identity service and profile
// service. Scopes are cached in redis when it is available.
func (s *Server) authenticator() *identity.Authenticator {
	var scopes cache.ICache[idstructs.Scope]
	if s.data != nil && s.data.Redis() != nil {
		scopes = cache.NewCache[idstructs.Scope](s.data.Redis(), "collab:scope")
	} else {
		scopes = cache.NewMemory[idstructs.Scope]()
	}

	ic := s.config.Identity
	if ic == nil {
		ic = &config.Identity{Timeout: 3 * time.Second, CacheTTL: 5 * time.Minute}
	}
	resolver := identity.NewResolver(scopes, ic.CacheTTL, s.logger,
		identity.NewCacheStrategy(scopes),
		identity.NewTokenStrategy(),
		identity.NewServiceStrategy(identity.NewUpstream("identity_service", ic.ServiceURL, ic.Timeout, ic.Breaker)),
		identity.NewProfileStrategy(identity.NewUpstream("profile_service", ic.ProfileURL, ic.Timeout, ic.Breaker)),
	)
	tokens := jwt.NewTokenManager(s.config.Auth.JWT.Secret, s.config.Auth.JWT.Issuer)
	return identity.NewAuthenticator(tokens, resolver, s.logger)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Start runs the event bus and the realtime hub until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	s.bus.Start()
	s.realtime.Start(ctx)
}

// Cleanup drains the event bus and closes the publisher.
func (s *Server) Cleanup(ctx context.Context) {
	s.bus.Shutdown(ctx)
	if s.pub != nil {
		if err := s.pub.Close(); err != nil {
			s.logger.Warn(ctx, "Failed to close message publisher", "error", err)
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.data == nil {
		resp.Success(c.Writer, map[string]any{"status": "healthy"})
		return
	}
	health := s.data.Health(c.Request.Context())
	if health["status"] != "healthy" {
		resp.WithStatusCode(c.Writer, http.StatusServiceUnavailable, health)
		return
	}
	resp.Success(c.Writer, health)
}

func (s *Server) handleEventStats(c *gin.Context) {
	resp.Success(c.Writer, s.bus.GetStats())
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within timeout.
func (s *Server) ListenAndServe(ctx context.Context, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
