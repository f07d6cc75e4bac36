// Package server wires storage, the session manager and HTTP handlers into
// a runnable HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/shopapp/internal/config"
	"github.com/iudanet/shopapp/internal/crypto"
	"github.com/iudanet/shopapp/internal/models"
	"github.com/iudanet/shopapp/internal/server/handlers"
	"github.com/iudanet/shopapp/internal/server/jwt"
	"github.com/iudanet/shopapp/internal/server/metrics"
	"github.com/iudanet/shopapp/internal/server/middleware"
	"github.com/iudanet/shopapp/internal/server/session"
	"github.com/iudanet/shopapp/internal/server/storage/sqlite"
	"github.com/iudanet/shopapp/internal/server/upload"
	"github.com/iudanet/shopapp/internal/validation"
)

type options struct {
	version string
	argon2  crypto.Argon2Params
}

// Option configures Server
type Option func(*options)

// WithVersion sets the version reported by the health endpoint
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithArgon2Params overrides password hashing cost
func WithArgon2Params(params crypto.Argon2Params) Option {
	return func(o *options) {
		o.argon2 = params
	}
}

// Server owns the HTTP handler and every resource it depends on
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	storage  *sqlite.Storage
	images   upload.Store
	metrics  *metrics.Metrics
	sessions *session.Manager
	limiter  *middleware.RateLimiter
	handler  http.Handler
}

// New opens storage (applying migrations) and builds the router
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{version: "dev", argon2: crypto.DefaultArgon2Params()}
	for _, opt := range opts {
		opt(&o)
	}

	signer, err := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	images, err := upload.NewStore(cfg.Uploads)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open image store: %w", err)
	}

	m := metrics.New()
	hasher := crypto.NewPasswordHasher(o.argon2)

	sessions := session.NewManager(logger, store, store, signer, hasher,
		session.Config{
			MaxSessions:     cfg.Auth.MaxSessions,
			SerializeLogins: cfg.Auth.SerializeLogins,
		},
		session.WithRecorder(m),
	)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		storage:  store,
		images:   images,
		metrics:  m,
		sessions: sessions,
		limiter:  middleware.NewRateLimiter(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginWindow),
	}
	s.handler = s.routes(hasher, o.version)

	return s, nil
}

// Handler returns the root HTTP handler with the middleware chain applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions returns the session manager
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

func (s *Server) routes(hasher *crypto.PasswordHasher, version string) http.Handler {
	p := s.cfg.Server.APIPrefix
	validate := validation.New()

	health := handlers.NewHealthHandler(s.logger, s.storage, version)
	users := handlers.NewUserHandler(s.logger, validate, s.storage, s.sessions, hasher)
	categories := handlers.NewCategoryHandler(s.logger, validate, s.storage)
	products := handlers.NewProductHandler(s.logger, validate, s.storage, s.images, handlers.UploadLimits{
		MaxFileSize: s.cfg.Uploads.MaxFileSize,
		MaxImages:   s.cfg.Uploads.MaxImages,
	})
	orders := handlers.NewOrderHandler(s.logger, validate, s.storage, s.storage, s.storage)
	details := handlers.NewOrderDetailHandler(s.logger, validate, s.storage)

	authn := middleware.AuthMiddleware(s.logger, s.sessions)
	admin := middleware.RequireRole(s.logger, models.RoleAdmin)
	limited := s.limiter.Middleware(s.logger)

	authed := func(h http.HandlerFunc) http.Handler { return authn(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return authn(admin(h)) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET "+p+"/health", health.Health)

	// Пользователи
	mux.Handle("POST "+p+"/users/register", limited(http.HandlerFunc(users.Register)))
	mux.Handle("POST "+p+"/users/login", limited(http.HandlerFunc(users.Login)))
	mux.HandleFunc("POST "+p+"/users/refresh", users.Refresh)
	mux.Handle("POST "+p+"/users/logout", authed(users.Logout))
	mux.Handle("GET "+p+"/users/details", authed(users.Details))
	mux.Handle("PUT "+p+"/users/details/{id}", authed(users.UpdateDetails))

	// Категории
	mux.HandleFunc("GET "+p+"/categories", categories.List)
	mux.HandleFunc("GET "+p+"/categories/{id}", categories.Get)
	mux.Handle("POST "+p+"/categories", adminOnly(categories.Create))
	mux.Handle("PUT "+p+"/categories/{id}", adminOnly(categories.Update))
	mux.Handle("DELETE "+p+"/categories/{id}", adminOnly(categories.Delete))

	// Товары
	mux.HandleFunc("GET "+p+"/products", products.List)
	mux.HandleFunc("GET "+p+"/products/by-ids", products.ByIDs)
	mux.HandleFunc("GET "+p+"/products/{id}", products.Get)
	mux.HandleFunc("GET "+p+"/products/images/{name}", products.Image)
	mux.Handle("POST "+p+"/products", adminOnly(products.Create))
	mux.Handle("PUT "+p+"/products/{id}", adminOnly(products.Update))
	mux.Handle("DELETE "+p+"/products/{id}", adminOnly(products.Delete))
	mux.Handle("POST "+p+"/products/uploads/{id}", adminOnly(products.UploadImages))

	// Заказы
	mux.Handle("POST "+p+"/orders", authed(orders.Create))
	mux.Handle("GET "+p+"/orders/{id}", authed(orders.Get))
	mux.Handle("GET "+p+"/orders/user/{user_id}", authed(orders.ByUser))
	mux.Handle("GET "+p+"/orders/search", adminOnly(orders.Search))
	mux.Handle("GET "+p+"/orders/export", adminOnly(orders.Export))
	mux.Handle("PUT "+p+"/orders/{id}", adminOnly(orders.Update))
	mux.Handle("DELETE "+p+"/orders/{id}", adminOnly(orders.Delete))

	// Позиции заказа
	mux.Handle("POST "+p+"/order_details", adminOnly(details.Create))
	mux.Handle("GET "+p+"/order_details/{id}", authed(details.Get))
	mux.Handle("GET "+p+"/order_details/order/{order_id}", authed(details.ByOrder))
	mux.Handle("PUT "+p+"/order_details/{id}", adminOnly(details.Update))
	mux.Handle("DELETE "+p+"/order_details/{id}", adminOnly(details.Delete))

	skipLog := []string{p + "/health"}
	if s.cfg.Metrics.Enabled {
		mux.Handle("GET "+s.cfg.Metrics.Path, s.metrics.Handler())
		skipLog = append(skipLog, s.cfg.Metrics.Path)
	}

	// Metrics оборачивает mux напрямую, чтобы видеть r.Pattern
	var h http.Handler = mux
	h = middleware.MetricsMiddleware(s.metrics)(h)
	h = middleware.LoggingMiddleware(s.logger, skipLog...)(h)
	h = middleware.RecoveryMiddleware(s.logger)(h)
	h = middleware.RequestIDMiddleware(h)

	return h
}

// Run serves HTTP on cfg.Server.Addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	s.logger.Info("server starting", slog.String("addr", s.cfg.Server.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server stopping", slog.String("reason", context.Cause(ctx).Error()))
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Close releases the rate limiter, the image store and the database
func (s *Server) Close() error {
	s.limiter.Stop()
	return errors.Join(s.images.Close(), s.storage.Close())
}
