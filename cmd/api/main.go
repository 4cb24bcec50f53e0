package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"

	"github.com/spicefactory/backend-dine/internal/cart"
	"github.com/spicefactory/backend-dine/internal/common"
	"github.com/spicefactory/backend-dine/internal/config"
	"github.com/spicefactory/backend-dine/internal/events"
	"github.com/spicefactory/backend-dine/internal/health"
	"github.com/spicefactory/backend-dine/internal/menu"
	"github.com/spicefactory/backend-dine/internal/obs"
	"github.com/spicefactory/backend-dine/internal/order"
	"github.com/spicefactory/backend-dine/internal/ratelimit"
	"github.com/spicefactory/backend-dine/internal/security"
	"github.com/spicefactory/backend-dine/internal/session"
	"github.com/spicefactory/backend-dine/internal/store"
	"github.com/spicefactory/backend-dine/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "dine")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("disconnect mongodb")
		}
	}()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	sessions := &session.RedisStore{Client: redisClient, TTL: cfg.SessionTTL}
	tracker := &session.Tracker{Store: sessions}

	bus := &events.Bus{
		Store:     &events.MongoStore{C: db.Collection(store.ColEvents)},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	menuSvc := &menu.Service{
		Repo:      &menu.MongoRepo{DB: db},
		Cache:     menu.NewCache(redisClient, cfg.MenuCacheTTL),
		Validator: validate,
	}
	menuHandler := &menu.Handler{Svc: menuSvc}

	userSvc := &user.Service{
		Repo:      user.NewMongoRepo(db, store.ColUsers),
		Sessions:  sessions,
		Validator: validate,
	}
	userHandler := user.NewHandler(userSvc)
	requireSession := user.RequireSession(userSvc)

	cartSvc := &cart.Service{Sessions: sessions, Tracker: tracker, Log: logger}
	cartHandler := &cart.Handler{Svc: cartSvc, TaxBps: cfg.TaxRateBPS}

	orderRepo := &order.MongoRepo{C: db.Collection(store.ColOrders)}
	orderSvc := &order.Service{
		Carts:    cartSvc,
		Creator:  orderRepo,
		Sessions: sessions,
		Tracker:  tracker,
		Events:   bus,
		TaxBps:   cfg.TaxRateBPS,
	}
	orderHandler := &order.Handler{Svc: orderSvc, History: orderRepo}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	loginLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:login:"},
		Config: ratelimit.Config{
			Key:    clientIP,
			Window: envDurationMillis("RATELIMIT_LOGIN_WINDOW_MS", 60000),
			Max:    envInt("RATELIMIT_LOGIN_MAX", 20),
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	adminKey := security.AdminKey{Key: cfg.AdminAPIKey}
	secHeaders := security.Headers{
		Enable:                envBool("SECURE_HEADERS_ENABLE", true),
		EnableHSTS:            envBool("SECURE_HSTS_ENABLE", false),
		HSTSMaxAge:            envInt("SECURE_HSTS_MAX_AGE", 31536000),
		HSTSIncludeSubdomains: envBool("SECURE_HSTS_INCLUDE_SUBDOMAINS", true),
	}
	bodyLimit := security.BodyLimit{Max: cfg.BodyLimitBytes}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(obs.RoutePatternMiddleware)
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(secHeaders.Middleware)
	r.Use(bodyLimit.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-User-ID", "X-Admin-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		pprofUser := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pprofPass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), pprofUser, pprofPass))
	}

	healthHandler := health.Handler{
		Checker:      health.DepsChecker{Mongo: db.Client(), Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/menu", menuHandler.List)
		v.Route("/admin/menu", func(admin chi.Router) {
			admin.Use(adminKey.Middleware)
			admin.Use(idem.Middleware)
			admin.Post("/", menuHandler.Create)
			admin.Put("/{id}", menuHandler.Update)
			admin.Delete("/{id}", menuHandler.Delete)
		})

		v.With(loginLimit.Middleware).Post("/users/login", userHandler.Login)
		v.With(requireSession).Post("/users/logout", userHandler.Logout)

		v.Route("/cart", func(c chi.Router) {
			c.Use(requireSession)
			c.Get("/", cartHandler.Get)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{itemId}", cartHandler.ChangeQuantity)
			c.Delete("/", cartHandler.Clear)
		})

		v.Group(func(s chi.Router) {
			s.Use(requireSession)
			s.With(idem.Middleware).Post("/orders", orderHandler.Submit)
			s.Get("/orders", orderHandler.List)
			s.Get("/orders/{orderId}", orderHandler.Get)
			s.Get("/bill", orderHandler.Bill)
			s.With(idem.Middleware).Post("/payments", orderHandler.Pay)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		health.SetReady(false)
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer drainCancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func clientIP(r *http.Request) string {
	// middleware.RealIP has already rewritten RemoteAddr from the
	// forwarding headers by the time this runs.
	return r.RemoteAddr
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
