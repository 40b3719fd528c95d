package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/dgraph-io/badger/v4"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/blogservice/internal/auth"
	"github.com/2beens/blogservice/internal/blog"
	"github.com/2beens/blogservice/internal/config"
	"github.com/2beens/blogservice/internal/db"
	"github.com/2beens/blogservice/internal/middleware"
	"github.com/2beens/blogservice/internal/telemetry/metrics"
	"github.com/2beens/blogservice/internal/telemetry/tracing"
	"github.com/2beens/blogservice/pkg"
)

const serviceName = "blog-service"

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	dbPool      *pgxpool.Pool
	badgerDB    *badger.DB
	redisClient *redis.Client
	verifier    auth.Verifier
	blogService *blog.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	JWTSecret               string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	s := &Server{
		config: cfg,
	}

	switch cfg.AuthMode {
	case config.AuthModeSession:
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		s.verifier = auth.NewSessionVerifier(auth.DefaultSessionTTL, s.redisClient)
	default:
		if params.JWTSecret == "" {
			return nil, errors.New("jwt secret not set")
		}
		s.verifier = auth.NewJWTVerifier(params.JWTSecret)
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, serviceName, s.redisClient)
	if err != nil {
		return nil, err
	}
	s.otelShutdown = otelShutdown

	var extraCollectors []prometheus.Collector
	var blogRepo *blog.CachedRepo
	cacheSizeBytes := cfg.CacheSizeMB * 1024 * 1024

	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		connString := db.ConnString(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
		if err := db.Migrate(ctx, connString); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}

		s.dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := s.dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			s.dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
		blogRepo = blog.NewCachedRepo(blog.NewRepo(s.dbPool), cacheSizeBytes, cfg.CacheTTLSeconds)
	case config.StoreBackendBadger:
		if err := pkg.EnsureDir(cfg.BadgerPath); err != nil {
			return nil, fmt.Errorf("badger dir: %w", err)
		}
		s.badgerDB, err = db.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		blogRepo = blog.NewCachedRepo(blog.NewBadgerRepo(s.badgerDB), cacheSizeBytes, cfg.CacheTTLSeconds)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("backend", "blog_service", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0) // set to 1 once serving

	s.blogService = blog.NewService(blogRepo)

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	blogHandler := blog.NewHandler(s.blogService, s.metricsManager)
	blogHandler.SetupRoutes(r)

	r.HandleFunc("/health", handleHealth).Methods("GET").Name("health")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.verifier, blog.RoutePrefix)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteMessage(w, "ok", http.StatusOK)
}

func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, stores are closed after
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if s.badgerDB != nil {
		log.Debugln("closing badger ...")
		if err := s.badgerDB.Close(); err != nil {
			log.Errorf("failed to close badger: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeOpenConnections.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metricsManager.GaugeOpenConnections.Add(-1)
	default:
		// do nothing
	}
}
