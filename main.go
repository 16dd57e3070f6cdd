package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/titto/titto-backend/handlers"
	"github.com/titto/titto-backend/internal/auth"
	"github.com/titto/titto-backend/internal/config"
	"github.com/titto/titto-backend/internal/qna"
	"github.com/titto/titto-backend/internal/storage"
	"github.com/titto/titto-backend/internal/store"
	"github.com/titto/titto-backend/internal/users"
	"github.com/titto/titto-backend/pkg/logger"
	"github.com/titto/titto-backend/pkg/metrics"
	"github.com/titto/titto-backend/pkg/middleware"
)

var startTime = time.Now()

// deps are the runtime services the router is built from. Optional ones are nil.
type deps struct {
	cfg      *config.Config
	backend  store.Backend
	verifier middleware.Verifier
	redis    *redis.Client
	images   storage.ImageStore
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: storage=%s keycloak=%v redis=%v minio=%v", cfg.Storage.Driver, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}
	defer func() { _ = backend.Close(context.Background()) }()

	d := deps{cfg: cfg, backend: backend, verifier: buildVerifier(ctx, cfg)}

	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
		} else {
			logger.Infof("connected to Redis: %s", cfg.Redis.Addr())
		}
		d.redis = client
		defer client.Close()
	}

	if cfg.MinIO.Endpoint != "" {
		images, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("image uploads disabled: %v", err)
		} else {
			d.images = images
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := setupRouter(d)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting board service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// buildVerifier chains every configured verifier: Keycloak OIDC first, then
// HS256 tokens, then the unsigned integration mode.
func buildVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	var chain auth.Chain
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" {
		issuer := auth.KeycloakIssuer(cfg.Keycloak.URL, cfg.Keycloak.Realm)
		v, err := auth.NewOIDCVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			chain = append(chain, v)
		}
	}
	if cfg.JWT.Secret != "" {
		v, err := auth.NewJWTVerifier(cfg.JWT.Secret)
		if err != nil {
			logger.Warnf("failed to initialize JWT verifier: %v", err)
		} else {
			chain = append(chain, v)
		}
	}
	if cfg.JWT.AllowInsecure {
		logger.Warn("enabling insecure token verifier (integration mode)")
		chain = append(chain, auth.NewInsecureVerifier())
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}

func setupRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(d.cfg.Server.AllowedOrigins) == 0 || d.cfg.Server.AllowedOrigins[0] == "*" {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = d.cfg.Server.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// per-subject when authenticated, otherwise per-IP
	if d.cfg.RateLimit.Enabled {
		if d.cfg.RateLimit.UseRedis && d.redis != nil {
			win := time.Duration(d.cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.redis, d.cfg.RateLimit.RPS, d.cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(d.cfg.RateLimit.RPS, d.cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		ready, status := checkReady(c.Request.Context(), d)
		code, label := http.StatusOK, "ready"
		if !ready {
			code, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(code, gin.H{"status": label, "deps": status, "uptime": time.Since(startTime).String()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	var authMW gin.HandlerFunc
	if d.verifier != nil {
		authMW = middleware.AuthMiddleware(d.verifier)
	} else {
		logger.Warn("no token verifier configured; write endpoints answer 503")
	}

	board := handlers.NewBoardHandler(
		qna.NewQuestionService(d.backend),
		qna.NewAnswerService(d.backend),
		users.NewService(d.backend.Users()),
		d.images,
		d.cfg.Views,
	)
	board.Register(r.Group("/api"), authMW)
	board.RegisterProfile(r.Group("/api/v1"), authMW)
	return r
}

// checkReady reports ready only when storage answers and, when Redis backs
// the rate limiter, Redis answers too.
func checkReady(ctx context.Context, d deps) (bool, map[string]bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ready := true
	out := map[string]bool{"oidc": d.verifier != nil || d.cfg.Keycloak.URL == ""}
	if !out["oidc"] {
		ready = false
	}

	out["storage"] = d.backend.Ping(ctx) == nil
	if !out["storage"] {
		ready = false
	}

	if d.cfg.RateLimit.Enabled && d.cfg.RateLimit.UseRedis {
		out["redis"] = d.redis != nil && d.redis.Ping(ctx).Err() == nil
		if !out["redis"] {
			ready = false
		}
	}
	out["images"] = d.images != nil
	return ready, out
}
