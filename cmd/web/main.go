package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attenddesk/internal/api"
	"attenddesk/internal/config"
	"attenddesk/internal/httpmiddleware"
	"attenddesk/internal/marker"
	"attenddesk/internal/session"
	"attenddesk/internal/store"
	"attenddesk/internal/webui"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *store.Redis
	if cfg.SessionBackend == "redis" || cfg.MarkQueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
	}

	var kv store.KV
	if cfg.SessionBackend == "redis" {
		kv = store.NewRedisKV(redisClient, "")
	} else {
		kv = store.NewFileKV(cfg.StatePath)
	}

	apiClient := api.New(cfg.APIBaseURL, cfg.APITimeout, cfg.DemoMode)
	if cfg.DemoMode {
		log.Println("DEMO_MODE enabled: serving fixtures, no backend calls will be made")
	}

	sess := session.New(kv, apiClient)
	apiClient.Tokens = sess.Token

	// Restore the cached session before the first request can be served, so
	// the gate never observes a half-restored store.
	if err := sess.Restore(ctx); err != nil {
		log.Printf("warning: session restore failed, starting logged out: %v", err)
	}

	var q marker.Queue
	if cfg.MarkQueueBackend == "redis" {
		q = marker.NewRedisQueue(redisClient.Client, "attenddesk:marks")
	} else {
		q = marker.NewInMemory(64)
	}
	dispatcher := marker.NewDispatcher(q, apiClient, cfg.MarkWorkers)
	go func() {
		if err := dispatcher.Run(ctx); err != nil {
			log.Printf("mark dispatcher stopped: %v", err)
		}
	}()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.NewPerMinute(cfg.RateLimitPerMin).ByClientIP())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		upstreamHealthy := apiClient.Health(c.Request.Context()) == nil
		redisHealthy := redisClient == nil || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !upstreamHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "upstream": upstreamHealthy, "redis": redisHealthy})
	})

	r.LoadHTMLGlob(filepath.Join(cfg.WebDir, "templates", "*.tmpl"))
	r.Static("/static", filepath.Join(cfg.WebDir, "static"))

	loginLimit := httpmiddleware.NewPerMinute(cfg.LoginRatePerMin).ByClientIP()
	webui.New(sess, apiClient, dispatcher).Register(r, loginLimit)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the dispatcher, then give outstanding requests 10 seconds.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
