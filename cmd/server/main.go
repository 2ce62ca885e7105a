package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kmerkulov/storefront/internal/config"
	"github.com/kmerkulov/storefront/internal/es"
	"github.com/kmerkulov/storefront/internal/httpserver"
	"github.com/kmerkulov/storefront/internal/logging"
	authmw "github.com/kmerkulov/storefront/internal/middleware/auth"
	loggingmw "github.com/kmerkulov/storefront/internal/middleware/logging"
	"github.com/kmerkulov/storefront/internal/mykafka"
	"github.com/kmerkulov/storefront/internal/repo"
	authsvc "github.com/kmerkulov/storefront/internal/service/auth"
	"github.com/kmerkulov/storefront/internal/service/catalog"
	ordersvc "github.com/kmerkulov/storefront/internal/service/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
	}

	gormRepo := &repo.GormRepo{DB: db}

	authService := &authsvc.AuthService{
		Repo:          gormRepo,
		JWTSecret:     []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
	}
	catalogService := &catalog.CatalogService{Repo: gormRepo}
	orderService := &ordersvc.OrderService{Repo: gormRepo}

	deps := &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authService, Producer: producer},
		ProductHandler: &httpserver.ProductHTTP{Svc: catalogService, Producer: producer},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderService, Producer: producer},
		Guard:          &authmw.Guard{JWTSecret: []byte(cfg.JWTSecret)},
	}

	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		deps.SearchHandler = &httpserver.SearchHTTP{ES: esClient, Index: "product"}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	logger.Info("shutdown complete")
}
