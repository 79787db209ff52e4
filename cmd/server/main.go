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

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmarkin/bookstore/internal/config"
	"github.com/dmarkin/bookstore/internal/es"
	"github.com/dmarkin/bookstore/internal/events"
	"github.com/dmarkin/bookstore/internal/handlers"
	"github.com/dmarkin/bookstore/internal/httpserver"
	"github.com/dmarkin/bookstore/internal/logging"
	"github.com/dmarkin/bookstore/internal/mailer"
	authmw "github.com/dmarkin/bookstore/internal/middleware/auth"
	loggingmw "github.com/dmarkin/bookstore/internal/middleware/logging"
	"github.com/dmarkin/bookstore/internal/repo"
	"github.com/dmarkin/bookstore/internal/session"
	"github.com/dmarkin/bookstore/internal/storage"
	"github.com/dmarkin/bookstore/internal/view"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	// search, events and image storage are optional collaborators: the shop
	// keeps serving without them
	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		if esClient, err = es.NewClient(configuration); err != nil {
			logger.Warn("elasticsearch unavailable, search disabled", "error", err)
			esClient = nil
		}
	} else {
		logger.Warn("elasticsearch url not set, search disabled")
	}

	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer(configuration.KAFKA_ADDRESS)
	} else {
		logger.Warn("kafka address not set, events disabled")
	}

	var images *storage.ImageStore
	if configuration.S3_BUCKET != "" {
		if images, err = storage.New(context.Background(), configuration); err != nil {
			logger.Warn("image store unavailable, uploads disabled", "error", err)
			images = nil
		}
	} else {
		logger.Warn("s3 bucket not set, uploads disabled")
	}

	renderer, err := view.New()
	if err != nil {
		log.Fatalf("template init failed: %v", err)
	}

	r := repo.New(db)
	sessions := &session.Manager{DB: db, Secret: []byte(configuration.SESSION_SECRET)}
	resolver := &authmw.Resolver{Sessions: sessions, Repo: r}
	contactMail := &mailer.Mailer{
		Addr: configuration.SMTP_ADDR,
		From: configuration.SMTP_FROM,
		To:   configuration.CONTACT_EMAIL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Static("/static", "web/static")

	books := &handlers.BookHandler{
		Repo:     r,
		Sessions: sessions,
		Producer: producer,
		ES:       esClient,
		ESIndex:  es.BookIndex,
	}
	if images != nil {
		books.Images = images
	}

	deps := httpserver.Deps{
		Resolver: resolver,
		Auth: &handlers.AuthHandler{
			Repo:           r,
			Sessions:       sessions,
			Producer:       producer,
			AdminAllowlist: configuration.AdminAllowlist(),
		},
		Books: books,
		Cart:     &handlers.CartHandler{Repo: r, Sessions: sessions, Producer: producer},
		Checkout: &handlers.CheckoutHandler{Repo: r, Sessions: sessions, Producer: producer},
		Pages:    &handlers.PageHandler{Repo: r, Sessions: sessions, Mailer: contactMail},
		Search:   &handlers.SearchHandler{ES: esClient, Index: es.BookIndex, Sessions: sessions},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", configuration.HTTP_ADDR)
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
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
