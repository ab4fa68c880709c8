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

	"github.com/studentmart/backend/internal/config"
	"github.com/studentmart/backend/internal/es"
	"github.com/studentmart/backend/internal/events"
	"github.com/studentmart/backend/internal/handlers"
	"github.com/studentmart/backend/internal/logging"
	loggingmw "github.com/studentmart/backend/internal/middleware/logging"
	"github.com/studentmart/backend/internal/payments"
	"github.com/studentmart/backend/internal/service/token"
	httpserver "github.com/studentmart/backend/internal/transport/http"
	"github.com/studentmart/backend/internal/uploads"
)

const projectIndex = "projects"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var producer events.Publisher = events.Noop{}
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer(config.CSV(configuration.KAFKA_ADDRESS))
	}

	projectHandler := &handlers.ProjectHandler{DB: db, Producer: producer, Index: projectIndex}
	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		projectHandler.ES = esClient
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: projectIndex}
	}

	var signer uploads.Signer = uploads.StaticSigner{}
	if os.Getenv("AWS_ACCESS_KEY_ID") != "" {
		s3Signer, err := uploads.NewS3Signer(
			context.Background(),
			configuration.S3_REGION,
			configuration.S3_BUCKET,
			configuration.CDN_BASE_URL,
		)
		if err != nil {
			log.Fatal(err)
		}
		signer = s3Signer
	}

	var razorpay payments.RazorpayClient = payments.RazorpayMock{}
	var stripe payments.StripeClient = payments.StripeMock{}
	if key := os.Getenv("RAZORPAY_KEY_ID"); key != "" {
		razorpay = payments.NewRazorpayHTTP(key, os.Getenv("RAZORPAY_KEY_SECRET"))
	}
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		stripe = payments.NewStripeHTTP(key)
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:         &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		ProjectHandler:      projectHandler,
		OrderHandler:        &handlers.OrderHandler{DB: db, Producer: producer},
		RequestHandler:      &handlers.RequestHandler{DB: db, Producer: producer},
		NotificationHandler: &handlers.NotificationHandler{DB: db},
		PaymentHandler:      &handlers.PaymentHandler{DB: db, Razorpay: razorpay, Stripe: stripe, Producer: producer},
		UploadHandler:       &handlers.UploadHandler{Signer: signer},
		UserHandler:         &handlers.UserHandler{DB: db},
		AdminHandler:        &handlers.AdminHandler{DB: db},
		SearchHandler:       searchHandler,
		Tokens:              tokens,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

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

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
