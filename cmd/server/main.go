package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delegatebooking/config"
	_ "delegatebooking/docs"
	"delegatebooking/internal/adapters/auth"
	"delegatebooking/internal/adapters/email"
	"delegatebooking/internal/adapters/queue"
	"delegatebooking/internal/adapters/session"
	httpdelivery "delegatebooking/internal/delivery/http"
	"delegatebooking/internal/delivery/http/controllers"
	"delegatebooking/internal/delivery/http/middleware"
	"delegatebooking/internal/metrics"
	"delegatebooking/internal/repository/postgres"
	"delegatebooking/internal/services"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const (
	serviceTimeout = 10 * time.Second
	// sweepGrace covers the gap between a staging write and the session save after it.
	sweepGrace = 10 * time.Minute
)

// @title Delegate Booking API
// @version 1.0
// @description Stages delegate registrations in a cart and commits them into bookings.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()
	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	publisher, err := queue.NewPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.AWSRegion,
			AccessKeyID:     cfg.Email.AWSAccessKeyID,
			SecretAccessKey: cfg.Email.AWSSecretAccessKey,
		},
	}, logger)
	if err != nil {
		return err
	}
	emails := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	consumer := queue.NewConsumer(cfg.RabbitMQURL, emails, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification consumer stopped", "err", err)
		}
	}()

	m := metrics.New(prometheus.DefaultRegisterer)
	events := postgres.NewEventRepository(db)
	stores := postgres.NewStores(db)
	tx := postgres.NewTxRunner(db)
	dispatcher := services.NewNotificationDispatcher(publisher, cfg.CoordinatorNotificationEmail, logger, m)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewJWTIssuer(cfg.JWTSecret)

	carts := services.NewCartService(events, stores, tx, dispatcher, hasher, auth.NewPasswordGenerator(), logger, m, serviceTimeout)
	bookings := services.NewBookingService(events, stores, tx, dispatcher, logger, serviceTimeout)
	sessions := session.NewRedisCartStore(rdb, cfg.CartSessionTTL)
	sweeper := services.NewStagingSweeper(postgres.NewCartSweeper(db), cfg.CartSessionTTL+sweepGrace, cfg.CartSweepInterval, logger)
	go sweeper.Run(ctx)

	cartController := controllers.NewCartController(logger, carts, bookings, sessions, tokens, cfg.BookingTokenTTL)
	bookingController := controllers.NewBookingController(logger, bookings, hasher, tokens, cfg.BookingTokenTTL)
	mux := httpdelivery.NewRouter(cartController, bookingController, auth.NewJWTVerifier(cfg.JWTSecret), promhttp.Handler(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Environment)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
