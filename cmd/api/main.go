package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"go.uber.org/zap"

	"github.com/matsalen/desafio-procion/internal/catalog"
	"github.com/matsalen/desafio-procion/internal/config"
	"github.com/matsalen/desafio-procion/internal/database"
	orderevents "github.com/matsalen/desafio-procion/internal/events"
	"github.com/matsalen/desafio-procion/internal/handlers"
	"github.com/matsalen/desafio-procion/internal/logging"
	"github.com/matsalen/desafio-procion/internal/metrics"
	"github.com/matsalen/desafio-procion/internal/orders"
	"github.com/matsalen/desafio-procion/internal/receipt"
)

func main() {
	cfg, envErr := config.Load()
	logger, flush := logging.Init(logging.Options{Mode: cfg.LogMode, Filename: cfg.LogFile})
	defer flush()
	if envErr != nil {
		logger.Warn(".env not loaded", zap.Error(envErr))
	}

	db, err := database.Open(database.Options{Type: cfg.DatabaseType, DSN: cfg.DatabaseURL, Debug: cfg.DatabaseLog})
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	pub, closePub, err := newPublisher(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to init event publisher", zap.Error(err))
	}
	defer closePub()
	dispatcher := orderevents.NewDispatcher(pub, cfg.EventTimeout)
	defer dispatcher.Close()

	r := handlers.NewRouter(handlers.HandlerConfig{
		Customers:      catalog.NewCustomerService(db),
		Products:       catalog.NewProductService(db),
		Orders:         orders.NewStore(db, cfg.DefaultPaymentMethod),
		Receipts:       receipt.NewRenderer(cfg.StoreName, cfg.CurrencySymbol),
		Events:         dispatcher,
		Metrics:        metrics.NewServerMetrics("api"),
		RequestTimeout: cfg.RequestTimeout,
	})

	// RUN_LOCAL=true serves HTTP directly instead of running behind API Gateway.
	if cfg.RunLocal {
		srv := &http.Server{
			Addr:         cfg.Addr(),
			Handler:      r,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			logger.Info("running local server", zap.String("addr", srv.Addr), zap.String("db", cfg.DatabaseType))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("failed to run local server", zap.Error(err))
			}
		}()

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := adapter.ProxyWithContext(ctx, req)
		// the runtime may freeze once we return, so flush pending events first
		dispatcher.Close()
		return resp, err
	})
}
