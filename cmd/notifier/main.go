package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/core"
	"github.com/example/storefront/internal/db"
	"github.com/example/storefront/internal/notify"
	"github.com/example/storefront/pkg/mailer"
	"github.com/example/storefront/pkg/messagequeue"
)

// The notifier consumes order.placed events and mails the order confirmation.
func main() {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file loaded:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer logger.Sync()

	if appConfig.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the notifier")
	}

	mail, err := mailer.New(mailer.Config{
		Host: appConfig.SMTPHost,
		Port: strconv.Itoa(appConfig.SMTPPort),
		User: appConfig.SMTPUser,
		Pass: appConfig.SMTPPass,
		From: appConfig.MailFrom,
	})
	if err != nil {
		logger.Fatal("Invalid SMTP configuration", zap.Error(err))
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	opened, err := db.Open(initCtx, appConfig.StoreOptions(false), logger)
	cancelInit()
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer opened.Store.Close()

	mq, err := messagequeue.NewRabbitMQService(messagequeue.RabbitMQConfig{URL: appConfig.AMQPURL}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mq.Close()

	notifier := notify.New(core.NewUserService(opened.Store, logger), mail, appConfig.Currency, logger)
	events := messagequeue.NewOrderEvents(mq, appConfig.OrderEventsQueue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Notifier started", zap.String("queue", appConfig.OrderEventsQueue))
	if err := events.ConsumeOrderPlaced(ctx, notifier.HandleOrderPlaced); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", zap.Error(err))
	}
	logger.Info("Notifier exiting")
}
