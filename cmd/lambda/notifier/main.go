package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/config"
	"github.com/example/fairway-commerce/internal/email"
	"github.com/example/fairway-commerce/internal/infrastructure/msk"
	"github.com/example/fairway-commerce/internal/logging"
	"github.com/example/fairway-commerce/internal/notification"
)

var (
	notificationHandler *notification.Handler
	logger              *zap.Logger
)

func init() {
	cfg, err := config.Load(os.Getenv("FAIRWAY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Lambda Notifier] %v\n", err)
		os.Exit(1)
	}

	logger, err = logging.New(cfg.Log, "lambda-notifier")
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Lambda Notifier] %v\n", err)
		os.Exit(1)
	}

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	notificationHandler = notification.NewHandler(emailSvc, logger)

	logger.Info("initialized", zap.String("smtp", cfg.SMTP.Host+":"+cfg.SMTP.Port))
}

// handler delivers one MSK trigger batch. Notifications are best-effort, so
// undecodable records and delivery failures are logged rather than retried.
func handler(ctx context.Context, event events.KafkaEvent) error {
	records, errs := msk.BatchConvertFromKafkaEvent(event)
	for _, err := range errs {
		logger.Warn("skipping record", zap.Error(err))
	}

	failed := 0
	for _, r := range records {
		if err := notificationHandler.HandleMessage(ctx, r.Key, r.Value); err != nil {
			failed++
			logger.Error("failed to deliver notification", zap.String("record", r.ID()), zap.Error(err))
		}
	}

	logger.Info("batch processed",
		zap.Int("records", len(records)+len(errs)),
		zap.Int("delivered", len(records)-failed),
	)
	return nil
}

func main() {
	defer logger.Sync()
	lambda.Start(handler)
}
