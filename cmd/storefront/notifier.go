package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/Frankish0014/baho-coffee-sub000/internal/shared/events"
	"github.com/Frankish0014/baho-coffee-sub000/internal/shared/messaging"
	"github.com/spf13/cobra"
)

const notifierServiceName = "storefront-notifier"

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Deliver queued emails from RabbitMQ",
	Long: `Consume notification events published by "serve" and send them through
SendGrid. Requires RABBITMQ_URL and SENDGRID_API_KEY.`,
	RunE: runNotifier,
}

func runNotifier(cmd *cobra.Command, args []string) error {
	log.Println("🚀 Notifier starting...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Queue.RabbitMQURL == "" {
		return fmt.Errorf("notifier requires RABBITMQ_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	if !app.sender.Configured() {
		return fmt.Errorf("notifier requires SENDGRID_API_KEY and EMAIL_FROM")
	}

	if err := app.notifications.Initialize(ctx); err != nil {
		return err
	}

	client := messaging.NewRabbitMQClient(messaging.NewRabbitMQConfig(cfg.Queue.RabbitMQURL, cfg.Queue.Exchange, cfg.Queue.Queue))
	if err := client.Connect(); err != nil {
		return fmt.Errorf("RabbitMQ connection error: %w", err)
	}
	defer client.Close()

	consumer := messaging.NewConsumer(client, cfg.Queue.Queue, notifierServiceName)
	routingKeys := []string{messaging.RoutingKey(events.NotificationRequestedEvent)}

	log.Printf("🌍 Notifier consuming: Queue=%s RoutingKeys=%v", cfg.Queue.Queue, routingKeys)
	if err := consumer.ConsumeEvents(ctx, routingKeys, app.notifier.HandleEvent); err != nil {
		return fmt.Errorf("RabbitMQ consumption error: %w", err)
	}

	log.Println("🛑 Notifier closing...")
	return nil
}
