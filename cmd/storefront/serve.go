package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Frankish0014/baho-coffee-sub000/internal/config"
	"github.com/Frankish0014/baho-coffee-sub000/internal/gateway"
	"github.com/Frankish0014/baho-coffee-sub000/internal/handlers"
	"github.com/Frankish0014/baho-coffee-sub000/internal/service"
	sharedHTTP "github.com/Frankish0014/baho-coffee-sub000/internal/shared/http"
	"github.com/Frankish0014/baho-coffee-sub000/internal/shared/messaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"
)

var (
	leadRequestsPerMinute int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the storefront HTTP API.

Emails are delivered by in-process workers, or published to RabbitMQ for the
notifier command when RABBITMQ_URL is set. Stale card orders are reconciled
in the background when RECONCILE_INTERVAL is greater than zero.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&leadRequestsPerMinute, "lead-rate", 10, "contact and quotation requests allowed per client per minute")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("🚀 Storefront service starting...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.initialize(ctx); err != nil {
		return err
	}

	rabbitClient := startEmailDelivery(app)
	if rabbitClient != nil {
		defer rabbitClient.Close()
	}

	if cfg.Payments.ReconcileInterval > 0 {
		go app.reconciliation().RunEvery(ctx, cfg.Payments.ReconcileInterval)
	}

	server := newServer(app)

	// Graceful shutdown setup
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Storefront service closing...")
		cancel()
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("🌍 Storefront service working: http://localhost:%s", cfg.Port)
	return server.Listen(":" + cfg.Port)
}

// newServer wires the services into the HTTP handlers.
func newServer(app *application) *fiber.App {
	cfg := app.cfg

	checkoutService := service.NewCheckoutService(app.payments, app.gateway, app.notifier, app.templates, cfg.Bank, cfg.Payments.Currency)
	webhookService := service.NewWebhookService(gateway.NewWebhookVerifier(cfg.Payments.WebhookSecret), app.payments, app.notifier, app.templates)
	leadService := service.NewLeadService(app.leads, app.notifier, app.templates)

	paymentHandler := handlers.NewPaymentHandler(checkoutService, webhookService)
	leadHandler := handlers.NewLeadHandler(leadService)
	healthHandler := handlers.NewHealthHandler("storefront", handlers.Components{
		Storage:  storageBackend(app),
		Leads:    app.leads.Backend(),
		Payments: app.gateway.Configured(),
		Webhooks: cfg.Payments.WebhookSecret != "",
		Email:    app.notifier.Configured(),
	})

	server := setupFiberApp(cfg)
	setupRoutes(server, paymentHandler, leadHandler, healthHandler)
	return server
}

// startEmailDelivery picks the queue when RabbitMQ is reachable and falls
// back to in-process workers otherwise.
func startEmailDelivery(app *application) *messaging.RabbitMQClient {
	queue := app.cfg.Queue
	email := app.cfg.Email

	if queue.RabbitMQURL != "" {
		client := messaging.NewRabbitMQClient(messaging.NewRabbitMQConfig(queue.RabbitMQURL, queue.Exchange, queue.Queue))
		if err := client.Connect(); err != nil {
			log.Printf("RabbitMQ connection error, using in-process email workers: %v", err)
		} else {
			app.notifier.UseQueue(messaging.NewPublisher(client))
			log.Printf("Emails published to RabbitMQ: Exchange=%s", queue.Exchange)
			return client
		}
	}

	app.notifier.StartWorkers(email.Workers, email.QueueSize, email.RatePerSecond)
	log.Printf("Email workers started: Workers=%d QueueSize=%d RatePerSecond=%.1f",
		email.Workers, email.QueueSize, email.RatePerSecond)
	return nil
}

func storageBackend(app *application) string {
	if app.payments.Configured() {
		return "postgres"
	}
	return "none"
}

func setupFiberApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Storefront Service v1.0",
		ErrorHandler: errorHandler,
	})

	// Middlewares
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID,Stripe-Signature",
	}))

	return app
}

func setupRoutes(app *fiber.App, paymentHandler *handlers.PaymentHandler, leadHandler *handlers.LeadHandler, healthHandler *handlers.HealthHandler) {
	api := app.Group("/api")

	// Health check
	api.Get("/health", healthHandler.HealthCheck)

	// Payment routes
	payments := api.Group("/payments")
	payments.Post("/create-intent", paymentHandler.CreateIntent) // POST /api/payments/create-intent
	payments.Post("/bank-transfer", paymentHandler.CreateBankTransfer)
	payments.Post("/confirm", paymentHandler.Confirm)
	payments.Post("/webhook", paymentHandler.Webhook)
	payments.Get("/:order_id", paymentHandler.GetPaymentByOrderID) // GET /api/payments/:order_id

	// Lead routes
	leadLimit := limiter.New(limiter.Config{
		Max:        leadRequestsPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return sharedHTTP.ErrorResponse(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "Too many submissions, please try again later", nil)
		},
	})
	api.Post("/contact", leadLimit, leadHandler.Contact)
	api.Post("/quotation", leadLimit, leadHandler.Quotation)

	// Route not found
	app.Use("*", func(c *fiber.Ctx) error {
		return sharedHTTP.NotFoundResponse(c, "Route not found")
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	log.Printf("Error: %v", err)

	return sharedHTTP.ErrorResponse(c, code, "HTTP_ERROR", message, nil)
}
