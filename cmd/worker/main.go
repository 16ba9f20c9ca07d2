package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrunmayeeCom/Tally-Connector/auth"
	"github.com/MrunmayeeCom/Tally-Connector/broker"
	"github.com/MrunmayeeCom/Tally-Connector/checkout"
	"github.com/MrunmayeeCom/Tally-Connector/db"
	"github.com/MrunmayeeCom/Tally-Connector/directory"
	"github.com/MrunmayeeCom/Tally-Connector/external"
	"github.com/MrunmayeeCom/Tally-Connector/license"
	"github.com/MrunmayeeCom/Tally-Connector/payment"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time injected variables
var (
	Version = ""
)

func main() {
	var logger *zap.Logger
	var authEnvironment auth.Environment
	var dotFile string
	var err error

	// Determine running environment and initialize structural logger
	env := os.Getenv("ENV")
	if "production" == env {
		dotFile = ".env.production"
		authEnvironment = auth.EnvProduction
		logger, err = zap.NewProduction()
	} else {
		dotFile = ".env.development"
		authEnvironment = auth.EnvDevelopment
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		log.Fatalf("Cannot initialize logger: %v\n", err)
	}
	logger = logger.With(zap.String("Version", Version))

	// Initialize sentry for error reporting
	if err := sentry.Init(sentry.ClientOptions{
		Environment: string(authEnvironment),
		Debug:       authEnvironment == auth.EnvDevelopment,
	}); err != nil {
		log.Fatal("Cannot initialize sentry",
			zap.Error(err),
		)
	}
	defer sentry.Flush(time.Second * 2)

	// Attach sentry to zap so we can do automatic error capturing
	cfg := zapsentry.Configuration{
		Level: zapcore.ErrorLevel,
		Tags: map[string]string{
			"component": "worker",
		},
	}
	core, err := zapsentry.NewCore(cfg, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	logger = zapsentry.AttachCoreToLogger(core, logger)

	defer logger.Sync()

	// Load configurations from dotFile
	if err := godotenv.Load(dotFile); err != nil {
		logger.Fatal("Cannot load configurations from .env",
			zap.Error(err),
		)
	}

	// Initialize backend connections
	dbInstance, err := db.New(db.Options{
		URI:    os.Getenv("POSTGRES_URI"),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot connect to Postgres",
			zap.Error(err),
		)
	}

	amqpBroker, err := broker.NewAMQPBroker(logger, os.Getenv("AMQP_URI"))
	if err != nil {
		logger.Fatal("Cannot connect to Broker",
			zap.Error(err),
		)
	}
	defer amqpBroker.Close()

	// External collaborators
	licenseClient, err := license.NewClient(license.ClientOptions{
		Client:    external.NewClient(os.Getenv("LICENSE_API_URI"), os.Getenv("LICENSE_API_KEY")),
		ProductID: os.Getenv("PRODUCT_ID"),
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize License client",
			zap.Error(err),
		)
	}

	directoryClient, err := directory.NewClient(directory.ClientOptions{
		Client: external.NewClient(os.Getenv("DIRECTORY_API_URI"), os.Getenv("DIRECTORY_API_KEY")),
		Logger: logger,
		Source: os.Getenv("CUSTOMER_SOURCE"),
	})
	if err != nil {
		logger.Fatal("Cannot initialize Directory client",
			zap.Error(err),
		)
	}

	paymentClient, err := payment.NewClient(payment.ClientOptions{
		Client: external.NewClient(os.Getenv("PAYMENT_API_URI"), os.Getenv("PAYMENT_API_KEY")),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Payment client",
			zap.Error(err),
		)
	}

	checkoutManager, err := checkout.NewManager(checkout.ManagerOptions{
		DB:           dbInstance,
		Directory:    directoryClient,
		Licenses:     licenseClient,
		Gateway:      paymentClient,
		Producer:     amqpBroker,
		Logger:       logger,
		DashboardURL: os.Getenv("DASHBOARD_URL"),
		PendingTTL:   time.Minute * 30,
	})
	if err != nil {
		logger.Fatal("Cannot initialize CheckoutManager",
			zap.Error(err),
		)
	}

	checkoutTask, err := checkout.NewTask(checkout.TaskOptions{
		Manager:  checkoutManager,
		Consumer: amqpBroker,
		Logger:   logger,
		Interval: time.Minute * 5,
	})
	if err != nil {
		logger.Fatal("Cannot get checkout task",
			zap.Error(err),
		)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	if err := checkoutTask.Run(ctx); err != nil {
		logger.Fatal("Cannot run checkout task",
			zap.Error(err),
		)
	}

	logger.Info("Reconciliation worker started")

	<-c
	cancel()

}
