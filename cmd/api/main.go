package main

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/MrunmayeeCom/Tally-Connector/auth"
	"github.com/MrunmayeeCom/Tally-Connector/broker"
	"github.com/MrunmayeeCom/Tally-Connector/checkout"
	"github.com/MrunmayeeCom/Tally-Connector/db"
	"github.com/MrunmayeeCom/Tally-Connector/directory"
	"github.com/MrunmayeeCom/Tally-Connector/external"
	"github.com/MrunmayeeCom/Tally-Connector/license"
	"github.com/MrunmayeeCom/Tally-Connector/payment"
	"github.com/MrunmayeeCom/Tally-Connector/session"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v7"
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
	env := os.Getenv("API_ENV")
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
			"component": "api",
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

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{os.Getenv("REDIS_URI")},
		Password: os.Getenv("REDIS_PW"),
		DB:       0,
	})
	if _, err := rdb.Ping().Result(); err != nil {
		logger.Fatal("Cannot connect to Redis",
			zap.Error(err),
		)
	}
	defer rdb.Close()

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

	probeCache, err := license.NewProbeCache(license.ProbeCacheOptions{
		Redis:  rdb,
		Logger: logger,
		TTL:    time.Minute,
	})
	if err != nil {
		logger.Fatal("Cannot initialize ProbeCache",
			zap.Error(err),
		)
	}

	sessionManager, err := session.NewManager(session.ManagerOptions{
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize SessionManager",
			zap.Error(err),
		)
	}

	authManager, err := auth.New(auth.Options{
		Logger:        logger,
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		Environment:   authEnvironment,
	})
	if err != nil {
		logger.Fatal("Cannot initialize AuthManager",
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
		ProbeCache:   probeCache,
	})
	if err != nil {
		logger.Fatal("Cannot initialize CheckoutManager",
			zap.Error(err),
		)
	}

	// Service routers
	licenseRouter, err := license.NewService(license.ServiceOptions{
		Client: licenseClient,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize License Service Router",
			zap.Error(err),
		)
	}

	authRouter, err := auth.NewService(auth.ServiceOptions{
		Auth:       authManager,
		Directory:  directoryClient,
		License:    licenseClient,
		Session:    sessionManager,
		Logger:     logger,
		ProbeCache: probeCache,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Auth Service Router",
			zap.Error(err),
		)
	}

	checkoutRouter, err := checkout.NewService(checkout.ServiceOptions{
		Manager: checkoutManager,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Cannot initialize Checkout Service Router",
			zap.Error(err),
		)
	}

	rootRouter := chi.NewRouter()

	rootRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{os.Getenv("SITE_URL")},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	rootRouter.Mount("/plans", licenseRouter.Router())
	rootRouter.Mount("/customers", authRouter.Router())
	rootRouter.Mount("/checkout", checkoutRouter.Router())

	rootRouter.HandleFunc("/pprof/*", pprof.Index)
	rootRouter.HandleFunc("/pprof/cmdline", pprof.Cmdline)
	rootRouter.HandleFunc("/pprof/profile", pprof.Profile)
	rootRouter.HandleFunc("/pprof/symbol", pprof.Symbol)
	rootRouter.HandleFunc("/pprof/trace", pprof.Trace)

	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = ":42069"
	}

	srv := &http.Server{
		Handler: rootRouter,
		Addr:    addr,
	}

	logger.Info("API started",
		zap.String("Addr", addr),
	)

	log.Fatalln(srv.ListenAndServe())

}
