package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"restaurant-orders/internal/client"
	"restaurant-orders/internal/config"
	"restaurant-orders/internal/console"
	"restaurant-orders/internal/database"
	"restaurant-orders/internal/database/gormstore"
	"restaurant-orders/internal/logger"
	"restaurant-orders/internal/messaging"
	"restaurant-orders/internal/metrics"
	"restaurant-orders/internal/models"
	"restaurant-orders/internal/ratelimit"
	"restaurant-orders/internal/services/notification"
	"restaurant-orders/internal/services/order"
	"restaurant-orders/internal/services/tracking"
)

type options struct {
	configFile    string
	port          int
	maxConcurrent int
	seed          bool
	menuFile      string
	localSync     bool
}

func main() {
	var opts options
	mode := flag.String("mode", "", "Service mode (order-service, console, menu-sync, notification-subscriber)")
	flag.StringVar(&opts.configFile, "config", "config.yaml", "Path to the configuration file")
	flag.IntVar(&opts.port, "port", 0, "HTTP port (overrides http.port)")
	flag.IntVar(&opts.maxConcurrent, "max-concurrent", 50, "Maximum concurrent RPC requests")
	flag.BoolVar(&opts.seed, "seed", false, "Load the sample menu when the catalog is empty")
	flag.StringVar(&opts.menuFile, "menu-file", "", "YAML menu used by menu-sync instead of the upstream service")
	flag.BoolVar(&opts.localSync, "local-sync", false, "Console: store the fetched menu in the local database")
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if opts.port == 0 {
		opts.port = cfg.HTTP.Port
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":           *mode,
		"port":           opts.port,
		"max_concurrent": opts.maxConcurrent,
		"db_driver":      cfg.Database.Driver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch *mode {
	case "order-service":
		runErr = runOrderService(ctx, cfg, log, opts)
	case "console":
		runErr = runConsole(ctx, cfg, log, opts, os.Stdin, os.Stdout)
	case "menu-sync":
		runErr = runMenuSync(ctx, cfg, log, opts)
	case "notification-subscriber":
		runErr = runNotificationSubscriber(ctx, cfg, log)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, runErr, nil)
		os.Exit(1)
	}
	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

// openStore connects the store selected by database.driver
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (order.Store, func(), error) {
	requestID := logger.GenerateRequestID()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL(), log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)
		return database.NewStore(db), db.Close, nil

	case config.DriverGormPostgres, config.DriverSQLite:
		dsn := cfg.DatabaseURL()
		if cfg.Database.Driver == config.DriverSQLite {
			dsn = gormstore.SQLiteDSN(cfg.Database.Path)
		}
		s, err := gormstore.Open(ctx, cfg.Database.Driver, dsn, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Info("db_connected", "Connected to database", requestID, map[string]interface{}{
			"driver": cfg.Database.Driver,
		})
		return s, func() { s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

// runOrderService serves the envelope endpoint and the RPC queue
func runOrderService(ctx context.Context, cfg *config.Config, log *logger.Logger, opts options) error {
	requestID := logger.GenerateRequestID()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()
	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	publisher := messaging.NewPublisher(conn, log)
	m := metrics.New()
	service := order.NewService(store, publisher, m, log)

	if opts.seed {
		seeded, err := service.SeedMenu(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed menu: %w", err)
		}
		log.Info("menu_seeded", "Checked sample menu", requestID, map[string]interface{}{"seeded": seeded})
	}

	var accounts gin.Accounts
	if cfg.HTTP.Username != "" {
		accounts = gin.Accounts{cfg.HTTP.Username: cfg.HTTP.Password}
	}
	lookups := tracking.NewHandler(tracking.NewService(service, log), log)

	gin.SetMode(gin.ReleaseMode)
	handler := order.NewHandler(service, m, log)
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", opts.port),
		Handler: handler.SetupRoutes(order.RouterConfig{
			Endpoint: cfg.HTTP.Endpoint,
			Accounts: accounts,
			Limiter:  ratelimit.New(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst, 10*time.Minute),
			Health:   service.HealthCheck,
		}, lookups.RegisterRoutes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	consumer := messaging.NewConsumer(conn, log, conn.RPCQueue(), "order-service", opts.maxConcurrent)
	rpc := order.NewRPCServer(service, m, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("service_started", fmt.Sprintf("Order Service started on port %d", opts.port), requestID, map[string]interface{}{
			"port":     opts.port,
			"endpoint": cfg.HTTP.Endpoint,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("service_started", "RPC server consuming requests", requestID, map[string]interface{}{
			"queue": conn.RPCQueue(),
		})
		return consumer.ServeRPC(gctx, publisher, rpc.Handle)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("graceful_shutdown", "Shutting down order service", requestID, nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		consumer.Close()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newClient builds the restaurant client; the closer releases the RPC connection
func newClient(cfg *config.Config, log *logger.Logger) (client.RestaurantClient, func(), error) {
	if cfg.Client.Transport != config.TransportRPC {
		c, err := client.New(cfg.Client, nil)
		return c, func() {}, err
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize messaging: %w", err)
	}
	caller, err := messaging.NewRPCClient(conn, log)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	c, err := client.New(cfg.Client, caller)
	if err != nil {
		caller.Close()
		conn.Close()
		return nil, nil, err
	}
	return c, func() {
		caller.Close()
		conn.Close()
	}, nil
}

func withTimeout(ctx context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.Client.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.Client.Timeout)
}

// runConsole reads orders from in and submits them through the configured client
func runConsole(ctx context.Context, cfg *config.Config, log *logger.Logger, opts options, in io.Reader, out io.Writer) error {
	c, closeClient, err := newClient(cfg, log)
	if err != nil {
		return err
	}
	defer closeClient()

	con := console.New(c, out, log, cfg.Client.Timeout, cfg.Client.MaxAttempts)
	dishes, err := con.FetchMenu(ctx)
	if err != nil {
		return err
	}

	if opts.localSync {
		if err := syncLocal(ctx, cfg, log, dishes); err != nil {
			return err
		}
	}

	con.PrintMenu(dishes)
	return con.Run(ctx, dishes, in)
}

// runMenuSync replaces the catalog with the upstream menu or a menu file
func runMenuSync(ctx context.Context, cfg *config.Config, log *logger.Logger, opts options) error {
	var (
		dishes      []models.Dish
		c           client.RestaurantClient
		closeClient func()
		err         error
	)
	if opts.menuFile != "" {
		dishes, err = config.LoadMenu(opts.menuFile)
		if err != nil {
			return err
		}
	} else {
		c, closeClient, err = newClient(cfg, log)
		if err != nil {
			return err
		}
		defer closeClient()

		fetchCtx, cancel := withTimeout(ctx, cfg)
		dishes, err = c.FetchDishes(fetchCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to fetch menu: %w", err)
		}
	}
	return syncLocal(ctx, cfg, log, dishes)
}

func syncLocal(ctx context.Context, cfg *config.Config, log *logger.Logger, dishes []models.Dish) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	service := order.NewService(store, nil, metrics.New(), log)
	if err := service.SyncMenu(ctx, dishes); err != nil {
		return fmt.Errorf("failed to sync menu: %w", err)
	}
	return nil
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", 10)
	defer consumer.Close()

	return notification.NewSubscriber(consumer, os.Stdout, log).Start(ctx)
}
