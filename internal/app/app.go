package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/unseen32online/UNSEEN.IL/internal/config"
	"github.com/unseen32online/UNSEEN.IL/internal/event"
	handler "github.com/unseen32online/UNSEEN.IL/internal/handler/http"
	"github.com/unseen32online/UNSEEN.IL/internal/notification"
	notifylog "github.com/unseen32online/UNSEEN.IL/internal/notification/log"
	"github.com/unseen32online/UNSEEN.IL/internal/notification/rabbitmq"
	"github.com/unseen32online/UNSEEN.IL/internal/payment"
	"github.com/unseen32online/UNSEEN.IL/internal/payment/hyp"
	"github.com/unseen32online/UNSEEN.IL/internal/payment/mock"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
	"github.com/unseen32online/UNSEEN.IL/internal/repository/memory"
	"github.com/unseen32online/UNSEEN.IL/internal/repository/postgres"
	redisrepo "github.com/unseen32online/UNSEEN.IL/internal/repository/redis"
	"github.com/unseen32online/UNSEEN.IL/internal/service"
	"github.com/unseen32online/UNSEEN.IL/migrations"
	"github.com/unseen32online/UNSEEN.IL/pkg/database"
	"github.com/unseen32online/UNSEEN.IL/pkg/health"
	"github.com/unseen32online/UNSEEN.IL/pkg/httpclient"
	pkgkafka "github.com/unseen32online/UNSEEN.IL/pkg/kafka"
	"github.com/unseen32online/UNSEEN.IL/pkg/middleware"
	"github.com/unseen32online/UNSEEN.IL/pkg/tracing"
)

const processedEventTTL = 7 * 24 * time.Hour

// stores groups the persistence adapters chosen by STORE_DRIVER.
type stores struct {
	orders      repository.OrderRepository
	sequence    repository.OrderNumberSequence
	products    repository.ProductRepository
	carts       repository.CartStore
	idempotency pkgkafka.IdempotencyStore
}

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	amqpConn       *amqp.Connection
	rabbitSender   *rabbitmq.Sender
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// On failure every resource opened so far is released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	healthHandler := health.NewHandler()

	st, err := a.openStores(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	gateway, err := a.newGateway()
	if err != nil {
		return nil, err
	}

	sender, err := a.newSender(healthHandler)
	if err != nil {
		return nil, err
	}

	// Build the dependency graph.
	notifier := notification.NewNotifier(sender, cfg.OwnerEmail, logger)
	confirmations := pkgkafka.IdempotentHandler(st.idempotency,
		event.NewConfirmationHandler(st.orders, notifier, logger).Handle, logger)

	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.NotificationGroupID,
			Topic:    event.TopicOrderStatusChanged,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, confirmations, logger)
		publisher = a.producer
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		inline := event.NewInlinePublisher(logger)
		inline.Subscribe(event.TopicOrderStatusChanged, confirmations)
		publisher = inline
		logger.Info("kafka disabled, delivering order events in process")
	}

	orderService := service.NewOrderService(st.orders,
		service.NewOrderNumberGenerator(cfg.OrderNumberPrefix, st.sequence),
		event.NewProducer(publisher, logger), logger)

	cartService := service.NewCartService(st.carts, st.products, logger)
	checkoutService := service.NewCheckoutService(cartService,
		service.NewCompiler(cfg.ShippingRates(), cfg.StoreCurrency),
		orderService, gateway, cfg.PaymentTimeout, logger)

	router := handler.NewRouter(handler.Services{
		Products:  service.NewProductService(st.products),
		Carts:     cartService,
		Checkout:  checkoutService,
		Orders:    orderService,
		Analytics: service.NewAnalyticsService(st.orders, cfg.AnalyticsTopProducts, cfg.AnalyticsRecentOrders),
	}, healthHandler, handler.RouterConfig{
		AdminToken:      cfg.AdminToken,
		OrdersListMax:   cfg.OrdersListMax,
		RequestTimeout:  cfg.RequestTimeout,
		PprofCIDRs:      cfg.PprofAllowedCIDRs,
		ChargeRateRPS:   cfg.ChargeRateRPS,
		ChargeRateBurst: cfg.ChargeRateBurst,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			ExposedHeaders: []string{middleware.CorrelationHeader, middleware.SessionHeader},
			Environment:    cfg.Environment,
		},
	}, logger)

	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
		// Checkout waits on the payment gateway, so writes get the payment
		// timeout on top of the usual budget.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PaymentTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context, hh *health.Handler) (*stores, error) {
	cfg, logger := a.cfg, a.logger

	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory stores, data is lost on restart")
		return &stores{
			orders:      memory.NewOrderRepository(),
			sequence:    memory.NewSequence(),
			products:    memory.NewProductRepository(memory.SeedCatalog()),
			carts:       memory.NewCartStore(),
			idempotency: pkgkafka.NewMemoryIdempotencyStore(processedEventTTL),
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)
	database.RegisterPoolMetrics(pool, cfg.ServiceName)

	if cfg.RunMigration {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}
	if cfg.SlowQueryMS > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryMS)*time.Millisecond, logger)
	}

	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	logger.Info("connected to Redis",
		slog.String("addr", cfg.Redis().Addr()),
		slog.Int("db", cfg.RedisDB),
	)

	hh.RegisterCritical("postgres", pool.Ping)
	hh.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	return &stores{
		orders:      postgres.NewOrderRepository(pool),
		sequence:    postgres.NewOrderNumberSequence(pool),
		products:    postgres.NewProductRepository(pool),
		carts:       redisrepo.NewCartStore(rdb, cfg.CartSessionPrefix, cfg.CartTTL),
		idempotency: pkgkafka.NewRedisIdempotencyStore(rdb, cfg.ServiceName+":processed_events", processedEventTTL),
	}, nil
}

func (a *App) newGateway() (payment.Gateway, error) {
	cfg := a.cfg
	switch cfg.PaymentProvider {
	case config.PaymentProviderHyp:
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = cfg.PaymentTimeout
		client := httpclient.NewCircuitBreakerClient(httpclient.New(clientCfg), cfg.CircuitBreaker("hyp"), a.logger)
		a.logger.Info("payment provider: hyp", slog.String("endpoint", cfg.HypEndpoint))
		return hyp.NewGateway(hyp.Config{
			Endpoint: cfg.HypEndpoint,
			Terminal: cfg.HypTerminal,
			Username: cfg.HypUsername,
			Password: cfg.HypPassword,
		}, client, a.logger), nil
	case config.PaymentProviderMock:
		a.logger.Warn("payment provider: mock, cards are not charged")
		return mock.NewGateway(), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}

func (a *App) newSender(hh *health.Handler) (notification.Sender, error) {
	if !a.cfg.RabbitMQEnabled {
		return notifylog.NewSender(a.logger), nil
	}

	conn, err := amqp.Dial(a.cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	a.amqpConn = conn

	sender, err := rabbitmq.NewSender(conn, a.cfg.NotificationQueue)
	if err != nil {
		return nil, fmt.Errorf("create notification sender: %w", err)
	}
	a.rabbitSender = sender

	hh.RegisterNonCritical("rabbitmq", func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("rabbitmq connection closed")
		}
		return nil
	})
	a.logger.Info("notifications published to rabbitmq", slog.String("queue", a.cfg.NotificationQueue))
	return sender, nil
}

// Run starts the HTTP server and the confirmation consumer, then blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	consumerDone := make(chan struct{})
	if a.consumer != nil {
		go func() {
			defer close(consumerDone)
			if err := a.consumer.Start(consumerCtx); err != nil {
				a.logger.Error("kafka consumer error", slog.String("error", err.Error()))
			}
		}()
	} else {
		close(consumerDone)
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	stopConsumer()
	<-consumerDone
	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight checkouts)
// 2. Tracer (flush spans from drained requests)
// 3. Kafka producer, RabbitMQ, Redis, PostgreSQL
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.release()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes everything except the HTTP server. Safe on a partially
// built App.
func (a *App) release() []error {
	var errs []error
	logErr := func(what string, err error) {
		if err != nil {
			a.logger.Error(what+" close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		logErr("tracer", a.tracerShutdown(tracerCtx))
		cancel()
		a.tracerShutdown = nil
	}
	if a.producer != nil {
		logErr("kafka producer", a.producer.Close())
		a.producer = nil
	}
	if a.rabbitSender != nil {
		logErr("rabbitmq channel", a.rabbitSender.Close())
		a.rabbitSender = nil
	}
	if a.amqpConn != nil {
		logErr("rabbitmq connection", a.amqpConn.Close())
		a.amqpConn = nil
	}
	if a.rdb != nil {
		logErr("redis", a.rdb.Close())
		a.rdb = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return errs
}
