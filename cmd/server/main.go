package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/gobank/internal/adapter/http"
	"github.com/iho/gobank/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gobank/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/gobank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobank/internal/adapter/repository/redis"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/eventpublisher"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/logging"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/infrastructure/redis"
	"github.com/iho/gobank/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	zl := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gobank",
	})
	log.Logger = zl
	zerolog.DefaultContextLogger = &zl

	// Background workers log through slog
	slog.SetDefault(logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat).Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, zl zerolog.Logger) error {
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	}

	a, err := newApp(ctx, cfg, st, redisClient, zl)
	if err != nil {
		return err
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	go func() { _ = a.dispatcher.Start(workerCtx) }()
	go a.sweepLimiters(workerCtx, limiterIdleTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		cancelWorkers()
		return err
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)

	// Stop the dispatcher only once in-flight requests have queued their notifications
	cancelWorkers()
	select {
	case <-a.dispatcher.Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("notification dispatcher did not drain before shutdown timeout")
	}

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// storage is the set of repositories the use cases run on, backed by either
// postgres or the in-memory store.
type storage struct {
	txManager    usecase.TxManager
	retrier      usecase.Retrier
	accounts     usecase.AccountRepository
	cards        usecase.CardRepository
	transactions usecase.TransactionRepository
	loans        usecase.LoanRepository
	deposits     usecase.DepositRepository
	types        usecase.InstrumentTypeRepository
	users        usecase.UserRepository
	credit       usecase.CreditworthinessRepository

	// db is nil for the memory driver.
	db    handler.Pinger
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn().Msg("using in-memory storage; state is lost on restart")
		return newMemoryStorage(memoryRepo.NewStore(cfg.DatabaseLockTimeout)), nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		LockTimeout:    cfg.DatabaseLockTimeout,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	return newPostgresStorage(pool), nil
}

func newPostgresStorage(pool *pgxpool.Pool) *storage {
	return &storage{
		txManager:    postgresRepo.NewTxManager(pool),
		retrier:      postgresRepo.NewRetrier(),
		accounts:     postgresRepo.NewAccountRepository(pool),
		cards:        postgresRepo.NewCardRepository(pool),
		transactions: postgresRepo.NewTransactionRepository(pool),
		loans:        postgresRepo.NewLoanRepository(pool),
		deposits:     postgresRepo.NewDepositRepository(pool),
		types:        postgresRepo.NewInstrumentTypeRepository(pool),
		users:        postgresRepo.NewUserRepository(pool),
		credit:       postgresRepo.NewCreditworthinessRepository(pool),
		db:           pool,
		close:        pool.Close,
	}
}

func newMemoryStorage(store *memoryRepo.Store) *storage {
	return &storage{
		txManager: memoryRepo.NewTxManager(store),
		// Lock timeouts in the memory store surface as domain.ErrConflict, which
		// the retrier treats as retryable.
		retrier:      postgresRepo.NewRetrier(),
		accounts:     memoryRepo.NewAccountRepository(store),
		cards:        memoryRepo.NewCardRepository(store),
		transactions: memoryRepo.NewTransactionRepository(store),
		loans:        memoryRepo.NewLoanRepository(store),
		deposits:     memoryRepo.NewDepositRepository(store),
		types:        memoryRepo.NewInstrumentTypeRepository(store),
		users:        memoryRepo.NewUserRepository(store),
		credit:       memoryRepo.NewCreditworthinessRepository(store),
		close:        func() {},
	}
}

// app is the wired HTTP surface plus the background workers it relies on.
type app struct {
	handler     http.Handler
	dispatcher  *eventpublisher.Dispatcher
	rateLimiter *apimiddleware.RateLimiter
}

func newApp(ctx context.Context, cfg *config.Config, st *storage, redisClient *goredis.Client, zl zerolog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	if r, ok := st.retrier.(*postgresRepo.Retrier); ok {
		r.WithMetrics(m)
	}

	var (
		publisher   eventpublisher.Publisher = eventpublisher.NewLogPublisher(slog.Default())
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
		redisPinger handler.Pinger
	)
	if redisClient != nil {
		publisher = eventpublisher.NewRedisPublisher(redisClient, cfg.NotificationChannel)
		cache = redisRepo.NewCache(redisClient)
		idempotency = redisRepo.NewIdempotencyStore(redisClient)
		redisPinger = handler.RedisPinger{Client: redisClient}
	}

	dispatcher := eventpublisher.NewDispatcher(eventpublisher.Config{
		Publisher: publisher,
		Logger:    slog.Default().With("component", "notifications"),
		Metrics:   m,
		QueueSize: cfg.NotifyQueue,
	})

	signer := auth.NewSigner(cfg.JWTSecret)
	qrCodec := auth.NewQRCodec(signer, cfg.QRTTL)
	idGen := idgen.NewULIDGenerator()
	clock := usecase.SystemClock{}
	policy := domain.NewInterestPolicy(cfg.Period())

	resolver := usecase.NewEndpointResolver(st.accounts, st.cards, st.users, qrCodec)
	authorizer := usecase.NewAuthorizer(resolver, st.loans, st.deposits)
	gate := usecase.NewCreditworthinessGate(st.users, st.credit)

	accountUC := usecase.NewAccountUseCase(st.txManager, st.accounts, st.loans, st.deposits, idGen, clock, m)
	cardUC := usecase.NewCardUseCase(st.txManager, st.cards, st.accounts, idGen, clock, m)
	transferUC := usecase.NewTransferUseCase(st.txManager, st.accounts, st.cards, st.transactions, resolver, idGen, st.retrier, dispatcher, clock, m)
	queryUC := usecase.NewTransactionQueryUseCase(st.transactions)
	qrUC := usecase.NewQRUseCase(resolver, qrCodec, m)
	loanUC := usecase.NewLoanUseCase(st.txManager, st.loans, st.types, gate, resolver, transferUC, idGen, st.retrier, dispatcher, clock, policy, m)
	depositUC := usecase.NewDepositUseCase(st.txManager, st.deposits, st.types, resolver, transferUC, idGen, st.retrier, dispatcher, clock, policy, m)
	catalogUC := usecase.NewCatalogUseCase(st.txManager, st.types, st.loans, st.deposits, idGen, cache, cfg.CatalogCacheTTL, clock, m)

	if err := accountUC.EnsureSystemAccounts(ctx, cfg.BankCurrencies); err != nil {
		return nil, fmt.Errorf("ensure bank accounts: %w", err)
	}

	authenticate := apimiddleware.DevAuthMiddleware
	if cfg.AuthEnabled {
		authenticate = apimiddleware.AuthMiddleware(auth.NewJWTManager(signer, cfg.JWTExpiration))
	} else {
		log.Warn().Msg("authentication disabled; callers are identified by the " + apimiddleware.DevUserHeader + " header")
	}

	rateLimiter := apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC),
		CardHandler:        handler.NewCardHandler(cardUC),
		TransactionHandler: handler.NewTransactionHandler(transferUC, queryUC, authorizer),
		QRHandler:          handler.NewQRHandler(qrUC),
		LoanHandler:        handler.NewLoanHandler(loanUC, resolver, authorizer),
		DepositHandler:     handler.NewDepositHandler(depositUC, resolver, authorizer),
		LoanTypeHandler:    handler.NewCatalogHandler(catalogUC, domain.InstrumentLoan),
		DepositTypeHandler: handler.NewCatalogHandler(catalogUC, domain.InstrumentDeposit),
		HealthHandler:      handler.NewHealthHandler(st.db, redisPinger),
		Authenticate:       authenticate,
		IdempotencyStore:   idempotency,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		HTTPMetrics:        apimiddleware.NewHTTPMetrics(reg),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:             &zl,
	})

	return &app{
		handler:     router,
		dispatcher:  dispatcher,
		rateLimiter: rateLimiter,
	}, nil
}

// sweepLimiters drops per-client limiters idle for longer than idle until ctx is done.
func (a *app) sweepLimiters(ctx context.Context, idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.rateLimiter.CleanupLimiters(idle); n > 0 {
				log.Debug().Int("removed", n).Msg("cleaned up idle rate limiters")
			}
		}
	}
}
