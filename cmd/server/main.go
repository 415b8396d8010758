package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alizeeshan1234/beethoven-trade/internal/config"
	"github.com/alizeeshan1234/beethoven-trade/internal/fund"
	"github.com/alizeeshan1234/beethoven-trade/internal/handler"
	"github.com/alizeeshan1234/beethoven-trade/internal/ledger"
	"github.com/alizeeshan1234/beethoven-trade/internal/market"
	"github.com/alizeeshan1234/beethoven-trade/internal/middleware"
	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/apperrors"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/logger"
	"github.com/alizeeshan1234/beethoven-trade/internal/pkg/wad"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
	"github.com/alizeeshan1234/beethoven-trade/internal/repository"
	"github.com/alizeeshan1234/beethoven-trade/internal/router"
	"github.com/alizeeshan1234/beethoven-trade/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 0. Initialize Logger
	logger.Init("info")

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Persistence
	// Usage persistence (Redis > Memory)
	var usageRepo service.UsageRepo
	var idempotencyStore middleware.IdempotencyStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err == nil {
			logger.Info("Connected to Redis")
			usageRepo = repository.NewRedisUsageRepo(redisClient)
			idempotencyStore = repository.NewRedisIdempotencyStore(
				redisClient, time.Duration(cfg.Redis.IdempotencyTTLSeconds)*time.Second)
		} else {
			logger.Error("Failed to connect to Redis, falling back to memory", "error", err)
		}
	}
	if usageRepo == nil {
		usageRepo = service.NewUsageStore()
	}
	if idempotencyStore == nil {
		idempotencyStore = middleware.NewInMemIdempotencyStore()
	}

	// Audit persistence (Postgres > Local File)
	var auditRepo service.AuditRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("Connected to PostgreSQL")
			auditRepo = repository.NewAuditRepo(db)
		} else {
			logger.Error("Failed to connect to DB, audit logs will be file-only", "error", err)
		}
	}

	// 3. Initialize Core State
	store := registry.NewStore()
	bank := ledger.New()

	exchangeSvc := service.NewExchangeService(store, bank)

	// Market data: conditional-market books feeding the TWAP tracker
	tracker := market.NewTracker()
	feed := market.NewFeed(cfg.Markets.WSURL, market.Credentials{
		Key:        cfg.Markets.ApiKey,
		Secret:     cfg.Markets.ApiSecret,
		Passphrase: cfg.Markets.ApiPassphrase,
	}, tracker)
	feed.Start()

	adapters, invoker := buildProtocols(cfg)
	routerSvc := router.New(store, bank, adapters, invoker, exchangeSvc.Address())

	policy := service.NewPolicy(usageRepo, cfg.Risk)
	tradingSvc := service.NewTradingService(routerSvc, policy, bank)

	fundEngine := fund.NewEngine(store, bank, routerSvc, tracker, staticValuer{}, fund.Config{
		VotingPeriod:       time.Duration(cfg.Governance.VotingPeriodHours) * time.Hour,
		ExecutionDeadline:  time.Duration(cfg.Governance.ExecutionDeadlineHours) * time.Hour,
		MinProposalShares:  cfg.Governance.MinProposalShares,
		MaxActiveProposals: uint8(cfg.Governance.MaxActiveProposals),
	}).WithSubscriber(feed)

	bootstrap(cfg, exchangeSvc, fundEngine)

	auditSvc, err := service.NewAuditService("./logs", auditRepo)
	if err != nil {
		log.Fatalf("Failed to initialize audit service: %v", err)
	}

	// 4. Initialize Handlers
	tradingHandler := handler.NewTradingHandler(tradingSvc)
	fundHandler := handler.NewFundHandler(fundEngine)
	proposalHandler := handler.NewProposalHandler(fundEngine)
	adminHandler := handler.NewAdminHandler(exchangeSvc, fundEngine)
	auditHandler := handler.NewAuditHandler(auditSvc)

	limiters := middleware.NewLimiterPool(10, 20)

	// 5. Setup Router
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(auditSvc))

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "beethoven-trade"})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API V1 Routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg))
	v1.Use(middleware.RateLimitMiddleware(limiters))
	v1.Use(middleware.PauseMiddleware(exchangeSvc.Halted))
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		v1.POST("/swap", tradingHandler.Swap)
		v1.POST("/liquidity/add", tradingHandler.AddLiquidity)
		v1.POST("/liquidity/remove", tradingHandler.RemoveLiquidity)
		v1.POST("/accounts", tradingHandler.CreateAccount)
		v1.GET("/accounts/:address", tradingHandler.GetAccount)

		v1.GET("/fund", fundHandler.Get)
		v1.POST("/fund/deposit", fundHandler.Deposit)
		v1.POST("/fund/withdraw", fundHandler.Withdraw)
		v1.POST("/fund/nav", fundHandler.UpdateNav)
		v1.GET("/fund/shares", fundHandler.ShareBalance)

		v1.GET("/proposals", proposalHandler.List)
		v1.GET("/proposals/:index", proposalHandler.Get)
		v1.POST("/proposals", proposalHandler.Create)
		v1.POST("/proposals/:index/finalize", proposalHandler.Finalize)
		v1.POST("/proposals/:index/execute", proposalHandler.Execute)

		v1.GET("/audit", auditHandler.List)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminMiddleware(cfg))
	{
		admin.GET("/exchange", adminHandler.GetExchange)
		admin.POST("/exchange", adminHandler.InitExchange)
		admin.PUT("/exchange/fees", adminHandler.UpdateFees)
		admin.PUT("/exchange/pause", adminHandler.SetPause)
		admin.POST("/vaults", adminHandler.CreateVault)
		admin.GET("/vaults/:asset", adminHandler.GetVault)
		admin.POST("/users", adminHandler.RegisterUser)
		admin.GET("/users/me", adminHandler.GetUser)
		admin.POST("/fund", adminHandler.InitFund)
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("beethoven-trade started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	feed.Stop()
	auditSvc.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}

// buildProtocols registers every configured protocol program with the adapter
// set and gives the local invoker a settlement rule per swap protocol. The
// settlement indices point at the trader-side accounts of each schema.
func buildProtocols(cfg *config.Config) (*router.AdapterSet, router.Invoker) {
	adapters := router.NewAdapterSet()
	invoker := router.NewLocalInvoker()

	register := func(p config.ProtocolConfig, build func(model.Address)) {
		if p.Program == "" {
			return
		}
		addr, err := model.AddressFromHex(p.Program)
		if err != nil {
			logger.Error("skipping protocol with malformed program address", "program", p.Program)
			return
		}
		build(addr)
	}

	settleRate := func(p config.ProtocolConfig) *uint256.Int {
		if p.SettleRateWad == "" {
			return wad.One()
		}
		rate, err := uint256.FromDecimal(p.SettleRateWad)
		if err != nil {
			return wad.One()
		}
		return rate
	}

	register(cfg.Protocols.Manifest, func(addr model.Address) {
		adapters.RegisterSwap(router.NewManifestAdapter(addr))
		invoker.SettleSwaps(addr, router.SwapSettlement{
			AmountOffset: 1, SourceIndex: 3, DestIndex: 2, Rate: settleRate(cfg.Protocols.Manifest),
		})
	})
	register(cfg.Protocols.Gamma, func(addr model.Address) {
		adapters.RegisterSwap(router.NewGammaAdapter(addr))
		invoker.SettleSwaps(addr, router.SwapSettlement{
			AmountOffset: 8, SourceIndex: 4, DestIndex: 5, Rate: settleRate(cfg.Protocols.Gamma),
		})
	})
	register(cfg.Protocols.SolFi, func(addr model.Address) {
		adapters.RegisterSwap(router.NewSolFiAdapter(addr))
		invoker.SettleSwaps(addr, router.SwapSettlement{
			AmountOffset: 8, SourceIndex: 2, DestIndex: 3, Rate: settleRate(cfg.Protocols.SolFi),
		})
	})
	register(cfg.Protocols.Kamino, func(addr model.Address) {
		adapters.RegisterLiquidity(router.NewKaminoAdapter(addr))
	})
	register(cfg.Protocols.Jupiter, func(addr model.Address) {
		adapters.RegisterLiquidity(router.NewJupiterAdapter(addr))
	})

	return adapters, invoker
}

// bootstrap creates the exchange, its fee vaults and the fund from config on
// first start. Re-running against existing records is a no-op.
func bootstrap(cfg *config.Config, exchangeSvc *service.ExchangeService, fundEngine *fund.Engine) {
	if cfg.Exchange.Admin != "" {
		admin, err := model.AddressFromHex(cfg.Exchange.Admin)
		if err != nil {
			logger.Fatal("malformed exchange admin address", "value", cfg.Exchange.Admin)
		}
		_, err = exchangeSvc.Initialize(service.ExchangeInitParams{
			Admin:         admin,
			SwapFeeBps:    cfg.Exchange.SwapFeeBps,
			PerpFeeBps:    cfg.Exchange.PerpFeeBps,
			LendingFeeBps: cfg.Exchange.LendingFeeBps,
			MaxLeverage:   cfg.Exchange.MaxLeverage,
		})
		if err != nil && !apperrors.Is(err, apperrors.ErrAlreadyExists) {
			logger.Fatal("exchange bootstrap failed", "error", err)
		}
		for _, raw := range cfg.Exchange.VaultAssets {
			asset, err := model.AddressFromHex(raw)
			if err != nil {
				logger.Error("skipping malformed vault asset", "value", raw)
				continue
			}
			if _, err := exchangeSvc.CreateVault(admin, asset); err != nil && !apperrors.Is(err, apperrors.ErrAlreadyExists) {
				logger.Error("vault bootstrap failed", "asset", raw, "error", err)
			}
		}
	}

	if cfg.Fund.Admin != "" && cfg.Fund.BaseAsset != "" {
		admin, err := model.AddressFromHex(cfg.Fund.Admin)
		if err != nil {
			logger.Fatal("malformed fund admin address", "value", cfg.Fund.Admin)
		}
		baseAsset, err := model.AddressFromHex(cfg.Fund.BaseAsset)
		if err != nil {
			logger.Fatal("malformed fund base asset", "value", cfg.Fund.BaseAsset)
		}
		feeRecipient := admin
		if cfg.Fund.FeeRecipient != "" {
			if parsed, err := model.AddressFromHex(cfg.Fund.FeeRecipient); err == nil {
				feeRecipient = parsed
			}
		}
		_, err = fundEngine.Initialize(fund.InitParams{
			Admin:             admin,
			BaseAsset:         baseAsset,
			PerformanceFeeBps: cfg.Fund.PerformanceFeeBps,
			ManagementFeeBps:  cfg.Fund.ManagementFeeBps,
			FeeRecipient:      feeRecipient,
		})
		if err != nil && !apperrors.Is(err, apperrors.ErrAlreadyExists) {
			logger.Fatal("fund bootstrap failed", "error", err)
		}
	}
}

// staticValuer prices external holdings at par until a price oracle is wired.
type staticValuer struct{}

func (staticValuer) Price(context.Context, model.Address) (*uint256.Int, error) {
	return wad.One(), nil
}
