package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"monad_community_portal/internal/api"
	"monad_community_portal/internal/cache"
	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/repository"
	"monad_community_portal/internal/service"
	"monad_community_portal/pkg/auth"
	"monad_community_portal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	pointsCache, err := cache.New(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer pointsCache.Close()

	network := chain.ChainDescriptor{
		ChainID:        big.NewInt(cfg.Chain.ChainID),
		Name:           cfg.Chain.Name,
		RPCURL:         cfg.Chain.RPCURL,
		ExplorerURL:    cfg.Chain.ExplorerURL,
		CurrencyName:   "Monad",
		CurrencySymbol: "MON",
		Decimals:       18,
	}

	operator, err := chain.NewRPCProvider("operator", cfg.Chain.RPCURL, cfg.Chain.OperatorKey)
	if err != nil {
		zapLogger.Fatal("Failed to initialize rpc provider", zap.Error(err))
	}
	defer operator.Close()

	registry := chain.NewRegistry()
	registry.Register(operator)

	flowCfg := chain.DefaultFlowConfig()
	if cfg.Chain.ReceiptTimeout > 0 {
		flowCfg.ReceiptTimeout = cfg.Chain.ReceiptTimeout
	}

	sessionManager := service.NewSessionManager(registry, repo, network, cfg.Chain.ConnectTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessionManager.WatchEvents(ctx, operator)

	ledgerService := service.NewLedgerService(repo, pointsCache)
	userService := service.NewUserService(repo, ledgerService)
	questService := service.NewQuestService(repo, ledgerService)
	socialService := service.NewSocialService(repo, questService)
	checkInService := service.NewCheckInService(repo, ledgerService, registry, flowCfg,
		common.HexToAddress(cfg.Chain.CheckInAddress))
	proposalService := service.NewProposalService(repo, ledgerService, registry, flowCfg,
		common.HexToAddress(cfg.Chain.VotingContract), cfg.Chain.AdminWallet)
	gameService := service.NewGameService(repo, ledgerService, registry, flowCfg,
		common.HexToAddress(cfg.Chain.GameContract), cfg.Chain.AdminWallet, nil)
	badgeService := service.NewBadgeService(repo, ledgerService, registry, flowCfg,
		common.HexToAddress(cfg.Chain.BadgeContract))

	walletAuth := auth.NewWalletAuth(sessionManager)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewSessionRoutes(a, sessionManager)
	api.NewUserRoutes(a, userService, walletAuth, cfg.Server.FrontendURL)
	api.NewQuestRoutes(a, questService, walletAuth)
	api.NewCheckInRoutes(a, checkInService, walletAuth)
	api.NewProposalRoutes(a, proposalService, walletAuth)
	api.NewBadgeRoutes(a, badgeService, walletAuth)
	api.NewGameRoutes(a, gameService, walletAuth)
	api.NewSocialRoutes(a, socialService, pointsCache, cfg.Twitter)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
