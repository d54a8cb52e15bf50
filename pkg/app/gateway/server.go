// Package gateway implements app.Runner for the vault gateway process.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/xhedge/vault-middleware/pkg/app/http"
	"github.com/xhedge/vault-middleware/pkg/auth"
	"github.com/xhedge/vault-middleware/pkg/config"
	"github.com/xhedge/vault-middleware/pkg/horizon"
	"github.com/xhedge/vault-middleware/pkg/kvstore"
	"github.com/xhedge/vault-middleware/pkg/network"
	"github.com/xhedge/vault-middleware/pkg/partner"
	partnerservice "github.com/xhedge/vault-middleware/pkg/partner/service"
	"github.com/xhedge/vault-middleware/pkg/partnerstore"
	"github.com/xhedge/vault-middleware/pkg/pgutil"
	"github.com/xhedge/vault-middleware/pkg/prefs"
	"github.com/xhedge/vault-middleware/pkg/pricefeed"
	"github.com/xhedge/vault-middleware/pkg/signer"
	"github.com/xhedge/vault-middleware/pkg/sorobanrpc"
	"github.com/xhedge/vault-middleware/pkg/vault"
	vaultservice "github.com/xhedge/vault-middleware/pkg/vault/service"
	"github.com/xhedge/vault-middleware/pkg/wallet"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the gateway server.
type Server struct {
	cfg *config.GatewayConfig
}

// NewServer initializes a new gateway server.
func NewServer(cfg *config.GatewayConfig) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("gateway config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vault gateway",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("network", cfg.Network.Default),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := network.NewRegistry(network.ID(cfg.Network.Default))
	if cfg.Network.OverridesFile != "" {
		if err := registry.LoadOverrides(cfg.Network.OverridesFile); err != nil {
			return fmt.Errorf("load network overrides: %w", err)
		}
	}
	netCfg := registry.Default()

	horizonClient := horizon.NewClient(netCfg.HorizonURL, logger)
	rpcClient := sorobanrpc.NewClient(netCfg.RPCURL, logger)

	bridge := signer.NewBridge(cfg.Signer.BridgeURL, cfg.Signer.RequestTimeout, logger)
	sessions := wallet.NewManager(bridge, vault.VerifySigned, network.ID(cfg.Network.Default), logger)

	builder := vault.NewBuilder(horizonClient, cfg.Pipeline.BaseFee, cfg.Pipeline.EnvelopeTTL, logger)
	assembler := vault.NewAssembler(rpcClient, logger)
	submitter := vault.NewSubmitter(rpcClient, cfg.Pipeline.SubmitTimeout, cfg.Pipeline.ConfirmPollInterval, logger)
	reader := vault.NewReader(rpcClient, horizonClient, cfg.Vault.ContractID, cfg.Vault.AssetContractID, logger)
	pipeline := vault.NewPipeline(sessions, builder, assembler, submitter, reader, registry, cfg.Vault.ContractID, logger)

	estimator := vault.NewFeeEstimator(builder, assembler, cfg.Pipeline.FeeDebounce, logger)
	// Safety net; Close is called explicitly after ServeAndWait returns.
	defer estimator.Close()

	kv := kvstore.NewStore(db)
	partners := partnerstore.NewStore(db)
	tokens := auth.NewTokenIssuer(cfg.Partner.SessionSecret, cfg.Partner.SessionMaxAge)
	partnerSvc := partnerservice.New(partners, kv, tokens, cfg.Partner.SessionMaxAge, logger)

	prefsSvc := prefs.NewService(kv, network.ID(cfg.Network.Default))

	stopTracker := func() {}
	var tracker *pricefeed.Tracker
	if cfg.PriceFeed.Enabled {
		tracker = pricefeed.NewTracker(pricefeed.NewHTTPSource(cfg.PriceFeed.URL), cfg.PriceFeed.Interval, logger)
		tracker.Start(ctx)
		stopTracker = tracker.Stop
		defer stopTracker()
	}

	router := s.setupRouter(pipeline, reader, estimator, sessions, partnerSvc, prefsSvc, tracker, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before deferred DB closes kick in.
	estimator.Close()
	stopTracker()

	return err
}

func (s *Server) setupRouter(
	pipeline *vault.Pipeline,
	reader *vault.Reader,
	estimator *vault.FeeEstimator,
	sessions *wallet.Manager,
	partnerSvc *partnerservice.Service,
	prefsSvc *prefs.Service,
	tracker *pricefeed.Tracker,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	vaultservice.RegisterRoutes(r, pipeline, reader, estimator, sessions, s.cfg.Vault.ContractID, logger)
	partnerservice.RegisterRoutes(r, partnerSvc, logger)
	prefs.RegisterRoutes(r, prefsSvc, logger)

	if tracker != nil {
		pricefeed.RegisterRoutes(r, tracker)
	}

	// Vault reporting for authenticated partners.
	r.Group(func(pr chi.Router) {
		pr.Use(partnerservice.RequirePermission(partnerSvc, partner.PermViewMetrics))
		pr.Get("/partner/overview", apphttp.HandleError(func(w http.ResponseWriter, req *http.Request) error {
			snap := reader.FetchMetrics(req.Context(), "")
			apphttp.WriteJSON(w, http.StatusOK, snap)
			return nil
		}))
	})

	return r
}
