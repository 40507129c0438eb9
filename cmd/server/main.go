package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/youruser/nftview/internal/api"
	"github.com/youruser/nftview/internal/chain"
	"github.com/youruser/nftview/internal/config"
	imagepkg "github.com/youruser/nftview/internal/image"
	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/observability"
	"github.com/youruser/nftview/internal/selection"
	"github.com/youruser/nftview/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build logger")
	}

	loader, err := imagepkg.NewLoader(imagepkg.LoaderConfig{
		Client:      util.NewHTTPClient(cfg.Loader.Timeout),
		IPFSGateway: cfg.Loader.IPFSGateway,
		BaseURL:     cfg.Loader.ImageBaseURL,
		MaxBytes:    cfg.Loader.MaxImageBytes,
		Concurrency: cfg.Loader.Concurrency,
	})
	if err != nil {
		log.WithError(err).Fatal("invalid loader config")
	}

	if err := util.EnsureParentDir(cfg.DBPath); err != nil {
		log.WithError(err).Fatal("failed to create data dir")
	}
	store, err := selection.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open selection store")
	}
	defer store.Close()

	if cfg.AlchemyAPIKey == "" {
		log.Warn("ALCHEMY_API_KEY not set; ethereum lookups will fail")
	}
	if cfg.HeliusAPIKey == "" {
		log.Warn("HELIUS_API_KEY not set; solana lookups will fail")
	}
	chains := chain.NewService(log,
		chain.NewAlchemy(chain.AlchemyConfig{APIKey: cfg.AlchemyAPIKey, Logger: log}),
		chain.NewHelius(chain.HeliusConfig{APIKey: cfg.HeliusAPIKey, Logger: log}),
		chain.NewMock(nft.ChainAbstract, cfg.MockLatency),
		chain.NewMock(nft.ChainApeChain, cfg.MockLatency),
	)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.NewServer(chains, store, imagepkg.NewComposer(loader, log), log)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("starting server on http://localhost:%s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
