package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/receiptly/backend/config"
	"github.com/receiptly/backend/internal/catalog"
	httpDelivery "github.com/receiptly/backend/internal/delivery/http"
	"github.com/receiptly/backend/internal/infrastructure/cache"
	"github.com/receiptly/backend/internal/infrastructure/overrides"
	"github.com/receiptly/backend/internal/infrastructure/snapshot"
	"github.com/receiptly/backend/internal/usecase"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	if cfg.Server.Environment == "development" {
		log.SetLevel(logrus.DebugLevel)
	}

	log.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	}).Info("starting receiptly backend")

	// The snapshot load is a one-time barrier: nothing serves until the
	// catalog is in memory.
	loader := snapshot.NewFileLoader(cfg.Catalog.SnapshotPath)
	products, units, observations, err := loader.Load(context.Background())
	if err != nil {
		log.WithError(err).Fatal("failed to load catalog snapshot")
	}

	normalizer := usecase.NewNameNormalizer(usecase.NormalizerConfig{})
	stemmer := usecase.NewEnglishStemmer()
	snap := catalog.NewSnapshot(products, units, observations, usecase.NewAnalyzer(normalizer, stemmer))

	log.WithFields(logrus.Fields{
		"products":     len(products),
		"units":        len(units),
		"observations": len(observations),
	}).Info("catalog snapshot loaded")

	store, err := overrides.NewSQLiteStore(cfg.Overrides.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open override store")
	}
	defer store.Close()

	matcher := usecase.NewCandidateMatcher(snap, normalizer, stemmer, usecase.MatcherConfig{
		MinSimilarity: cfg.Matching.MinSimilarity,
	})
	scorer := usecase.NewSignalScorer(snap, usecase.ScorerConfig{
		CategoryBoostMax: cfg.Matching.CategoryBoostMax,
		VendorBoost:      cfg.Matching.VendorBoost,
		PriceBoostMax:    cfg.Matching.PriceBoostMax,
		PriceWindow:      cfg.Matching.PriceWindow,
		VendorAliases:    cfg.Matching.VendorAliases,
	})
	resolver := usecase.NewUoMResolver(snap, usecase.ResolverConfig{
		PriceTolerance:        cfg.Matching.PriceTolerance,
		DivisibilityTolerance: cfg.Matching.DivisibilityTolerance,
	})

	resultCache := cache.NewMemoryCache(cfg.Cache.TTL)

	engine, err := usecase.NewReconciliationEngine(
		snap, store, resultCache, matcher, scorer, resolver,
		usecase.EngineConfig{
			MinConfidence:  cfg.Matching.MinConfidence,
			HighConfidence: cfg.Matching.HighConfidence,
			Workers:        cfg.Matching.Workers,
		},
		log,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to build reconciliation engine")
	}

	log.WithFields(logrus.Fields{
		"minConfidence":  cfg.Matching.MinConfidence,
		"highConfidence": cfg.Matching.HighConfidence,
		"priceTolerance": cfg.Matching.PriceTolerance,
	}).Info("reconciliation engine ready")

	handler := httpDelivery.NewHandler(engine, store, log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.WithField("addr", addr).Info("server listening")

	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
