package main

import (
	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/handler"
	"bookstore/internal/infra/db"
	infraGateway "bookstore/internal/infra/gateway"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/metrics"
	"bookstore/internal/notifier"
	"bookstore/internal/repository"
	"bookstore/internal/server"
	"bookstore/internal/usecase"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// .envは無くてもよい（本番は環境変数で渡す）
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug(".env not loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	log.SetFormatter(&log.JSONFormatter{})
	if !cfg.IsProduction() {
		log.SetLevel(log.DebugLevel)
	}

	// カート保存先。DATABASE_URLがあればDB、なければローカルファイル
	var storage repository.StorageRepository
	if cfg.DatabaseURL != "" {
		gormDB, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("db connect failed")
		}
		if err := gormDB.AutoMigrate(&model.StorageEntry{}); err != nil {
			log.WithError(err).Fatal("db migrate failed")
		}
		storage = infraRepo.NewStorageGormRepository(gormDB)
	} else {
		fileStorage, err := infraRepo.NewFileStorageRepository(cfg.StorageDir)
		if err != nil {
			log.WithError(err).Fatal("storage dir init failed")
		}
		storage = fileStorage
	}

	// 書店APIクライアント
	gw := infraGateway.NewHTTPGateway(cfg.APIBaseURL, nil)

	cartNotifier := notifier.New()
	cartMetrics := metrics.NewCartMetrics()

	// Usecase生成
	cartUC := usecase.NewCartUsecase(storage, cartMetrics)
	sessionUC := usecase.NewSessionUsecase(gw, cartUC, storage, cartNotifier)
	viewUC := usecase.NewCartViewUsecase(cartUC, gw, cartNotifier, cartMetrics)
	checkoutUC := usecase.NewCheckoutUsecase(cartUC, viewUC, gw, cartNotifier)
	catalogUC := usecase.NewCatalogUsecase(gw, gw)

	// Handler生成
	handlers := server.Handlers{
		Auth:     handler.NewAuthHandler(sessionUC, gw, cfg),
		Book:     handler.NewBookHandler(catalogUC),
		Cart:     handler.NewCartHandler(cartUC, viewUC, gw, cartNotifier),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Events:   handler.NewEventsHandler(cartNotifier),
	}

	// Server起動
	if err := server.Start(cfg, sessionUC, handlers); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
