package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"plant-maint-api/internal"
	"plant-maint-api/internal/auth"
	"plant-maint-api/internal/config"
	"plant-maint-api/internal/reconcile"
	"plant-maint-api/internal/sheet"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	if cfg.AliasFile != "" {
		if err := reconcile.LoadAliases(cfg.AliasFile, &reconcile.Maintenance, &reconcile.Stock); err != nil {
			logger.Fatal("schema alias file", zap.Error(err))
		}
	}

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		logger.Fatal("table store init", zap.Error(err))
	}
	defer cleanup()

	creds, err := buildCredentials(cfg)
	if err != nil {
		logger.Fatal("credentials init", zap.Error(err))
	}

	srv := internal.NewServer(store, creds, cfg, logger)
	if err := srv.JWT.ValidateConfig(); err != nil {
		logger.Fatal("jwt configuration", zap.Error(err))
	}

	logger.Info("starting plant-maint-api",
		zap.String("addr", cfg.ListenAddr),
		zap.String("store", cfg.StoreBackend),
	)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func buildStore(cfg *config.Config) (sheet.Store, func(), error) {
	nop := func() {}
	switch cfg.StoreBackend {
	case config.BackendSheets:
		s, err := sheet.NewSheetsStore(context.Background(), cfg.SpreadsheetID, cfg.CredentialsFile)
		if err != nil {
			return nil, nop, err
		}
		s.SettleDelay = cfg.SheetsSettleDelay
		return s, nop, nil
	case config.BackendPostgres:
		s, err := sheet.NewPostgresStore(context.Background(), cfg.DatabaseDSN)
		if err != nil {
			return nil, nop, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return sheet.NewMemoryStore(), nop, nil
	default:
		return sheet.NewXLSXStore(cfg.XLSXPath), nop, nil
	}
}

func buildCredentials(cfg *config.Config) (*auth.Credentials, error) {
	if cfg.UsersFile != "" {
		return auth.LoadCredentials(cfg.UsersFile)
	}
	return auth.SingleUser(cfg.AuthUser, cfg.AuthPass)
}
