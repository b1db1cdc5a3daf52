package fx

import (
	"fan-insights/internal/auth"
	"fan-insights/internal/config"
	"fan-insights/internal/database"
	"fan-insights/internal/loader"
	"fan-insights/internal/logger"
	"fan-insights/internal/repository"
	"fan-insights/internal/server"
	"fan-insights/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideLoader(cfg *config.Config, log zerolog.Logger) *loader.Loader {
	return loader.New(cfg.ExcludedSheets, log)
}

func ProvideCache(cfg *config.Config) *loader.Cache {
	return loader.NewCache(cfg.CacheTTL)
}

func ProvideCredentialStore(cfg *config.Config, log zerolog.Logger) (*auth.CredentialStore, error) {
	return auth.NewCredentialStore(cfg.UsersCSVPath, log)
}

func ProvideSessionStore(cfg *config.Config, log zerolog.Logger) *auth.SessionStore {
	return auth.NewSessionStore(cfg.SessionTTL, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// auth
	fx.Provide(ProvideCredentialStore),
	fx.Provide(ProvideSessionStore),
	// loader
	fx.Provide(ProvideLoader),
	fx.Provide(ProvideCache),
	// repos
	fx.Provide(repository.NewFanSnapshotRepository),
	fx.Provide(repository.NewImportLogRepository),
	// svc
	fx.Provide(service.NewFanService),
	fx.Provide(service.NewInsightsService),
	// server
	fx.Provide(server.NewServer),
)
