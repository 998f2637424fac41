package fx

import (
	"database/sql"
	"pb-tracker/internal/api"
	"pb-tracker/internal/catalog"
	"pb-tracker/internal/config"
	"pb-tracker/internal/database"
	"pb-tracker/internal/db"
	"pb-tracker/internal/logger"
	"pb-tracker/internal/repository"
	"pb-tracker/internal/server"
	"pb-tracker/internal/service"
	"pb-tracker/internal/storage"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideCatalog(cfg *config.Config, logger zerolog.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("bosses", len(cat.Bosses())).
		Strs("clans", cat.Clans()).
		Strs("shards", cat.ShardCategories()).
		Msg("catalog loaded")
	return cat, nil
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvideCatalog),
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewPBRecordRepository),
	fx.Provide(repository.NewMercyCounterRepository),
	// evidence
	fx.Provide(fx.Annotate(storage.NewScreenshotStore, fx.As(new(service.EvidenceStore)))),
	fx.Provide(fx.Annotate(api.NewAttachmentClient, fx.As(new(service.AttachmentFetcher)))),
	// svc
	fx.Provide(service.NewPBService),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(service.NewMercyService),
	fx.Provide(service.NewPlayerService),
	// server
	fx.Provide(server.NewTrackerServer),
)
