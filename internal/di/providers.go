package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"jamsocial/internal/common"
	"jamsocial/internal/config"
	"jamsocial/internal/dbmongo"
	"jamsocial/internal/dbmysql"
	"jamsocial/internal/httpapi"
	"jamsocial/internal/logging"
	"jamsocial/internal/media"
	"jamsocial/internal/profile"
)

// Application is everything cmd/profile-svc needs to serve.
type Application struct {
	Config   *config.Config
	Log      *slog.Logger
	DB       *gorm.DB
	Feeds    *profile.Registry
	Avatars  *profile.AvatarService
	Posts    *profile.PostService
	Router   http.Handler
	Registry *prometheus.Registry
}

var storageSet = wire.NewSet(
	ProvideLogger,
	ProvideDatabase,
	ProvideMongo,
	ProvideObjectSigner,
	ProvideObjectStore,
	dbmysql.NewPostRepository,
	dbmysql.NewUserRepository,
	wire.Bind(new(profile.ObjectStore), new(*dbmongo.ObjectStore)),
	wire.Bind(new(profile.PostRepository), new(*dbmysql.PostRepository)),
	wire.Bind(new(profile.UserRepository), new(*dbmysql.UserRepository)),
)

var profileSet = wire.NewSet(
	ProvidePrometheusRegistry,
	wire.Bind(new(prometheus.Registerer), new(*prometheus.Registry)),
	wire.Bind(new(prometheus.Gatherer), new(*prometheus.Registry)),
	profile.NewMetrics,
	ProvideResolver,
	ProvideEnricher,
	ProvidePostFetcher,
	ProvidePublisher,
	ProvideReporter,
	ProvideFeedRegistry,
	wire.Bind(new(profile.Reloader), new(*profile.Registry)),
	ProvideAvatarService,
	ProvidePostService,
)

var httpSet = wire.NewSet(
	ProvideTokenIssuer,
	httpapi.NewSnapshotHub,
	wire.Bind(new(httpapi.FeedRegistry), new(*profile.Registry)),
	wire.Bind(new(httpapi.AvatarReplacer), new(*profile.AvatarService)),
	wire.Bind(new(httpapi.PostCommands), new(*profile.PostService)),
	httpapi.NewHandler,
	ProvideRouter,
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Logging)
}

func ProvideDatabase(cfg *config.Config, log *slog.Logger) (*gorm.DB, func(), error) {
	db, err := dbmysql.NewMySQL(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := dbmysql.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func ProvideMongo(cfg *config.Config, log *slog.Logger) (*dbmongo.MongoClient, func(), error) {
	client, err := dbmongo.NewMongoConnection(cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to MongoDB", "host", cfg.MongoDB.Host, "database", cfg.MongoDB.Database)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(ctx); err != nil {
			log.Warn("mongo disconnect failed", "error", err)
		}
	}
	return client, cleanup, nil
}

func ProvideObjectSigner(cfg *config.Config) *common.ObjectSigner {
	return common.NewObjectSigner(cfg.Storage.SigningSecret)
}

func ProvideObjectStore(client *dbmongo.MongoClient, signer *common.ObjectSigner, cfg *config.Config) *dbmongo.ObjectStore {
	return dbmongo.NewObjectStore(client, signer, cfg.Server.MediaBaseURL)
}

func ProvideTokenIssuer(cfg *config.Config) *common.TokenIssuer {
	return common.NewTokenIssuer(cfg.Auth.JWTSecret)
}

func ProvidePrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideResolver(store profile.ObjectStore, metrics *profile.Metrics) *profile.Resolver {
	return profile.NewResolver(store, metrics)
}

func ProvideEnricher(cfg *config.Config, resolver *profile.Resolver, log *slog.Logger) *profile.Enricher {
	return profile.NewEnricher(resolver, cfg.Storage.PostMediaBucket, cfg.SignedURLTTL(), cfg.Feed.SignWorkers, log)
}

func ProvidePostFetcher(repo profile.PostRepository) *profile.PostFetcher {
	return profile.NewPostFetcher(repo)
}

func ProvidePublisher(hub *httpapi.SnapshotHub, log *slog.Logger) *profile.SnapshotPublisher {
	publisher := profile.NewSnapshotPublisher(log)
	publisher.Subscribe(profile.NewSnapshotLogger(log))
	publisher.Subscribe(hub)
	return publisher
}

func ProvideReporter(log *slog.Logger) profile.ErrorReporter {
	return profile.NewLogReporter(log)
}

func ProvideFeedRegistry(
	cfg *config.Config,
	fetcher *profile.PostFetcher,
	enricher *profile.Enricher,
	publisher *profile.SnapshotPublisher,
	reporter profile.ErrorReporter,
	metrics *profile.Metrics,
	log *slog.Logger,
) (*profile.Registry, func(), error) {
	assemblerCfg := profile.AssemblerConfig{
		PostWorkers: cfg.Feed.PostWorkers,
		RunTimeout:  cfg.RunTimeout(),
	}
	registry, err := profile.NewRegistry(cfg.Feed.SessionCacheSize, func(userID int64) *profile.Assembler {
		return profile.NewAssembler(fetcher, enricher, publisher, reporter, metrics, log.With("user_id", userID), assemblerCfg)
	})
	if err != nil {
		return nil, nil, err
	}
	return registry, registry.Close, nil
}

func ProvideAvatarService(
	cfg *config.Config,
	store profile.ObjectStore,
	users profile.UserRepository,
	reloader profile.Reloader,
	metrics *profile.Metrics,
	log *slog.Logger,
) *profile.AvatarService {
	return profile.NewAvatarService(store, users, reloader, cfg.Storage.AvatarBucket, cfg.Storage.CacheControl, metrics, log)
}

func ProvidePostService(
	cfg *config.Config,
	posts profile.PostRepository,
	store profile.ObjectStore,
	reloader profile.Reloader,
	log *slog.Logger,
) *profile.PostService {
	return profile.NewPostService(posts, store, reloader, cfg.Storage.PostMediaBucket, log)
}

func ProvideRouter(h *httpapi.Handler, tokens *common.TokenIssuer, gatherer prometheus.Gatherer, log *slog.Logger) http.Handler {
	return httpapi.NewRouter(h, tokens, gatherer, log)
}

func ProvideMediaServer(cfg *config.Config, store *dbmongo.ObjectStore, signer *common.ObjectSigner, log *slog.Logger) *media.HTTPServer {
	return media.NewHTTPServer(store, signer, log, cfg.Storage.AvatarBucket)
}
