package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/state"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/realtime"
	"github.com/shashiranjanraj/storefront/pkg/session"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

const (
	tokenTTL   = 24 * time.Hour
	sessionTTL = 24 * time.Hour
)

// Services holds every long-lived dependency of the storefront. Build it
// once with Boot and hand it to the route registrars.
type Services struct {
	Config config.Storefront

	DB    *gorm.DB
	Redis *redis.Client // nil when Redis is unreachable
	Feed  realtime.Feed
	Disk  storage.Disk
	Pool  *workerpool.Pool

	ProductRepo  *repositories.ProductRepository
	CategoryRepo *repositories.AccessoryCategoryRepository
	Images       *services.ImageService

	Products *state.Products
	Search   *state.Search
	Auth     *state.Auth
	Hub      *ws.Hub

	cancel     context.CancelFunc
	stopListen func()
}

// Boot validates configuration and connects every backend. Redis is
// optional: without it sessions degrade to local grants and the realtime
// feed falls back to memory.
func Boot(ctx context.Context) (*Services, error) {
	cfg, err := config.LoadStorefront()
	if err != nil {
		return nil, err
	}

	s := &Services{Config: cfg}

	if s.DB, err = database.Open(config.DatabaseDriver(), config.DatabaseDSN()); err != nil {
		return nil, err
	}
	database.DB = s.DB

	if rdb, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword()); err != nil {
		logger.Warn("redis unavailable; sessions and realtime stay local", "error", err)
	} else {
		s.Redis = rdb
	}

	if config.RealtimeDriver() == "redis" && s.Redis != nil {
		s.Feed = realtime.NewRedis(s.Redis)
	} else {
		s.Feed = realtime.NewMemory()
	}

	opts := storage.OptionsFromConfig()
	opts.Bucket = cfg.Bucket
	if s.Disk, err = storage.New(opts); err != nil {
		s.Close()
		return nil, err
	}

	s.Pool = workerpool.New(cfg.UploadConcurrency)
	s.ProductRepo = repositories.NewProductRepository(s.DB, s.Feed)
	s.CategoryRepo = repositories.NewAccessoryCategoryRepository(s.DB)
	s.Images = services.NewImageService(s.Disk, s.Pool, cfg)

	issuer, err := auth.NewIssuer(cfg.BackendKey, tokenTTL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}
	sessions := session.NewStore(cache.New(s.Redis, "storefront:"), sessionTTL)
	s.Auth, err = state.NewAuth(state.Credentials{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Email:    cfg.AdminEmail,
	}, sessions, issuer)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	s.Products = state.NewProducts(s.ProductRepo, cfg.RefreshDelay)
	s.Search = state.NewSearch(s.ProductRepo)
	s.Hub = ws.NewHub()

	return s, nil
}

// Start launches the background loops: the websocket hub and the products
// subscription whose snapshots the hub rebroadcasts.
func (s *Services) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.Hub.Run(ctx)
	s.stopListen = s.Products.Listen(func(snap state.Snapshot) {
		if err := s.Hub.BroadcastJSON(snap); err != nil {
			logger.Warn("ws: broadcast failed", "error", err)
		}
	})
	s.Products.Start(ctx)
}

// Close stops the loops and releases connections. Safe on a partially
// booted Services.
func (s *Services) Close() {
	if s.stopListen != nil {
		s.stopListen()
	}
	if s.Products != nil {
		s.Products.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.Pool != nil {
		s.Pool.Shutdown()
	}
	if s.Feed != nil {
		_ = s.Feed.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		_ = database.Close(s.DB)
	}
}

// Ping reports database reachability; it backs /health and gRPC health.
func (s *Services) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.DB)
}
