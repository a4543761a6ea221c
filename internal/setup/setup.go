package setup

import (
	"github.com/reaxo-dev/reaxo/internal/ai"
	"github.com/reaxo-dev/reaxo/internal/cache"
	"github.com/reaxo-dev/reaxo/internal/config"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/handler"
	"github.com/reaxo-dev/reaxo/internal/middleware"
	"github.com/reaxo-dev/reaxo/internal/service"
	"github.com/reaxo-dev/reaxo/internal/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg.Private.Pg)
	if err != nil {
		return nil, err
	}

	if cfg.Public.RedisAddr != "" {
		cache.InitRedis(cfg.Public.RedisAddr)
	}

	upstream := forums.New(cfg.Public.UpstreamBaseURL).WithToken(cfg.Private.UpstreamKey)

	chat := ai.NewChatClient(cfg.Public.AI, cfg.Private.ChatKey)
	image := ai.NewImageClient(cfg.Public.AI, cfg.Private.ImageKey)

	forum := service.NewForum(storage)
	responder := service.NewResponder(upstream, chat, image, cfg.Public.AI.SystemUserID, cfg.Public.AI.Timeout)

	h := handler.New(upstream, forum, responder, cfg)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: middleware.NewAuth(),
	}, nil
}
