package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glomun/portal/modules/account"
	"github.com/glomun/portal/modules/admin"
	"github.com/glomun/portal/modules/billing"
	"github.com/glomun/portal/pkg/config"
	"github.com/glomun/portal/pkg/cookie"
	"github.com/glomun/portal/pkg/email"
	"github.com/glomun/portal/pkg/httpserver"
	"github.com/glomun/portal/pkg/logger"
	"github.com/glomun/portal/pkg/mercadopago"
	"github.com/glomun/portal/pkg/mongo"
	"github.com/glomun/portal/pkg/ratelimit"
	"github.com/glomun/portal/pkg/redis"
	"github.com/glomun/portal/pkg/subscription"

	goredis "github.com/redis/go-redis/v9"
)

func main() {
	var (
		appCfg   appConfig
		httpCfg  httpserver.Config
		mongoCfg mongo.Config
		redisCfg redis.Config
		emailCfg email.Config
		mpCfg    mercadopago.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&mpCfg)

	log := logger.New(logger.WithEnvironment(appCfg.Environment, "portal"))

	baseURL, err := config.PublicBaseURL(appCfg.PublicBaseURL)
	if err != nil {
		log.Error("PUBLIC_BASE_URL is not usable as a processor callback origin", logger.Error(err))
		os.Exit(1)
	}

	ctx := context.Background()

	connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
	db, err := mongo.ConnectDatabase(connectCtx, mongoCfg)
	cancel()
	if err != nil {
		log.Error("failed to connect to mongodb", logger.Error(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.Client().Disconnect(context.Background())
	}()

	catalog, err := subscription.LoadCatalogFile(appCfg.PlanCatalogFile)
	if err != nil {
		log.Error("failed to load plan catalog", logger.Error(err))
		os.Exit(1)
	}

	mpClient, err := mercadopago.NewClient(mpCfg)
	if err != nil {
		log.Error("failed to create processor client", logger.Error(err))
		os.Exit(1)
	}
	policy := mercadopago.NewSignaturePolicy(mpCfg.WebhookSecret)
	if !policy.Enforced() {
		log.Warn("webhook signature verification is disabled, set MP_WEBHOOK_SECRET to enforce it")
	}

	mailer := newMailer(log, emailCfg)

	var redisClient *goredis.Client
	if redisCfg.ConnectionURL != "" {
		redisClient, err = redis.Connect(ctx, redisCfg)
		if err != nil {
			log.Error("failed to connect to redis", logger.Error(err))
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
	}

	store := subscription.NewMongoStore(db)
	events := subscription.NewMongoEventStore(db)
	tokens := account.NewMongoTokenStore(db)

	sessions := account.NewSessions(cookie.New(), store, appCfg.isProduction())
	billingSvc := billing.NewService(log, store, events, mpClient, policy, catalog, baseURL)
	accountSvc := account.NewService(log, store, tokens, mailer, billingSvc, sessions, baseURL, appCfg.LoginTokenTTL)

	loginLimiter, err := newLimiter(redisClient, "rl:login", appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	if err != nil {
		log.Error("failed to build login rate limiter", logger.Error(err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.Healthcheck(map[string]httpserver.Probe{
		"mongodb": mongo.Healthcheck(db.Client()),
	}))

	r.Route("/api", func(api chi.Router) {
		api.Mount("/billing", billing.Router(billingSvc, billing.RouterOptions{
			RequireSession: sessions.Middleware,
			Sessions:       sessions,
		}))
		api.Mount("/account", account.Router(accountSvc, ratelimit.Middleware(loginLimiter)))

		if appCfg.AdminEmail != "" && appCfg.AdminPasswordHash != "" {
			adminLimiter, err := newLimiter(redisClient, "rl:admin", appCfg.AdminRateLimit, appCfg.AdminRateWindow)
			if err != nil {
				log.Error("failed to build admin rate limiter", logger.Error(err))
				os.Exit(1)
			}
			adminSvc := admin.NewService(log, store, events)
			guard := admin.NewGuard(appCfg.AdminEmail, appCfg.AdminPasswordHash)
			api.Mount("/admin", admin.Router(adminSvc, guard, adminLimiter))
		} else {
			log.Warn("admin API not mounted, set ADMIN_EMAIL and ADMIN_PASSWORD_HASH to enable it")
		}
	})

	srv := httpserver.New(httpCfg, log)
	if err := srv.Run(ctx, r); err != nil {
		log.Error("http server failed", logger.Error(err))
		os.Exit(1)
	}
}

func newMailer(log *slog.Logger, cfg email.Config) email.EmailSender {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		log.Warn("postmark tokens missing, outbound email is logged instead of sent")
		return email.NewDevSender(log)
	}
	sender, err := email.NewPostmarkClient(cfg)
	if err != nil {
		log.Warn("invalid postmark configuration, outbound email is logged instead of sent",
			logger.Error(err))
		return email.NewDevSender(log)
	}
	return sender
}

// newLimiter builds a sliding-window limiter on Redis when available and
// on process memory otherwise.
func newLimiter(client *goredis.Client, prefix string, limit int, window time.Duration) (ratelimit.Limiter, error) {
	var store ratelimit.Store
	if client != nil {
		store = ratelimit.NewRedisStore(client, prefix)
	} else {
		store = ratelimit.NewMemoryStore()
	}
	return ratelimit.NewSlidingWindow(store, limit, window)
}
