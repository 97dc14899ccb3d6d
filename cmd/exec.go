package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"meetup-api/config"
	"meetup-api/internal/cache"
	"meetup-api/internal/notify"
	"meetup-api/internal/services"
	"meetup-api/internal/store"
	"meetup-api/monitoring"
	"meetup-api/security"
	"meetup-api/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize Redis
	redisClient, err := utils.NewRedisClient(context.Background(), utils.RedisOptions{
		URL:          cfg.RedisURL,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	statsCache := cache.NewStatsCache(redisClient, cfg.StatsCacheTTL)
	monitor := monitoring.NewMonitor(statsCache, cfg.MetricsInterval)
	notifier := newNotifier(cfg)
	repo := store.New(app)

	// Initialize services
	eventService := services.NewEventService(repo, statsCache, notifier, monitor, cfg)
	sessionService := services.NewSessionService(repo, statsCache, notifier, monitor, cfg)
	userService := services.NewUserService(repo, cfg)

	limiter := security.NewRateLimiter(redisClient, cfg.SignUpRateLimit, cfg.SignUpRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.IsDevelopment(),
	})
	app.RootCmd.AddCommand(newExportCommand(repo, eventService))

	store.RegisterHooks(app, cfg.SlugSuffixSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		registerRoutes(se, routeHandlers{
			events:   eventService,
			sessions: sessionService,
			users:    userService,
			limiter:  limiter,
			redis:    redisClient,
		})

		if cfg.EnableMetrics {
			go monitor.Run(ctx)
			go monitoring.Serve(ctx, cfg.MetricsPort)
		}

		log.Println("Server routes registered")
		return se.Next()
	})

	return app.Start()
}

func newNotifier(cfg *config.Config) *notify.Notifier {
	if !cfg.NotificationsEnabled() {
		slog.Info("PubNub keys not configured, realtime notifications disabled")
		return notify.NewNotifier(nil, nil)
	}

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	breaker := notify.NewBreaker("pubnub", cfg.NotifyFailureThreshold, cfg.NotifyCooldown)
	return notify.NewNotifier(notify.NewPubNubPublisher(pn), breaker)
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
