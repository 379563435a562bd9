package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"food-storefront/api"
	"food-storefront/bot"
	"food-storefront/config"
	"food-storefront/db"
	"food-storefront/events"
	"food-storefront/logger"
	"food-storefront/mail"
	"food-storefront/services"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New("storefront", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cfg, log, os.Args[1], os.Args[2:]); err != nil {
			log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
		}
		return
	}
	if err := serve(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (services.Store, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return services.NewMemoryStore(), nil
	}
	if err := db.Init(ctx, cfg.DB); err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return services.NewPgStore(db.Pool), nil
}

// runCommand handles the maintenance subcommands: migrate, create-admin and
// cleanup-duplicates.
func runCommand(ctx context.Context, cfg *config.Config, log zerolog.Logger, name string, args []string) error {
	switch name {
	case "migrate", "create-admin", "cleanup-duplicates":
	default:
		return fmt.Errorf("unknown command %q (want migrate, create-admin or cleanup-duplicates)", name)
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("%s needs STORE=postgres", name)
	}
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	switch name {
	case "migrate":
		return applyMigrations(ctx, log)
	case "create-admin":
		if len(args) != 1 {
			return errors.New("usage: create-admin <username> (password in ADMIN_PASSWORD)")
		}
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			return errors.New("ADMIN_PASSWORD is not set")
		}
		if err := services.NewAuthService(store, store).CreateAdmin(ctx, args[0], password); err != nil {
			return err
		}
		log.Info().Str("username", args[0]).Msg("admin user saved")
		return nil
	default:
		apply := len(args) > 0 && args[0] == "--apply"
		ids, deleted, err := services.CleanupDuplicateMeals(ctx, store, apply)
		if err != nil {
			return err
		}
		log.Info().Strs("meal_ids", ids).Int("deleted", deleted).Bool("applied", apply).Msg("duplicate meal cleanup")
		return nil
	}
}

func newSequencer(cfg *config.Config, store services.Store) (services.Sequencer, func(), error) {
	switch cfg.Shop.Sequencer {
	case config.SequencerRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		return services.NewRedisSequencer(rdb, store), func() { _ = rdb.Close() }, nil
	case config.SequencerPostgres:
		return services.NewPgSequencer(db.Pool), func() {}, nil
	default:
		return services.NewMemorySequencer(store), func() {}, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Store == config.StorePostgres {
		if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
			if err := applyMigrations(ctx, log); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
	}

	seq, closeSeq, err := newSequencer(cfg, store)
	if err != nil {
		return err
	}
	defer closeSeq()

	orders := services.NewOrderService(store, nil, log)
	var notifiers services.Notifiers

	if cfg.RabbitMQ.URL != "" {
		conn, err := events.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer conn.Close()
		notifiers = append(notifiers, events.NewPublisher(conn.Channel, cfg.RabbitMQ.Exchange, log))
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("publishing order events")
	}
	if cfg.Email.SenderEmail != "" {
		ses, err := mail.NewSESNotifier(ctx, cfg.Email, store, cfg.Shop.Name, log)
		if err != nil {
			return fmt.Errorf("ses: %w", err)
		}
		notifiers = append(notifiers, ses)
	}
	var adminBot *bot.AdminBot
	if cfg.Telegram.Token != "" {
		adminBot, err = bot.New(cfg.Telegram.Token, cfg.Telegram.AdminChatID, bot.Deps{
			Orders:   orders,
			Pointers: store,
			Stats:    store,
			Location: cfg.Shop.Location,
			Log:      log.With().Str("component", "bot").Logger(),
		})
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		notifiers = append(notifiers, adminBot)
	}
	async := services.NewAsyncNotifier(notifiers, 15*time.Second, 256, log)
	defer async.Close()
	orders.SetNotifier(async)

	checkout := services.NewCheckoutService(services.CheckoutDeps{
		Orders:    store,
		Assets:    store,
		Numbers:   services.NewOrderNumberAllocator(seq, cfg.Shop.Location),
		Settings:  store,
		Notifier:  async,
		Tolerance: cfg.Shop.TotalTolerance,
		Log:       log,
	})

	router := api.NewRouter(api.Deps{
		Store:      store,
		Orders:     orders,
		Checkout:   checkout,
		Auth:       services.NewAuthService(store, store),
		Location:   cfg.Shop.Location,
		Secret:     cfg.Session.Secret,
		Production: cfg.HTTP.Production,
		RateLimit:  cfg.HTTP.RateLimit,
		RateBurst:  cfg.HTTP.RateBurst,
		Log:        log,
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Str("store", cfg.Store).Str("sequencer", cfg.Shop.Sequencer).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if adminBot != nil {
		g.Go(func() error { return adminBot.Run(gctx) })
	}
	return g.Wait()
}
