package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"todo-planner/internal/bot"
	"todo-planner/internal/cache"
	"todo-planner/internal/config"
	"todo-planner/internal/controller"
	"todo-planner/internal/queue"
	"todo-planner/internal/repository"
	"todo-planner/internal/routes"
	"todo-planner/internal/service"
	"todo-planner/internal/timezone"
	"todo-planner/pkg/logger"
)

const usage = "usage: todoplanner [serve|migrate|notify-expired|notify-finished]"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := run(ctx, cmd); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "todoplanner stopped with error", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Setup(os.Stdout, cfg.LogLevel)

	zone, err := timezone.Load(cfg.DisplayTimezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	app, err := newApp(ctx, cfg, db, zone)
	if err != nil {
		return err
	}
	defer app.close()

	switch cmd {
	case "migrate":
		logger.Info(ctx, "Migrations applied")
		return nil
	case "notify-expired":
		return app.runNotifications(ctx, app.notifications.RunExpired)
	case "notify-finished":
		return app.runNotifications(ctx, app.notifications.RunFinished)
	case "serve":
		return app.serve(ctx)
	default:
		return errors.New(usage)
	}
}

type app struct {
	cfg           config.Config
	zone          *timezone.Zone
	redis         *redis.Client
	store         *cache.Store
	kafka         *queue.Notifier
	telegram      *bot.Bot
	auth          *service.AuthService
	todos         *service.ToDoService
	categories    *service.CategoryService
	notifications *service.NotificationService
	health        *controller.HealthController
}

func newApp(ctx context.Context, cfg config.Config, db *gorm.DB, zone *timezone.Zone) (*app, error) {
	a := &app{cfg: cfg, zone: zone}

	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn(ctx, "Redis disabled", "error", err)
		} else {
			a.redis = client
		}
	}
	a.store = cache.NewStore(a.redis, cfg.CacheTTL())

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)
	todoRepo := repository.NewToDoRepository(db)

	a.auth = service.NewAuthService(userRepo, repository.NewTelegramLinkRepository(db), cfg.JWTSecret, cfg.TokenTTL())
	a.todos = service.NewToDoService(todoRepo, categoryRepo, tagRepo, zone, a.store)
	a.categories = service.NewCategoryService(categoryRepo, tagRepo, a.store)

	notifiers := service.MultiNotifier{service.LogNotifier{}}
	if cfg.TelegramToken != "" {
		telegram, err := bot.New(cfg.TelegramToken, userRepo, a.todos, a.auth, zone)
		if err != nil {
			return nil, fmt.Errorf("bot: %w", err)
		}
		a.telegram = telegram
		notifiers = append(notifiers, bot.NewNotifier(telegram.API(), zone))
	}
	if len(cfg.KafkaBrokers) > 0 {
		queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		a.kafka = queue.NewNotifier(queue.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		notifiers = append(notifiers, a.kafka)
	}

	var ledger service.Ledger
	if cfg.NotifyDedup {
		if a.redis != nil {
			ledger = cache.NewLedger(a.redis)
		} else {
			ledger = repository.NewNotificationLogRepository(db)
		}
	}
	a.notifications = service.NewNotificationService(todoRepo, userRepo, notifiers, ledger, zone)

	if a.redis != nil {
		a.health = controller.NewHealthController(db, a.store)
	} else {
		a.health = controller.NewHealthController(db, nil)
	}
	return a, nil
}

func (a *app) close() {
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			logger.Warn(context.Background(), "Kafka writer close failed", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) runNotifications(ctx context.Context, job func(context.Context, time.Time) (service.RunReport, error)) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.JobTimeout())
	defer cancel()
	report, err := job(ctx, time.Now())
	if err != nil {
		return err
	}
	logger.Info(ctx, "Notification run finished",
		"kind", report.Kind, "day", report.Day,
		"owners", report.Owners, "to_dos", report.ToDos, "failed", report.Failed)
	return nil
}

func (a *app) serve(ctx context.Context) error {
	scheduler := service.NewSchedulerService(a.zone.Location(), a.cfg.JobTimeout())
	if _, err := scheduler.ScheduleDaily("notify-expired", a.cfg.ExpiredJobAt, func(ctx context.Context) error {
		_, err := a.notifications.RunExpired(ctx, time.Now())
		return err
	}); err != nil {
		return fmt.Errorf("schedule expired job: %w", err)
	}
	if _, err := scheduler.ScheduleDaily("notify-finished", a.cfg.FinishedJobAt, func(ctx context.Context) error {
		_, err := a.notifications.RunFinished(ctx, time.Now())
		return err
	}); err != nil {
		return fmt.Errorf("schedule finished job: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr: ":" + a.cfg.HTTPPort,
		Handler: routes.Router(routes.Deps{
			Auth:        a.auth,
			ToDos:       a.todos,
			Categories:  a.categories,
			Health:      a.health,
			CORSOrigins: a.cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "Server starting", "port", a.cfg.HTTPPort, "timezone", a.zone.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if a.telegram != nil {
		g.Go(func() error {
			return a.telegram.Start(ctx)
		})
	}

	err := g.Wait()
	logger.Info(context.Background(), "Shutdown complete")
	return err
}
