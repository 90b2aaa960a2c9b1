package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
	"github.com/vibast-solutions/ms-go-dispatcher/app/jobs"
	"github.com/vibast-solutions/ms-go-dispatcher/app/lock"
	"github.com/vibast-solutions/ms-go-dispatcher/app/preparer"
	"github.com/vibast-solutions/ms-go-dispatcher/app/provider"
	"github.com/vibast-solutions/ms-go-dispatcher/app/renderer"
	"github.com/vibast-solutions/ms-go-dispatcher/app/repository"
	"github.com/vibast-solutions/ms-go-dispatcher/app/scheduler"
	"github.com/vibast-solutions/ms-go-dispatcher/app/service"
	"github.com/vibast-solutions/ms-go-dispatcher/config"
)

// deps holds the process-wide handles every command wires from.
type deps struct {
	cfg        *config.Config
	logger     *logrus.Logger
	db         *sql.DB
	rdb        *redis.Client
	failures   *repository.DeliveryFailureRepository
	dispatcher *service.Dispatcher
}

func (d *deps) Close() {
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}

type depOptions struct {
	// redis connects to Redis regardless of the lock backend.
	redis bool
	// lock is set by commands that run sweeps under the single-flight guard.
	lock bool
}

// loadDeps connects to MySQL and, when needed, Redis, and builds the
// dispatcher with every job registered.
func loadDeps(ctx context.Context, opts depOptions) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	d := &deps{cfg: cfg, logger: newLogger(cfg)}

	d.db, err = openMySQL(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if opts.redis || (opts.lock && usesRedisLock(cfg)) {
		d.rdb, err = openRedis(ctx, cfg)
		if err != nil {
			d.Close()
			return nil, err
		}
	}

	emailProvider, err := buildEmailProvider(ctx, cfg, d.logger)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("build email provider: %w", err)
	}

	templates, err := renderer.New(renderer.Defaults())
	if err != nil {
		d.Close()
		return nil, err
	}

	site := jobs.Site{Name: cfg.SenderName, URL: cfg.StorefrontURL}
	recipients := repository.NewRecipientRepository(d.db)
	orders := repository.NewOrderRepository(d.db)
	products := repository.NewProductRepository(d.db)
	d.failures = repository.NewDeliveryFailureRepository(d.db)

	d.dispatcher = service.NewDispatcher(service.DispatcherOptions{
		Renderer:    templates,
		Preparer:    preparer.NewChain(preparer.NewTextPreparer(), preparer.NewRawPreparer(cfg.SESSourceEmail, cfg.SenderName)),
		Provider:    emailProvider,
		Failures:    d.failures,
		Logger:      d.logger,
		SendTimeout: cfg.SendTimeout,
		Workers:     cfg.DispatchWorkers,
	},
		jobs.NewWelcomeJob(recipients, site),
		jobs.NewPendingOrderJob(orders, site),
		jobs.NewDeliveredOrderJob(orders, site),
		jobs.NewPromotionJob(recipients, products, site, cfg.PromotionSampleSize),
	)

	return d, nil
}

// newScheduler builds the cron scheduler guarded by the configured lock backend.
func (d *deps) newScheduler() (*scheduler.Scheduler, error) {
	locker, err := buildLocker(d.cfg, d.db, d.rdb)
	if err != nil {
		return nil, err
	}
	return scheduler.New(scheduler.Options{
		Runner:       d.dispatcher,
		Locker:       locker,
		Schedules:    scheduleMap(d.cfg.Schedules),
		BatchTimeout: d.cfg.BatchTimeout,
		SendTimeout:  d.cfg.SendTimeout,
		Logger:       d.logger,
	})
}

func openMySQL(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(cfg.MySQLMaxLife)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

func buildEmailProvider(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (provider.EmailProvider, error) {
	switch strings.ToLower(cfg.EmailProvider) {
	case "", "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return provider.NewSESProvider(awsCfg, cfg.SESSourceEmail), nil
	case "noop":
		return provider.NewNoopProvider(logger), nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER: %s", cfg.EmailProvider)
	}
}

func buildLocker(cfg *config.Config, db *sql.DB, rdb *redis.Client) (lock.Locker, error) {
	switch strings.ToLower(cfg.LockBackend) {
	case "", "redis":
		if rdb == nil {
			return nil, fmt.Errorf("LOCK_BACKEND=redis needs a redis connection")
		}
		return lock.NewRedisLocker(rdb), nil
	case "mysql":
		return lock.NewMySQLLocker(db), nil
	case "memory":
		return lock.NewMemoryLocker(), nil
	default:
		return nil, fmt.Errorf("unsupported LOCK_BACKEND: %s", cfg.LockBackend)
	}
}

func usesRedisLock(cfg *config.Config) bool {
	backend := strings.ToLower(cfg.LockBackend)
	return backend == "" || backend == "redis"
}

func scheduleMap(s config.Schedules) map[entity.JobType]string {
	return map[entity.JobType]string{
		entity.JobWelcome:         s.Welcome,
		entity.JobPendingReminder: s.PendingOrder,
		entity.JobDeliveredNotice: s.DeliveredOrder,
		entity.JobPromotion:       s.Promotion,
	}
}
