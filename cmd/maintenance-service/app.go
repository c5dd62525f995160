package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/config"
	"maintenance-service/internal/db"
	httphandler "maintenance-service/internal/http"
	"maintenance-service/internal/http/middleware"
	"maintenance-service/internal/lock"
	"maintenance-service/internal/logger"
	"maintenance-service/internal/notify"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/scheduler"
	"maintenance-service/internal/service"
)

type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	database  *gorm.DB
	redis     *redis.Client
	handler   *httphandler.Handler
	scheduler *scheduler.Scheduler
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{cfg: cfg, log: log, database: database}

	clock := service.SystemClock{}
	location := cfg.Location()
	tx := db.NewTransactor(database)

	vehicleRepo := repository.NewVehicleRepository(database)
	planRepo := repository.NewPlanRepository(database)
	partRepo := repository.NewPartRepository(database)
	workOrderRepo := repository.NewWorkOrderRepository(database)
	alertRepo := repository.NewAlertRepository(database)
	userRepo := repository.NewUserRepository(database)

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	ledger := service.NewInventoryLedger(tx, partRepo)
	vehicleService := service.NewVehicleService(vehicleRepo)
	planService := service.NewPlanService(planRepo, vehicleRepo, clock, location)
	partService := service.NewPartService(partRepo, ledger)

	var locker service.Locker = lock.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedisLocker(a.redis, log)
	}

	alertService := service.NewAlertService(vehicleRepo, alertRepo, notifier, locker, clock, service.AlertSettings{
		Recipient: cfg.Alerts.Recipient,
		Subject:   cfg.Alerts.Subject,
		Location:  location,
		LockTTL:   cfg.Alerts.LockTTL,
	}, log)
	workOrderService := service.NewWorkOrderService(service.WorkOrderDeps{
		Tx:       tx,
		Orders:   workOrderRepo,
		Vehicles: vehicleRepo,
		Users:    userRepo,
		Ledger:   ledger,
		Plans:    planService,
		Alerts:   alertService,
		Clock:    clock,
		Location: location,
		Log:      log,
	})

	a.scheduler = scheduler.New(alertService, clock, scheduler.Config{
		DailyAt:  cfg.DailyAt(),
		Location: location,
	}, log)

	a.handler = httphandler.NewHandler(vehicleService, planService, partService, workOrderService, alertService, log)
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokenParser := auth.NewParser(a.cfg.Auth.AccessSecret)
	router := httphandler.NewRouter(a.handler, middleware.Auth(tokenParser), a.cfg.Environment, func(ctx context.Context) error {
		return db.HealthCheck(ctx, a.database)
	})

	addr := fmt.Sprintf("%s:%d", a.cfg.HTTP.Host, a.cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	schedulerDone := make(chan struct{})
	if withoutScheduler {
		close(schedulerDone)
	} else {
		go func() {
			defer close(schedulerDone)
			a.scheduler.Run(ctx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Msg("starting maintenance service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-schedulerDone
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown failed")
	}
	<-schedulerDone
	return nil
}

func runScanAlerts(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.scheduler.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("alert scan failed: %w", err)
	}
	if result == nil {
		a.log.Warn().Msg("another alert scan holds the lock")
	}
	return nil
}
