package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Kardex-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Kardex-api/internal/jobs"
	"github.com/jhoicas/Kardex-api/pkg/config"
	"github.com/jhoicas/Kardex-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "worker",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	reconcile := jobs.NewReconcileStockJob(
		postgres.NewCompanyRepository(pool),
		postgres.NewTxRunner(pool),
		log.Component("jobs"),
	)

	var cron []jobs.CronRegistration
	if cfg.Worker.ReconcileCron != "" {
		task, err := jobs.NewReconcileStockTask(0)
		if err != nil {
			log.Fatal().Err(err).Msg("construir tarea de reconciliación")
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.Worker.ReconcileCron,
			Task:    task,
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   jobs.RedisOpts(cfg.Redis),
		Concurrency: cfg.Worker.Concurrency,
		Log:         log.Component("worker"),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcileStock, Handler: reconcile.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("iniciar worker")
	}

	log.Info().Str("reconcile_cron", cfg.Worker.ReconcileCron).Msg("worker en marcha")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}
