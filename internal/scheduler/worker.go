package scheduler

import (
	"context"
	"fmt"
	"time"

	"estateleads_backend/internal/distribution"
	"estateleads_backend/platform/config"
	"estateleads_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// WorkerConfig is the config surface the worker needs.
type WorkerConfig interface {
	config.SchedulerConfig
	config.DistributionConfig
}

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	distribution *distribution.Service
	staleWindow  time.Duration
	log          *logger.Logger
}

func NewWorker(cfg WorkerConfig, dist *distribution.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:       server,
		mux:          mux,
		distribution: dist,
		staleWindow:  time.Duration(cfg.GetStaleWindowDays()) * 24 * time.Hour,
		log:          log,
	}

	mux.HandleFunc(TaskDistributionPass, w.handleDistributionPass)

	return w, nil
}

func (w *Worker) handleDistributionPass(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDistributionPassPayload(task)
	if err != nil {
		return err
	}

	window := w.staleWindow
	if payload.StaleWindowDays > 0 {
		window = time.Duration(payload.StaleWindowDays) * 24 * time.Hour
	}

	sum, err := w.distribution.RunPass(ctx, window)
	if err != nil {
		w.log.Error("distribution pass aborted", "error", err, "triggered_by", payload.TriggeredBy)
		return err
	}

	w.log.Info("distribution pass complete",
		"triggered_by", payload.TriggeredBy,
		"assigned", sum.Assigned,
		"reassigned", sum.Reassigned,
		"skipped", sum.Skipped,
		"errors", len(sum.Errors),
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
