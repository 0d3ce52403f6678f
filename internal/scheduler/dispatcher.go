package scheduler

import (
	"context"
	"time"

	"estateleads_backend/platform/config"
	"estateleads_backend/platform/logger"
)

// DispatcherConfig is the config surface the pass dispatcher needs.
type DispatcherConfig interface {
	config.SchedulerConfig
	config.DistributionConfig
}

// PassDispatcher enqueues a distribution pass on a fixed interval. It only
// produces work; execution happens in the worker so an API replica and the
// scheduler binary never run passes in-process.
type PassDispatcher struct {
	enqueuer    PassEnqueuer
	interval    time.Duration
	staleWindow int
	log         *logger.Logger
}

func NewPassDispatcher(cfg DispatcherConfig, enqueuer PassEnqueuer, log *logger.Logger) *PassDispatcher {
	interval := cfg.GetDistributionInterval()
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PassDispatcher{
		enqueuer:    enqueuer,
		interval:    interval,
		staleWindow: cfg.GetStaleWindowDays(),
		log:         log,
	}
}

func (d *PassDispatcher) Run(ctx context.Context) {
	if d == nil || d.enqueuer == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("distribution dispatcher started", "interval", d.interval.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		err := d.enqueuer.EnqueueDistributionPass(ctx, DistributionPassPayload{
			StaleWindowDays: d.staleWindow,
			TriggeredBy:     "schedule",
		})
		if err != nil {
			d.log.Warn("failed to enqueue distribution pass", "error", err)
		}
	}
}
