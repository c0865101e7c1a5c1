package scheduler

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/valeevte/PriceOptimizer/internal/logger"
)

// Refresher advances competitor prices. *pricing.Service implements it.
type Refresher interface {
	RefreshCompetitorPrices(ctx context.Context) error
}

// Config holds the cron schedule of the refresh job.
type Config struct {
	Spec string
	// RunOnStart triggers one refresh before the first scheduled tick.
	RunOnStart bool
}

// Run schedules refreshes and blocks until ctx is cancelled, then waits for
// a refresh already in progress to finish.
func Run(ctx context.Context, r Refresher, cfg Config, log *logger.Entry) error {
	spec := cfg.Spec
	if spec == "" {
		spec = "@every 60s"
	}

	job := &refreshJob{ctx: ctx, refresher: r, log: log}
	c := cron.New()
	if _, err := c.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(job)); err != nil {
		return errors.Wrapf(err, "scheduler: invalid spec %q", spec)
	}

	log.WithField("spec", spec).Info("scheduler started")
	if cfg.RunOnStart {
		job.Run()
	}
	c.Start()

	<-ctx.Done()
	log.Info("scheduler stopping: context cancelled")
	<-c.Stop().Done()
	job.wait()
	return nil
}

type refreshJob struct {
	ctx       context.Context
	refresher Refresher
	log       *logger.Entry
	wg        sync.WaitGroup
}

func (j *refreshJob) Run() {
	if j.ctx.Err() != nil {
		return
	}
	j.wg.Add(1)
	defer j.wg.Done()
	if err := j.refresher.RefreshCompetitorPrices(j.ctx); err != nil {
		j.log.WithError(err).Error("scheduler: competitor refresh failed")
	}
}

func (j *refreshJob) wait() { j.wg.Wait() }
