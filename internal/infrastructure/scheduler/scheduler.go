package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Scheduler drives daemon-mode backup runs on cron specs with seconds
// granularity. Jobs receive the context passed to Start, so terminating
// the daemon cancels an in-flight run.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		ctx:  context.Background(),
	}
}

// AddJob registers a job. Errors from the job itself are the job's
// responsibility to log; the scheduler never stops over them.
func (s *Scheduler) AddJob(spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		_ = job(s.ctx)
	})
	return err
}

func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
