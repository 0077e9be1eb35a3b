package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/authorization"
	"github.com/smallbiznis/brokerage/internal/clock"
	obsmetrics "github.com/smallbiznis/brokerage/internal/observability/metrics"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const systemActor = "system:scheduler"

var ErrInvalidConfig = errors.New("scheduler: invalid config")

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	PolicySvc policydomain.Service
	AuthzSvc  authorization.Service `optional:"true"`
	Config    Config                `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	genID     *snowflake.Node
	clock     clock.Clock
	policySvc policydomain.Service
	authzSvc  authorization.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.PolicySvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		genID:     p.GenID,
		clock:     p.Clock,
		policySvc: p.PolicySvc,
		authzSvc:  p.AuthzSvc,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next tick retries
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobOverdueSweep, s.OverdueSweepJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, s.cfg.JobTimeout, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty means every job runs (monolith mode)
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), jobName) {
			return true
		}
	}
	return false
}

// OverdueSweepJob flips every pending installment due before today to
// overdue.
func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobOverdueSweep)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}

	if err := s.authorizeSystem(ctx, authorization.ObjectInstallment, authorization.ActionInstallmentReclassify); err != nil {
		s.logSchedulerError(ctx, run, "scheduler.authorize.failed", JobOverdueSweep, err)
		return err
	}

	today := clock.Today(s.clock)
	report, err := s.policySvc.ReclassifyOverdue(ctx, today)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.overdue.failed", JobOverdueSweep, err)
		return err
	}

	run.AddProcessed(int(report.Reclassified))
	obsmetrics.Scheduler().AddBatchProcessed(JobOverdueSweep, "installment", int(report.Reclassified))
	s.logger(ctx).Info("scheduler.overdue.swept",
		zap.String("as_of", today.Format("2006-01-02")),
		zap.Int64("reclassified", report.Reclassified),
		zap.Int("overdue", report.Count),
		zap.String("overdue_total", report.Total.StringFixed(2)),
	)
	return nil
}

func (s *Scheduler) authorizeSystem(ctx context.Context, object string, action string) error {
	if s.authzSvc == nil {
		return nil
	}
	return s.authzSvc.Authorize(ctx, systemActor, authorization.RoleSystem, object, action)
}
