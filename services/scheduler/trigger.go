package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Trigger starts runs on some schedule.
type Trigger interface {
	Start()
	Stop(ctx context.Context)
}

// CronTrigger fires the daily broadcast on a cron spec in a fixed location.
type CronTrigger struct {
	c        *cron.Cron
	job      *DailyBroadcast
	selector MessageSelector
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCronTrigger(spec string, loc *time.Location, job *DailyBroadcast, selector MessageSelector, logger *zap.Logger) (*CronTrigger, error) {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	t := &CronTrigger{
		c:        cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		job:      job,
		selector: selector,
		timeout:  time.Hour,
		logger:   logger,
	}
	if _, err := t.c.AddFunc(spec, t.fire); err != nil {
		return nil, fmt.Errorf("invalid daily broadcast schedule %q: %w", spec, err)
	}
	return t, nil
}

func (t *CronTrigger) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if _, err := t.job.RunDailyBroadcast(ctx, t.selector); err != nil {
		t.logger.Error("Scheduled daily broadcast failed", zap.Error(err))
	}
}

func (t *CronTrigger) Start() {
	t.c.Start()
	for _, e := range t.c.Entries() {
		t.logger.Info("Daily broadcast scheduled", zap.Time("next", e.Next))
	}
}

// Stop waits for a running job to finish or ctx to end.
func (t *CronTrigger) Stop(ctx context.Context) {
	select {
	case <-t.c.Stop().Done():
	case <-ctx.Done():
	}
}
