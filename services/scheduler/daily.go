package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	notificationRepo "healthpulse/database/repository/notification"
	"healthpulse/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunIDLayout formats the scheduler-local date that identifies a run.
const RunIDLayout = "2006-01-02"

var ErrRunInProgress = errors.New("daily broadcast already running for this date")

// Notifier persists and delivers one run notification.
type Notifier interface {
	NotifyForRun(ctx context.Context, ownerID, message, runID string) (models.Notification, error)
}

// Directory enumerates every registered user.
type Directory interface {
	ListRecipients(ctx context.Context, afterID string, limit int) ([]models.Recipient, error)
}

type Options struct {
	Workers     int
	PageSize    int
	UnitTimeout time.Duration
	Location    *time.Location
	// LockTTL bounds how long a crashed run blocks the same runID. A live run
	// keeps renewing it.
	LockTTL time.Duration
	Now     func() time.Time
}

// UnitFailure records a user whose notification could not be persisted.
type UnitFailure struct {
	OwnerID string `json:"ownerId"`
	Error   string `json:"error"`
}

type RunReport struct {
	RunID      string        `json:"runId"`
	Message    string        `json:"message"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Users      int           `json:"users"`
	Created    int           `json:"created"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Failures   []UnitFailure `json:"failures,omitempty"`
}

// DailyBroadcast writes one notification per user per run and pushes it live.
type DailyBroadcast struct {
	notifier Notifier
	users    Directory
	lock     RunLock
	opts     Options
	logger   *zap.Logger

	running atomic.Bool

	mu   sync.RWMutex
	last *RunReport
}

func NewDailyBroadcast(notifier Notifier, users Directory, opts Options, logger *zap.Logger) *DailyBroadcast {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 500
	}
	if opts.UnitTimeout <= 0 {
		opts.UnitTimeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyBroadcast{notifier: notifier, users: users, opts: opts, logger: logger}
}

// SetRunLock enables cross-process exclusion for a runID.
func (d *DailyBroadcast) SetRunLock(l RunLock) {
	d.lock = l
}

// RunIDAt is the runID a trigger at t belongs to.
func (d *DailyBroadcast) RunIDAt(t time.Time) string {
	return t.In(d.opts.Location).Format(RunIDLayout)
}

// RunDailyBroadcast runs the batch for the current scheduler-local date.
// Per-user failures are reported, never returned; the error is for runs
// that could not start or could not enumerate users.
func (d *DailyBroadcast) RunDailyBroadcast(ctx context.Context, selector MessageSelector) (RunReport, error) {
	if !d.running.CompareAndSwap(false, true) {
		return RunReport{}, ErrRunInProgress
	}
	defer d.running.Store(false)

	started := d.opts.Now()
	runID := d.RunIDAt(started)

	if d.lock != nil {
		release, ok, err := d.lock.Acquire(ctx, runID, d.opts.LockTTL)
		if err != nil {
			return RunReport{}, err
		}
		if !ok {
			return RunReport{}, ErrRunInProgress
		}
		defer release()
	}

	report := RunReport{RunID: runID, Message: selector.Select(runID), StartedAt: started}
	d.logger.Info("Daily broadcast started", zap.String("runId", runID), zap.Time("startedAt", started))

	err := d.fanOut(ctx, &report)
	report.FinishedAt = d.opts.Now()
	d.store(report)

	fields := []zap.Field{
		zap.String("runId", runID),
		zap.Int("users", report.Users),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("took", report.FinishedAt.Sub(started)),
	}
	if err != nil {
		d.logger.Error("Daily broadcast aborted", append(fields, zap.Error(err))...)
		return report, err
	}
	d.logger.Info("Daily broadcast finished", fields...)
	return report, nil
}

func (d *DailyBroadcast) fanOut(ctx context.Context, report *RunReport) error {
	var (
		created, skipped int64
		failMu           sync.Mutex
	)

	g := new(errgroup.Group)
	g.SetLimit(d.opts.Workers)

	afterID := ""
	var listErr error
	for {
		page, err := d.users.ListRecipients(ctx, afterID, d.opts.PageSize)
		if err != nil {
			listErr = fmt.Errorf("failed to list recipients after %q: %w", afterID, err)
			break
		}
		for _, r := range page {
			ownerID := r.ID
			report.Users++
			// Go blocks while Workers units are in flight.
			g.Go(func() error {
				err := d.runUnit(ctx, ownerID, report.Message, report.RunID)
				switch {
				case err == nil:
					atomic.AddInt64(&created, 1)
				case errors.Is(err, notificationRepo.ErrDuplicateRun):
					atomic.AddInt64(&skipped, 1)
				default:
					d.logger.Warn("Daily broadcast unit failed",
						zap.String("owner", ownerID),
						zap.String("runId", report.RunID),
						zap.Time("runStartedAt", report.StartedAt),
						zap.Error(err))
					failMu.Lock()
					report.Failures = append(report.Failures, UnitFailure{OwnerID: ownerID, Error: err.Error()})
					failMu.Unlock()
				}
				return nil
			})
		}
		if len(page) < d.opts.PageSize {
			break
		}
		afterID = page[len(page)-1].ID
	}
	_ = g.Wait()

	report.Created = int(created)
	report.Skipped = int(skipped)
	report.Failed = len(report.Failures)
	return listErr
}

func (d *DailyBroadcast) runUnit(ctx context.Context, ownerID, message, runID string) error {
	uctx, cancel := context.WithTimeout(ctx, d.opts.UnitTimeout)
	defer cancel()
	_, err := d.notifier.NotifyForRun(uctx, ownerID, message, runID)
	return err
}

func (d *DailyBroadcast) store(r RunReport) {
	d.mu.Lock()
	d.last = &r
	d.mu.Unlock()
}

// LastReport returns the most recent run, if any.
func (d *DailyBroadcast) LastReport() (RunReport, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return RunReport{}, false
	}
	return *d.last, true
}
