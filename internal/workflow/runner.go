package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"tether/internal/config"
	"tether/internal/discovery"
	"tether/internal/logging"
	"tether/internal/notifications"
	"tether/internal/preflight"
	"tether/internal/queue"
	"tether/internal/services"
)

// Converter turns one discovered session into a bundle on disk. The
// conversion pipeline implements it; tests substitute fakes.
type Converter interface {
	Convert(ctx context.Context, src *discovery.Source) (string, error)
}

// Summary reports the outcome of one batch run.
type Summary struct {
	RunID     string
	Claimed   int
	Completed int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithNotifier substitutes the notification service, primarily for tests.
func WithNotifier(notifier notifications.Service) Option {
	return func(r *Runner) { r.notifier = notifier }
}

// WithProgressWriter enables the interactive progress bar on w.
func WithProgressWriter(w io.Writer) Option {
	return func(r *Runner) { r.progress = w }
}

// Runner drains the pending queue on a fixed-size worker pool.
type Runner struct {
	cfg       *config.Config
	store     *queue.Store
	converter Converter
	notifier  notifications.Service
	logger    *slog.Logger
	progress  io.Writer

	mu      sync.Mutex
	summary Summary
}

// NewRunner builds a batch runner over the given queue and converter.
func NewRunner(cfg *config.Config, store *queue.Store, converter Converter, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:       cfg,
		store:     store,
		converter: converter,
		notifier:  notifications.NewService(cfg),
		logger:    logging.NewComponentLogger(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run converts every pending queue item and returns the batch summary.
// Exactly one run may hold the work directory at a time; a second
// concurrent invocation fails fast instead of racing the first.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if err := r.runPreflight(ctx); err != nil {
		return Summary{}, err
	}

	lock := flock.New(filepath.Join(r.cfg.Paths.WorkDir, "tether.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return Summary{}, errors.New("another conversion run holds the work directory lock")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if reset, err := r.store.ResetStuckConverting(ctx); err != nil {
		return Summary{}, err
	} else if reset > 0 {
		r.logger.WarnContext(ctx, "reset sessions left converting by an interrupted run",
			logging.Int64("count", reset))
	}

	pending, err := r.store.ItemsByStatus(ctx, queue.StatusPending)
	if err != nil {
		return Summary{}, err
	}
	if len(pending) == 0 {
		r.logger.InfoContext(ctx, "queue has no pending sessions")
		return Summary{}, nil
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	started := time.Now()
	r.mu.Lock()
	r.summary = Summary{RunID: runID}
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "batch run starting",
		logging.String("run_id", runID),
		logging.Int("pending", len(pending)),
		logging.Int("workers", r.workers()))
	if err := r.notifier.NotifyRunStarted(ctx, len(pending)); err != nil {
		r.logger.WarnContext(ctx, "run-started notification failed", logging.Error(err))
	}

	var bar *progressbar.ProgressBar
	if r.progress != nil {
		bar = progressbar.NewOptions(len(pending),
			progressbar.OptionSetWriter(r.progress),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go r.sweepStaleSessions(poolCtx)

	var wg sync.WaitGroup
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r.runWorker(poolCtx, cancel, worker, bar)
		}(i)
	}
	wg.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	r.mu.Lock()
	summary := r.summary
	r.mu.Unlock()
	summary.Duration = time.Since(started)

	r.logger.InfoContext(ctx, "batch run finished",
		logging.String("run_id", runID),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("duration", summary.Duration))
	if err := r.notifier.NotifyRunCompleted(ctx, summary.Completed, summary.Failed, summary.Skipped, summary.Duration); err != nil {
		r.logger.WarnContext(ctx, "run-completed notification failed", logging.Error(err))
	}
	return summary, ctx.Err()
}

func (r *Runner) workers() int {
	if r.cfg.Conversion.Workers < 1 {
		return 1
	}
	return r.cfg.Conversion.Workers
}

func (r *Runner) runPreflight(ctx context.Context) error {
	failures := preflight.Failures(preflight.RunAll(ctx, r.cfg, r.store))
	if len(failures) == 0 {
		return nil
	}
	details := make([]string, 0, len(failures))
	for _, failure := range failures {
		details = append(details, fmt.Sprintf("%s: %s", failure.Name, failure.Detail))
	}
	return fmt.Errorf("preflight checks failed: %s", strings.Join(details, "; "))
}

func (r *Runner) runWorker(ctx context.Context, cancel context.CancelFunc, worker int, bar *progressbar.ProgressBar) {
	ctx = services.WithWorker(ctx, worker)
	for {
		if ctx.Err() != nil {
			return
		}
		item, err := r.store.ClaimNext(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "claim next session failed", logging.Error(err))
			return
		}
		if item == nil {
			return
		}
		failed := r.processItem(ctx, item)
		if bar != nil {
			_ = bar.Add(1)
		}
		if failed && r.cfg.Conversion.FailFast {
			cancel()
			return
		}
	}
}

// processItem converts one claimed item and persists its outcome. Returns
// true when the item genuinely failed (skips do not count).
func (r *Runner) processItem(ctx context.Context, item *queue.Item) bool {
	ctx = services.WithSessionKey(ctx, item.SessionKey)
	ctx = services.WithSubject(ctx, item.SubjectID)
	ctx = services.WithStage(ctx, "convert")
	logger := logging.WithContext(ctx, r.logger)

	stop := r.startHeartbeat(ctx, item.ID)
	defer stop()

	item.SetProgress("convert", logging.FormatSubject(item.Experiment, item.SubjectID, "convert"))
	if err := r.store.Update(ctx, item); err != nil {
		logger.Warn("persist progress", logging.Error(err))
	}

	src, err := SourceFromItem(item)
	if err == nil {
		var outputPath string
		outputPath, err = r.converter.Convert(ctx, src)
		if err == nil {
			item.SetCompleted(outputPath)
			if updateErr := r.store.Update(ctx, item); updateErr != nil {
				logger.Error("persist completed session", logging.Error(updateErr))
			}
			r.count(func(s *Summary) { s.Claimed++; s.Completed++ })
			logger.Info("session completed", logging.String("bundle", outputPath))
			return false
		}
	}

	if services.FailureStatus(err) == queue.StatusSkipped {
		item.SetSkipped(err.Error())
		if updateErr := r.store.Update(ctx, item); updateErr != nil {
			logger.Error("persist skipped session", logging.Error(updateErr))
		}
		r.count(func(s *Summary) { s.Claimed++; s.Skipped++ })
		logger.Info("session skipped", logging.String("reason", err.Error()))
		return false
	}

	artifact, artifactErr := WriteErrorArtifact(r.cfg.Paths.OutputDir, item, err)
	if artifactErr != nil {
		logger.Error("write error artifact", logging.Error(artifactErr))
	}
	item.SetFailed(err.Error())
	item.ErrorFile = artifact
	if updateErr := r.store.Update(ctx, item); updateErr != nil {
		logger.Error("persist failed session", logging.Error(updateErr))
	}
	r.count(func(s *Summary) { s.Claimed++; s.Failed++ })
	logger.Error("session failed", logging.Error(err), logging.String("error_file", artifact))
	if notifyErr := r.notifier.NotifySessionFailed(ctx, item.Label(), err); notifyErr != nil {
		logger.Warn("failure notification failed", logging.Error(notifyErr))
	}
	return true
}

// sweepStaleSessions periodically returns converting items whose heartbeat
// went silent to pending. Live workers refresh their heartbeat, so only a
// session orphaned by a wedged goroutine is ever reclaimed.
func (r *Runner) sweepStaleSessions(ctx context.Context) {
	interval := time.Duration(r.cfg.Workflow.QueuePollInterval) * time.Second
	timeout := time.Duration(r.cfg.Workflow.HeartbeatTimeout) * time.Second
	if interval <= 0 || timeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-timeout)
			reclaimed, err := r.store.ReclaimStaleConverting(ctx, cutoff)
			if err != nil {
				r.logger.Warn("stale session sweep failed", logging.Error(err))
				continue
			}
			if reclaimed > 0 {
				r.logger.Warn("reclaimed sessions with silent heartbeats",
					logging.Int64("count", reclaimed))
			}
		}
	}
}

// startHeartbeat keeps the item's heartbeat fresh while conversion runs so
// a stale-item sweep never reclaims live work. The returned stop function
// must be called when the item settles.
func (r *Runner) startHeartbeat(ctx context.Context, itemID int64) func() {
	interval := time.Duration(r.cfg.Workflow.HeartbeatInterval) * time.Second
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.store.UpdateHeartbeat(ctx, itemID); err != nil {
					r.logger.Warn("heartbeat update failed",
						logging.Int64("item", itemID), logging.Error(err))
				}
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

func (r *Runner) count(update func(*Summary)) {
	r.mu.Lock()
	update(&r.summary)
	r.mu.Unlock()
}
