package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunStatus represents the outcome of a job run
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusSkipped RunStatus = "SKIPPED"
)

// JobFunc is the work a scheduled job performs
type JobFunc func(ctx context.Context) error

// RunInfo describes the most recent run of a job
type RunInfo struct {
	RunID       uuid.UUID
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// JobView is a snapshot of a registered job for status reporting
type JobView struct {
	Name     string
	Interval time.Duration
	LastRun  *RunInfo
}

// Config holds scheduler configuration
type Config struct {
	// JobTimeout bounds a single job run
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 10 * time.Minute,
	}
}

// job is a registered periodic job. A run that would overlap a still-active
// run of the same job is skipped.
type job struct {
	name     string
	interval time.Duration
	fn       JobFunc

	mu      sync.Mutex
	running bool
	lastRun *RunInfo
}

// SyncScheduler runs registered jobs on fixed intervals in the background.
// Each job gets its own ticker loop and runs once immediately on start.
type SyncScheduler struct {
	config Config
	logger *zap.Logger

	jobs      []*job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncScheduler creates a new scheduler instance
func NewSyncScheduler(config Config, logger *zap.Logger) *SyncScheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	return &SyncScheduler{
		config: config,
		logger: logger,
	}
}

// AddJob registers a periodic job. Must be called before Start.
func (s *SyncScheduler) AddJob(name string, interval time.Duration, fn JobFunc) error {
	if name == "" || interval <= 0 || fn == nil {
		return ErrInvalidConfig
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrInvalidConfig
	}
	s.jobs = append(s.jobs, &job{name: name, interval: interval, fn: fn})
	return nil
}

// Start starts a ticker loop per registered job
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}

	s.logger.Info("Sync scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// RunJob triggers a single run of the named job outside its schedule
func (s *SyncScheduler) RunJob(ctx context.Context, name string) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	var target *job
	for _, j := range s.jobs {
		if j.name == name {
			target = j
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return ErrJobNotFound
	}
	return s.runJob(ctx, target)
}

// Status returns a snapshot of every registered job
func (s *SyncScheduler) Status() []JobView {
	s.mu.Lock()
	jobs := make([]*job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	views := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		j.mu.Lock()
		view := JobView{
			Name:     j.name,
			Interval: j.interval,
		}
		if j.lastRun != nil {
			runCopy := *j.lastRun
			view.LastRun = &runCopy
		}
		j.mu.Unlock()
		views = append(views, view)
	}
	return views
}

// loop runs the job once immediately, then on every tick until ctx is done
func (s *SyncScheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	if err := s.runJob(ctx, j); err != nil && ctx.Err() != nil {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.runJob(ctx, j)
		}
	}
}

// runJob executes one run of the job with overlap protection and a timeout
func (s *SyncScheduler) runJob(ctx context.Context, j *job) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		s.logger.Warn("Skipping job run, previous run still active",
			zap.String("job", j.name),
		)
		return ErrJobAlreadyRunning
	}
	j.running = true
	run := &RunInfo{
		RunID:     uuid.New(),
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
	j.lastRun = run
	j.mu.Unlock()

	s.logger.Info("Job run started",
		zap.String("job", j.name),
		zap.String("run_id", run.RunID.String()),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := j.fn(jobCtx)
	now := time.Now()

	j.mu.Lock()
	j.running = false
	run.CompletedAt = &now
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = RunStatusSuccess
	}
	j.mu.Unlock()

	if err != nil {
		s.logger.Error("Job run failed",
			zap.String("job", j.name),
			zap.String("run_id", run.RunID.String()),
			zap.Duration("duration", now.Sub(run.StartedAt)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Job run completed",
		zap.String("job", j.name),
		zap.String("run_id", run.RunID.String()),
		zap.Duration("duration", now.Sub(run.StartedAt)),
	)
	return nil
}
