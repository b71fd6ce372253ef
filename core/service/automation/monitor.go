package automation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

const defaultTickTimeout = 5 * time.Minute

// monitorJob is the process-local state of one owner's recurring check.
type monitorJob struct {
	cancel   context.CancelFunc
	interval time.Duration
	done     chan struct{}

	mu       sync.Mutex
	lastTick time.Time
}

// Monitor owns the per-user inbox polling jobs. At most one job runs per
// owner: Start cancels any existing job before registering a new one.
// Stopping a job cancels the pending timer atomically; a tick already in
// flight completes on its own detached context, but no further tick is
// scheduled.
type Monitor struct {
	pipeline *Pipeline
	factory  out.ProviderFactory
	settings out.SettingsRepository

	tickTimeout time.Duration

	mu   sync.Mutex
	jobs map[uuid.UUID]*monitorJob
}

func NewMonitor(pipeline *Pipeline, factory out.ProviderFactory, settings out.SettingsRepository) *Monitor {
	return &Monitor{
		pipeline:    pipeline,
		factory:     factory,
		settings:    settings,
		tickTimeout: defaultTickTimeout,
		jobs:        make(map[uuid.UUID]*monitorJob),
	}
}

// Start registers a recurring inbox check for the owner.
func (m *Monitor) Start(settings *domain.AutomationSettings) {
	m.Stop(settings.Owner)

	ctx, cancel := context.WithCancel(context.Background())
	job := &monitorJob{
		cancel:   cancel,
		interval: settings.Interval(),
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[settings.Owner] = job
	m.mu.Unlock()

	logger.Info("inbox monitoring started for owner %s (interval %s)", settings.Owner, job.interval)

	go m.run(ctx, job, settings)
}

// Stop cancels the owner's job. The in-flight tick, if any, finishes.
func (m *Monitor) Stop(owner uuid.UUID) {
	m.mu.Lock()
	job, ok := m.jobs[owner]
	if ok {
		delete(m.jobs, owner)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	job.cancel()
	logger.Info("inbox monitoring stopped for owner %s", owner)
}

// StopAll cancels every job and waits for in-flight ticks to finish.
// Used on worker shutdown.
func (m *Monitor) StopAll() {
	m.mu.Lock()
	jobs := make([]*monitorJob, 0, len(m.jobs))
	for owner, job := range m.jobs {
		jobs = append(jobs, job)
		delete(m.jobs, owner)
	}
	m.mu.Unlock()

	for _, job := range jobs {
		job.cancel()
	}
	for _, job := range jobs {
		<-job.done
	}
}

// Rehydrate restores monitors for every owner whose durable automation
// flag is enabled. Called once on worker startup so a process restart
// does not silently drop running automations.
func (m *Monitor) Rehydrate(ctx context.Context) error {
	enabled, err := m.settings.ListEnabled(ctx)
	if err != nil {
		return err
	}
	for _, s := range enabled {
		m.Start(s)
	}
	logger.Info("rehydrated %d inbox monitors from settings", len(enabled))
	return nil
}

// Status reports the in-process state of one owner's job.
func (m *Monitor) Status(owner uuid.UUID) (running bool, lastTick time.Time) {
	m.mu.Lock()
	job, ok := m.jobs[owner]
	m.mu.Unlock()
	if !ok {
		return false, time.Time{}
	}
	job.mu.Lock()
	defer job.mu.Unlock()
	return true, job.lastTick
}

func (m *Monitor) run(ctx context.Context, job *monitorJob, settings *domain.AutomationSettings) {
	defer close(job.done)

	timer := time.NewTimer(job.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		m.tick(job, settings)

		// Re-arm only if not cancelled; a cancellation during the tick
		// must not schedule another one.
		select {
		case <-ctx.Done():
			return
		default:
			timer.Reset(job.interval)
		}
	}
}

// tick runs on a detached context so Stop never aborts processing that
// is already under way. A failed tick is logged and the schedule
// continues; the next tick may succeed.
func (m *Monitor) tick(job *monitorJob, settings *domain.AutomationSettings) {
	ctx, cancel := context.WithTimeout(context.Background(), m.tickTimeout)
	defer cancel()

	job.mu.Lock()
	job.lastTick = time.Now().UTC()
	job.mu.Unlock()

	owner := settings.Owner
	log := logger.WithField("owner", owner.String())

	provider, err := m.factory.ForConfig(&settings.Mailbox)
	if err != nil {
		log.WithError(err).Error("no provider for mailbox settings")
		return
	}

	session, err := provider.Connect(ctx, &settings.Mailbox)
	if err != nil {
		log.WithError(err).Warn("mailbox connect failed, will retry next tick")
		return
	}
	defer session.Close()

	messages, err := session.FetchUnseen(ctx)
	if err != nil {
		log.WithError(err).Warn("fetching unseen messages failed, will retry next tick")
		return
	}
	if len(messages) == 0 {
		return
	}

	log.Info("processing %d unseen messages", len(messages))

	// Sequential processing in fetch order bounds resource usage and
	// keeps the dedup check race-free for this owner. One message's
	// failure must not abort the rest of the tick.
	for _, msg := range messages {
		if err := m.pipeline.Process(ctx, msg, settings); err != nil {
			log.WithError(err).Error("processing message %s failed", msg.ProviderMessageID)
		}
	}
}
