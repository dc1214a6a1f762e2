// Package escalation re-checks blocked tickets after a fixed delay and alerts
// an operations channel when nothing has moved.
package escalation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
)

// StatusReader re-reads a ticket's live status.
type StatusReader interface {
	GetIssue(ctx context.Context, key domain.TicketKey) (*domain.Issue, error)
}

// Poster publishes the escalation notice.
type Poster interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Observer is told about every terminal job. Optional.
type Observer func(job domain.EscalationJob, reason string)

// TimerFunc arms f to run after d and returns a function that disarms it.
type TimerFunc func(d time.Duration, f func()) (stop func() bool)

func realTimer(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Options configure a Scheduler.
type Options struct {
	Delay        time.Duration
	CheckTimeout time.Duration
	Timer        TimerFunc
	Now          func() time.Time
	Observer     Observer
}

type entry struct {
	job  domain.EscalationJob
	stop func() bool
}

// Scheduler owns pending escalation jobs in memory. Jobs cannot be withdrawn
// once registered; Stop drops all of them, as a process restart would.
type Scheduler struct {
	tickets  StatusReader
	poster   Poster
	logger   *zap.Logger
	opts     Options
	mu       sync.Mutex
	pending  map[string]*entry
	stopped  bool
	inflight sync.WaitGroup
}

// NewScheduler builds a Scheduler.
func NewScheduler(tickets StatusReader, poster Poster, logger *zap.Logger, opts Options) *Scheduler {
	if opts.Timer == nil {
		opts.Timer = realTimer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		tickets: tickets,
		poster:  poster,
		logger:  logger,
		opts:    opts,
		pending: make(map[string]*entry),
	}
}

// Request describes a blocker to re-check later.
type Request struct {
	TicketKey      domain.TicketKey
	BaselineStatus string
	Channel        string
	Context        domain.EscalationContext
}

// Schedule registers a job firing after the configured delay and returns it.
func (s *Scheduler) Schedule(req Request) (domain.EscalationJob, error) {
	now := s.opts.Now()
	job := domain.EscalationJob{
		ID:             uuid.NewString(),
		TicketKey:      req.TicketKey,
		BaselineStatus: req.BaselineStatus,
		Channel:        req.Channel,
		Context:        req.Context,
		RegisteredAt:   now,
		FiresAt:        now.Add(s.opts.Delay),
		State:          domain.EscalationPending,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return domain.EscalationJob{}, fmt.Errorf("escalation scheduler stopped")
	}
	e := &entry{job: job}
	s.pending[job.ID] = e
	s.mu.Unlock()

	// Armed outside the lock: a timer may fire synchronously.
	stop := s.opts.Timer(s.opts.Delay, func() { s.fire(job.ID) })
	s.mu.Lock()
	e.stop = stop
	s.mu.Unlock()

	s.logger.Info("escalation scheduled",
		zap.String("job_id", job.ID),
		zap.String("ticket_key", job.TicketKey.String()),
		zap.String("baseline_status", job.BaselineStatus),
		zap.Time("fires_at", job.FiresAt))
	return job, nil
}

// Pending returns a snapshot of jobs that have not fired, earliest deadline first.
func (s *Scheduler) Pending() []domain.EscalationJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]domain.EscalationJob, 0, len(s.pending))
	for _, e := range s.pending {
		jobs = append(jobs, e.job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].FiresAt.Before(jobs[j].FiresAt) })
	return jobs
}

// Stop disarms every pending timer and waits for checks already running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	dropped := len(s.pending)
	for id, e := range s.pending {
		if e.stop != nil {
			e.stop()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.inflight.Wait()
	if dropped > 0 {
		s.logger.Warn("pending escalations dropped on shutdown", zap.Int("count", dropped))
	}
}

func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	e, ok := s.pending[id]
	if !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	job := e.job
	job.State = domain.EscalationFired

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.CheckTimeout)
	defer cancel()

	log := s.logger.With(zap.String("job_id", job.ID), zap.String("ticket_key", job.TicketKey.String()))

	issue, err := s.tickets.GetIssue(ctx, job.TicketKey)
	if err != nil {
		log.Error("escalation status re-read failed", zap.Error(err))
		s.finish(job, domain.EscalationSuppressed, "status_read_failed")
		return
	}

	if issue.Status != job.BaselineStatus {
		log.Info("escalation suppressed, status changed",
			zap.String("baseline_status", job.BaselineStatus),
			zap.String("current_status", issue.Status))
		s.finish(job, domain.EscalationSuppressed, "status_changed")
		return
	}

	if err := s.poster.PostMessage(ctx, job.Channel, Message(job, s.opts.Delay)); err != nil {
		log.Error("escalation notice failed", zap.Error(err))
		s.finish(job, domain.EscalationEscalated, "notice_failed")
		return
	}
	log.Info("escalation posted", zap.String("channel", job.Channel), zap.String("status", issue.Status))
	s.finish(job, domain.EscalationEscalated, "status_unchanged")
}

func (s *Scheduler) finish(job domain.EscalationJob, state domain.EscalationState, reason string) {
	job.State = state
	if s.opts.Observer != nil {
		s.opts.Observer(job, reason)
	}
}

// Message renders the operations-channel alert.
func Message(job domain.EscalationJob, delay time.Duration) string {
	author := job.Context.Author
	if author == "" {
		author = "someone"
	}
	msg := fmt.Sprintf(":rotating_light: *%s* is still *%s* %s after %s reported a blocker.",
		job.TicketKey, job.BaselineStatus, humanDelay(delay), author)
	if job.Context.CommentExcerpt != "" {
		msg += fmt.Sprintf("\n> %s", job.Context.CommentExcerpt)
	}
	return msg
}

func humanDelay(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
