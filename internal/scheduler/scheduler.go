// Package scheduler dispatches due reminders on a fixed cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/glpitrack/glpitrack/internal/models"
	"github.com/glpitrack/glpitrack/internal/repository"
)

// Notifier delivers one reminder. The production implementation relays the
// message through WhatsApp; tests and local runs log it instead.
type Notifier interface {
	Notify(ctx context.Context, reminder *models.Reminder) error
}

// LogNotifier writes reminders to the log. It stands in wherever no
// delivery channel is wired.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, reminder *models.Reminder) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("reminder due",
		"reminder_id", reminder.ID,
		"ticket_id", reminder.TicketID,
		"phone", reminder.Phone,
		"message", reminder.Message,
	)
	return nil
}

// Scheduler polls for due reminders and hands them to the notifier. A
// reminder is marked sent only after the notifier accepts it, so a failed
// delivery is retried on the next tick.
type Scheduler struct {
	reminders repository.ReminderRepository
	notifier  Notifier
	logger    *slog.Logger
	spec      string
	cron      *cron.Cron
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithNotifier sets the delivery channel.
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithCronSpec overrides the dispatch cadence.
func WithCronSpec(spec string) Option {
	return func(s *Scheduler) { s.spec = spec }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler. By default it checks for due reminders every
// minute and logs instead of delivering.
func New(reminders repository.ReminderRepository, opts ...Option) *Scheduler {
	s := &Scheduler{
		reminders: reminders,
		logger:    slog.Default(),
		spec:      "* * * * *",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = &LogNotifier{Logger: s.logger}
	}
	return s
}

// Start begins dispatching in the background.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.spec, func() { s.Dispatch(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule reminder dispatch: %w", err)
	}
	s.cron.Start()
	s.logger.Info("reminder scheduler started", "spec", s.spec)
	return nil
}

// Stop halts dispatching and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Dispatch delivers every reminder that is due. It returns the number of
// reminders successfully sent.
func (s *Scheduler) Dispatch(ctx context.Context) int {
	now := s.now()
	due, err := s.reminders.Due(now)
	if err != nil {
		s.logger.Error("failed to load due reminders", "error", err)
		return 0
	}

	sent := 0
	for _, reminder := range due {
		if err := s.notifier.Notify(ctx, reminder); err != nil {
			s.logger.Error("reminder delivery failed",
				"error", err, "reminder_id", reminder.ID)
			continue
		}
		if err := s.reminders.MarkSent(reminder.ID, now); err != nil {
			s.logger.Error("failed to mark reminder sent",
				"error", err, "reminder_id", reminder.ID)
			continue
		}
		sent++
	}
	return sent
}
