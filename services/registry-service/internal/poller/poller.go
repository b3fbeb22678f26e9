// Package poller periodically checks for pending accounts that have waited
// too long for approval and notifies the administrators, at most once per
// cooldown window.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/shared/mailer"
)

// PendingLister is the slice of the user directory the poller needs.
type PendingLister interface {
	ListPending(ctx context.Context) ([]*model.User, error)
}

// Notifier delivers an overdue-accounts notification.
type Notifier interface {
	Notify(ctx context.Context, overdueCount int, oldest time.Time) error
}

// Config holds the poller's timing knobs.
type Config struct {
	// Interval between checks.
	Interval time.Duration

	// Threshold is how old a pending account must be to count as overdue.
	Threshold time.Duration

	// Cooldown is the minimum spacing between successful notifications.
	Cooldown time.Duration
}

// Poller is the background task. Start and Stop are its lifecycle hooks.
type Poller struct {
	directory PendingLister
	notifier  Notifier
	marker    *Marker
	cfg       Config
	logger    *zerolog.Logger
	now       func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Poller.
func New(directory PendingLister, notifier Notifier, marker *Marker, cfg Config, logger *zerolog.Logger) *Poller {
	return &Poller{
		directory: directory,
		notifier:  notifier,
		marker:    marker,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start launches the polling loop in the background.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

// Stop cancels the loop and waits for an in-flight check to finish.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed cycle must not stop subsequent cycles.
			if err := p.check(ctx); err != nil {
				p.logger.Error().Err(err).Msg("pending-approval check failed")
			}
		}
	}
}

// check runs one cycle: fetch pending accounts, find the overdue ones, and
// notify unless the cooldown since the last successful send is still running.
// A failed send does not advance the marker, so the next cycle retries.
func (p *Poller) check(ctx context.Context) error {
	pending, err := p.directory.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending users: %w", err)
	}

	now := p.now()
	cutoff := now.Add(-p.cfg.Threshold)

	var overdue int
	var oldest time.Time
	for _, user := range pending {
		if user.CreatedAt.After(cutoff) {
			continue
		}
		overdue++
		if oldest.IsZero() || user.CreatedAt.Before(oldest) {
			oldest = user.CreatedAt
		}
	}

	if overdue == 0 {
		return nil
	}

	if last, ok := p.marker.Last(); ok && now.Sub(last) < p.cfg.Cooldown {
		p.logger.Debug().
			Int("overdue", overdue).
			Time("last_notified", last).
			Msg("overdue pending users present, still within cooldown")
		return nil
	}

	if err := p.notifier.Notify(ctx, overdue, oldest); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if err := p.marker.Set(now); err != nil {
		return fmt.Errorf("failed to persist notification marker: %w", err)
	}

	p.logger.Info().Int("overdue", overdue).Time("oldest", oldest).Msg("sent pending-approval notification")
	return nil
}

// MailNotifier sends the overdue notice to the administrator mailbox.
type MailNotifier struct {
	mailer *mailer.Mailer
	to     string
}

// NewMailNotifier creates a MailNotifier.
func NewMailNotifier(m *mailer.Mailer, to string) *MailNotifier {
	return &MailNotifier{mailer: m, to: to}
}

func (n *MailNotifier) Notify(_ context.Context, overdueCount int, oldest time.Time) error {
	subject := fmt.Sprintf("%d account(s) awaiting approval", overdueCount)
	body := fmt.Sprintf(
		"There are %d registration(s) waiting for approval. The oldest has been pending since %s.",
		overdueCount,
		oldest.Format(time.RFC1123),
	)

	return n.mailer.SendSimple([]string{n.to}, subject, body)
}
