package poller

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
)

type fakeLister struct {
	users []*model.User
	err   error
}

func (f *fakeLister) ListPending(_ context.Context) ([]*model.User, error) {
	return f.users, f.err
}

type notification struct {
	overdueCount int
	oldest       time.Time
}

type fakeNotifier struct {
	sent []notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, overdueCount int, oldest time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, notification{overdueCount: overdueCount, oldest: oldest})
	return nil
}

func newTestPoller(t *testing.T, lister *fakeLister, notifier *fakeNotifier, now time.Time) *Poller {
	t.Helper()

	marker, err := OpenMarker(filepath.Join(t.TempDir(), "last_notified.json"))
	require.NoError(t, err)

	logger := zerolog.Nop()
	p := New(lister, notifier, marker, Config{
		Interval:  time.Hour,
		Threshold: 24 * time.Hour,
		Cooldown:  120 * time.Hour,
	}, &logger)
	p.now = func() time.Time { return now }
	return p
}

func pendingUser(id int64, createdAt time.Time) *model.User {
	return &model.User{ID: id, Approved: false, CreatedAt: createdAt}
}

func TestCheckNotifiesForOverdueAccounts(t *testing.T) {
	now := time.Now()
	registered := now.Add(-48 * time.Hour)

	lister := &fakeLister{users: []*model.User{pendingUser(1, registered)}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, lister, notifier, now)

	require.NoError(t, p.check(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, notifier.sent[0].overdueCount)
	assert.True(t, notifier.sent[0].oldest.Equal(registered))

	// A second check right away lands inside the cooldown window.
	require.NoError(t, p.check(context.Background()))
	assert.Len(t, notifier.sent, 1)
}

func TestCheckSkipsFreshPendingAccounts(t *testing.T) {
	now := time.Now()

	lister := &fakeLister{users: []*model.User{
		pendingUser(1, now.Add(-time.Hour)),
		pendingUser(2, now.Add(-23*time.Hour)),
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, lister, notifier, now)

	require.NoError(t, p.check(context.Background()))
	assert.Empty(t, notifier.sent)
}

func TestCheckReportsOldestOfSeveral(t *testing.T) {
	now := time.Now()
	oldest := now.Add(-96 * time.Hour)

	lister := &fakeLister{users: []*model.User{
		pendingUser(1, now.Add(-30*time.Hour)),
		pendingUser(2, oldest),
		pendingUser(3, now.Add(-time.Hour)),
	}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, lister, notifier, now)

	require.NoError(t, p.check(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 2, notifier.sent[0].overdueCount)
	assert.True(t, notifier.sent[0].oldest.Equal(oldest))
}

func TestCheckNotifiesAgainAfterCooldown(t *testing.T) {
	now := time.Now()

	lister := &fakeLister{users: []*model.User{pendingUser(1, now.Add(-48*time.Hour))}}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, lister, notifier, now)

	require.NoError(t, p.check(context.Background()))
	require.Len(t, notifier.sent, 1)

	p.now = func() time.Time { return now.Add(121 * time.Hour) }
	require.NoError(t, p.check(context.Background()))
	assert.Len(t, notifier.sent, 2)
}

func TestFailedSendDoesNotAdvanceMarker(t *testing.T) {
	now := time.Now()

	lister := &fakeLister{users: []*model.User{pendingUser(1, now.Add(-48*time.Hour))}}
	notifier := &fakeNotifier{err: errors.New("smtp unreachable")}
	p := newTestPoller(t, lister, notifier, now)

	require.Error(t, p.check(context.Background()))
	_, ok := p.marker.Last()
	assert.False(t, ok)

	// The next cycle retries and, with the mailbox back, succeeds.
	notifier.err = nil
	require.NoError(t, p.check(context.Background()))
	assert.Len(t, notifier.sent, 1)

	last, ok := p.marker.Last()
	require.True(t, ok)
	assert.True(t, last.Equal(now))
}

func TestCheckPropagatesListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("backend down")}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, lister, notifier, time.Now())

	require.Error(t, p.check(context.Background()))
	assert.Empty(t, notifier.sent)
}

func TestMarkerSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_notified.json")

	marker, err := OpenMarker(path)
	require.NoError(t, err)

	_, ok := marker.Last()
	require.False(t, ok)

	sent := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, marker.Set(sent))

	reopened, err := OpenMarker(path)
	require.NoError(t, err)

	last, ok := reopened.Last()
	require.True(t, ok)
	assert.True(t, last.Equal(sent))
}

func TestStartStop(t *testing.T) {
	lister := &fakeLister{}
	notifier := &fakeNotifier{}
	p := newTestPoller(t, lister, notifier, time.Now())
	p.cfg.Interval = 10 * time.Millisecond

	p.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	p.Stop()
}
