package syncclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/hakikicode/SmartDesign/pkg/metrics"
)

const DefaultInterval = 5 * time.Second

// View is a read-only snapshot of the merged view handed to consumers.
type View struct {
	Updates    []models.Update
	LastSeenID int64
	Pending    int
	// Stale is set while the most recent fetch failed.
	Stale    bool
	SyncedAt time.Time
}

type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Loop periodically fetches remote updates, merges them with local placeholders,
// fires notifications for new records and publishes the merged view.
// It exclusively owns the sync state; other components only see published Views.
type Loop struct {
	fetcher  Fetcher
	trigger  *Trigger
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	running atomic.Bool
	poke    chan struct{}

	mu       sync.Mutex
	st       state
	stale    bool
	syncedAt time.Time
	subs     map[chan View]struct{}
}

func NewLoop(f Fetcher, n Notifier, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	l := &Loop{
		fetcher:  f,
		interval: opts.Interval,
		logger:   opts.Logger,
		now:      opts.Now,
		poke:     make(chan struct{}, 1),
		st:       newState(),
		subs:     make(map[chan View]struct{}),
	}
	l.trigger = NewTrigger(n)
	// only consulted from inside Tick, with mu held
	l.trigger.isOwn = l.st.isOwn
	return l
}

// Run ticks once immediately and then every interval until ctx is cancelled.
// Ticks never overlap: a tick that is still running when the ticker fires causes that tick to be dropped.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.poke:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.runTick(ctx)
	}
}

func (l *Loop) runTick(ctx context.Context) {
	// failures are logged inside Tick and retried on the next tick
	_ = l.Tick(ctx)
}

// Poke asks a running loop for an early tick. Multiple pokes before the next tick coalesce.
func (l *Loop) Poke() {
	select {
	case l.poke <- struct{}{}:
	default:
	}
}

// Tick performs one synchronization cycle. A failed fetch leaves the state untouched and marks
// the view stale; a fetch aborted by ctx is abandoned without publishing anything.
func (l *Loop) Tick(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		metrics.SyncTicksTotal.WithLabelValues("skipped").Inc()
		return ErrTickInProgress
	}
	defer l.running.Store(false)

	l.mu.Lock()
	since := l.st.lastSeenID
	l.mu.Unlock()

	remote, err := l.fetcher.FetchSince(ctx, since)
	if ctx.Err() != nil {
		metrics.SyncTicksTotal.WithLabelValues("abandoned").Inc()
		return ctx.Err()
	}
	if err != nil {
		metrics.SyncTicksTotal.WithLabelValues("failed").Inc()
		l.logger.Warn("sync tick failed, will retry", "err", err, "lastSeenId", since)
		l.mu.Lock()
		l.stale = true
		l.publishLocked()
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	confirmed := l.st.merge(remote)
	previous := l.st.lastSeenID
	watermark, fired := l.trigger.Fire(l.st.mergedView(), previous)
	if maxID := l.st.maxConfirmedID(); maxID > watermark {
		watermark = maxID
	}
	l.st.lastSeenID = watermark
	l.stale = false
	l.syncedAt = l.now()
	l.publishLocked()

	metrics.SyncTicksTotal.WithLabelValues("ok").Inc()
	if fired > 0 || confirmed > 0 {
		l.logger.Debug("sync tick", "fetched", len(remote), "notified", fired, "confirmed", confirmed, "lastSeenId", watermark)
	}
	return nil
}

// View returns a copy of the current merged view.
func (l *Loop) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewLocked()
}

// LastSeenID is the watermark of the notification trigger.
func (l *Loop) LastSeenID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.lastSeenID
}

// Subscribe returns a channel that always holds the latest published View. Older views that
// were not consumed are replaced. The returned cancel func closes the channel.
func (l *Loop) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, ch)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// addPlaceholder inserts an optimistic local update and publishes the new view right away.
func (l *Loop) addPlaceholder(message string, kind models.Kind, correlationID string) models.Update {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.st.addPlaceholder(message, kind, correlationID, l.now())
	l.publishLocked()
	return u
}

func (l *Loop) viewLocked() View {
	return View{
		Updates:    l.st.mergedView(),
		LastSeenID: l.st.lastSeenID,
		Pending:    len(l.st.placeholders),
		Stale:      l.stale,
		SyncedAt:   l.syncedAt,
	}
}

// publishLocked hands the current view to every subscriber without blocking.
func (l *Loop) publishLocked() {
	if len(l.subs) == 0 {
		return
	}
	v := l.viewLocked()
	for ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// IsTransient reports whether err is the kind of failure the loop retries on its own.
func IsTransient(err error) bool {
	var te *TransportError
	return errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded)
}
