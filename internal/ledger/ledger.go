// Package ledger records group expenses and answers balance and settlement
// queries over them.
//
// Every operation takes the ID of the calling user as resolved by the
// transport layer. An empty or unknown caller yields ErrUnauthenticated.
// Balances are recomputed from the stored expenses on every read.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/expenseshare/internal/cache"
	"github.com/mmynk/expenseshare/internal/events"
	"github.com/mmynk/expenseshare/internal/models"
	"github.com/mmynk/expenseshare/internal/storage"
)

// Ledger implements the expense ledger on top of a storage.Store.
type Ledger struct {
	store     storage.Store
	profiles  cache.Profiles
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithCache serves user profiles from c.
func WithCache(c cache.Profiles) Option {
	return func(l *Ledger) { l.profiles = c }
}

// WithPublisher announces committed changes on p.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		profiles:  cache.Nop{},
		publisher: events.Nop{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// caller resolves callerID to a user or fails with ErrUnauthenticated.
func (l *Ledger) caller(ctx context.Context, callerID string) (*models.User, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	user, err := l.user(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// user looks a profile up in the cache, then the store. Returns nil, nil if absent.
func (l *Ledger) user(ctx context.Context, userID string) (*models.User, error) {
	users, err := l.users(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	return users[userID], nil
}

// users returns the profiles that exist among ids, keyed by ID.
func (l *Ledger) users(ctx context.Context, ids []string) (map[string]*models.User, error) {
	found := make(map[string]*models.User, len(ids))
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; ok {
			continue
		}
		u, ok, err := l.profiles.GetUser(ctx, id)
		if err != nil {
			l.logger.WarnContext(ctx, "Profile cache read failed", "user_id", id, "error", err)
		}
		if ok {
			found[id] = u
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return found, nil
	}

	loaded, err := l.store.GetUsersByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range loaded {
		found[id] = u
		if err := l.profiles.SetUser(ctx, u); err != nil {
			l.logger.WarnContext(ctx, "Profile cache write failed", "user_id", id, "error", err)
		}
	}
	return found, nil
}

// publish announces a committed change. Failures are logged, not returned.
func (l *Ledger) publish(ctx context.Context, ev events.Event) {
	ev.OccurredAt = l.now()
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish event", "type", ev.Type, "group_id", ev.GroupID, "error", err)
	}
}
