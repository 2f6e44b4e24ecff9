package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultGuestLimit      = 5
	DefaultRegisteredLimit = 100

	dayLayout = "2006-01-02"
)

// QuotaStore is the part of the store the gate needs.
type QuotaStore interface {
	GetDailyCount(ctx context.Context, userID, day string) (int, error)
	SetDailyCount(ctx context.Context, userID, day string, count int) error
	WatchDailyCount(ctx context.Context, userID, day string) (<-chan int, error)
}

type QuotaStatus struct {
	Count int    `json:"count"`
	Limit int    `json:"limit"`
	Day   string `json:"date"`
}

func (q QuotaStatus) Exhausted() bool { return q.Count >= q.Limit }

// QuotaGate enforces the per-user daily query limit. Counters are keyed by
// the UTC calendar day, so a new day starts from zero.
type QuotaGate struct {
	store           QuotaStore
	guestLimit      int
	registeredLimit int
	now             func() time.Time
	dayCheck        time.Duration
}

func NewQuotaGate(store QuotaStore, guestLimit, registeredLimit int) *QuotaGate {
	if guestLimit <= 0 {
		guestLimit = DefaultGuestLimit
	}
	if registeredLimit <= 0 {
		registeredLimit = DefaultRegisteredLimit
	}
	return &QuotaGate{
		store:           store,
		guestLimit:      guestLimit,
		registeredLimit: registeredLimit,
		now:             time.Now,
		dayCheck:        time.Minute,
	}
}

func (g *QuotaGate) Today() string {
	return g.now().UTC().Format(dayLayout)
}

func (g *QuotaGate) Limit(registered bool) int {
	if registered {
		return g.registeredLimit
	}
	return g.guestLimit
}

func (g *QuotaGate) Status(ctx context.Context, sess Session) (QuotaStatus, error) {
	day := g.Today()
	count, err := g.store.GetDailyCount(ctx, sess.UserID, day)
	if err != nil {
		return QuotaStatus{}, fmt.Errorf("failed to read daily count: %w", err)
	}
	return QuotaStatus{Count: count, Limit: g.Limit(sess.IsRegistered), Day: day}, nil
}

// Check returns a *LimitError once today's count has reached the limit.
func (g *QuotaGate) Check(ctx context.Context, sess Session) (QuotaStatus, error) {
	status, err := g.Status(ctx, sess)
	if err != nil {
		return status, err
	}
	if status.Exhausted() {
		return status, &LimitError{Count: status.Count, Limit: status.Limit}
	}
	return status, nil
}

// Record adds one to today's count with a plain read then write. Two
// concurrent writers for the same user can lose an increment.
func (g *QuotaGate) Record(ctx context.Context, sess Session) error {
	day := g.Today()
	count, err := g.store.GetDailyCount(ctx, sess.UserID, day)
	if err != nil {
		return fmt.Errorf("failed to read daily count: %w", err)
	}
	if err := g.store.SetDailyCount(ctx, sess.UserID, day, count+1); err != nil {
		return fmt.Errorf("failed to write daily count: %w", err)
	}
	slog.Debug("query counted", "user_id", sess.UserID, "day", day, "count", count+1)
	return nil
}

// Watch streams today's count for the user. The clock is checked every
// dayCheck, and when the UTC day turns the watch moves to the new day's
// counter.
func (g *QuotaGate) Watch(ctx context.Context, sess Session) (<-chan QuotaStatus, error) {
	day := g.Today()
	dayCtx, cancelDay := context.WithCancel(ctx)
	counts, err := g.store.WatchDailyCount(dayCtx, sess.UserID, day)
	if err != nil {
		cancelDay()
		return nil, err
	}

	limit := g.Limit(sess.IsRegistered)
	out := make(chan QuotaStatus)
	go func() {
		defer close(out)
		defer func() { cancelDay() }()

		ticker := time.NewTicker(g.dayCheck)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				today := g.Today()
				if today == day {
					continue
				}
				nextCtx, cancelNext := context.WithCancel(ctx)
				next, err := g.store.WatchDailyCount(nextCtx, sess.UserID, today)
				if err != nil {
					cancelNext()
					slog.Warn("failed to move quota watch to the new day", "user_id", sess.UserID, "day", today, "error", err)
					continue
				}
				cancelDay()
				cancelDay, counts, day = cancelNext, next, today
			case count, ok := <-counts:
				if !ok {
					return
				}
				select {
				case out <- QuotaStatus{Count: count, Limit: limit, Day: day}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
