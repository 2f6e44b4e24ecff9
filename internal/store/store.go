package store

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Store is the persistence contract shared by the SQLite and Firestore
// backends. Every per-user record is scoped by the account ID; the app ID
// is fixed when the backend is opened.
type Store interface {
	CreateAccount(ctx context.Context, acc *Account) error
	UpdateAccount(ctx context.Context, acc *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountBySubject(ctx context.Context, subject string) (*Account, error)
	SetRole(ctx context.Context, id string, role Role) error
	ListAdmins(ctx context.Context) ([]Account, error)

	GetDailyCount(ctx context.Context, userID, day string) (int, error)
	SetDailyCount(ctx context.Context, userID, day string, count int) error
	WatchDailyCount(ctx context.Context, userID, day string) (<-chan int, error)

	AddQuery(ctx context.Context, userID string, q *SavedQuery) error
	ListQueries(ctx context.Context, userID string) ([]SavedQuery, error)
	WatchQueries(ctx context.Context, userID string) (<-chan []SavedQuery, error)

	AddSource(ctx context.Context, src *Source) error
	ListSources(ctx context.Context) ([]Source, error)
	DeleteSource(ctx context.Context, id string) error

	Close() error
}

// sortNewestFirst orders saved queries by timestamp descending. Records
// without a timestamp sort last.
func sortNewestFirst(queries []SavedQuery) {
	sort.SliceStable(queries, func(i, j int) bool {
		a, b := queries[i].Timestamp, queries[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
}
