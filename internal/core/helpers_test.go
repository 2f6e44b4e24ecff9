package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"xlerion.co/guide/internal/auth"
	"xlerion.co/guide/internal/store"
)

type fakeGenerator struct {
	mu sync.Mutex

	answer    string
	answerErr error
	text      string
	textErr   error

	answerPrompts []string
	textPrompts   []string
}

func (g *fakeGenerator) GenerateAnswer(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answerPrompts = append(g.answerPrompts, prompt)
	return g.answer, g.answerErr
}

func (g *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.textPrompts = append(g.textPrompts, prompt)
	return g.text, g.textErr
}

func (g *fakeGenerator) calls() (answers, texts int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.answerPrompts), len(g.textPrompts)
}

// flakyStore wraps a real store and fails selected writes.
type flakyStore struct {
	store.Store
	failSetCount bool
	failAddQuery bool
	failCreate   bool
	addQueries   int
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyStore) SetDailyCount(ctx context.Context, userID, day string, count int) error {
	if f.failSetCount {
		return errStoreDown
	}
	return f.Store.SetDailyCount(ctx, userID, day, count)
}

func (f *flakyStore) AddQuery(ctx context.Context, userID string, q *store.SavedQuery) error {
	f.addQueries++
	if f.failAddQuery {
		return errStoreDown
	}
	return f.Store.AddQuery(ctx, userID, q)
}

func (f *flakyStore) CreateAccount(ctx context.Context, acc *store.Account) error {
	if f.failCreate {
		return errStoreDown
	}
	return f.Store.CreateAccount(ctx, acc)
}

func newTestStore(t *testing.T) *flakyStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:", "xlerion-test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return &flakyStore{Store: s}
}

func fixedClock(day string) func() time.Time {
	ts, err := time.Parse("2006-01-02 15:04", day+" 12:00")
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

type harness struct {
	store    *flakyStore
	gen      *fakeGenerator
	quota    *QuotaGate
	queries  *QueryService
	sessions *SessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := newTestStore(t)
	gen := &fakeGenerator{}
	quota := NewQuotaGate(s, 5, 100)
	quota.now = fixedClock("2025-03-01")

	return &harness{
		store:    s,
		gen:      gen,
		quota:    quota,
		queries:  NewQueryService(gen, quota, s),
		sessions: NewSessionService(s, auth.NewIssuer("test-secret", time.Hour)),
	}
}

func (h *harness) anonymous(t *testing.T) Session {
	t.Helper()
	sess, _, err := h.sessions.SignInAnonymously(context.Background())
	require.NoError(t, err)
	return sess
}
