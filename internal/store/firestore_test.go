package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openEmulatorStore connects to the Firestore emulator; the tests skip when
// FIRESTORE_EMULATOR_HOST is not set.
func openEmulatorStore(t *testing.T) *FirestoreStore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	s, err := NewFirestoreStore(context.Background(), "xlerion-emulator", "test-"+uuid.NewString(), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFirestore_DailyCount(t *testing.T) {
	s := openEmulatorStore(t)
	ctx := context.Background()

	count, err := s.GetDailyCount(ctx, "u1", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, s.SetDailyCount(ctx, "u1", "2025-01-01", 4))
	count, err = s.GetDailyCount(ctx, "u1", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestFirestore_QueriesRoundtrip(t *testing.T) {
	s := openEmulatorStore(t)
	ctx := context.Background()

	q := &SavedQuery{Query: "q", Response: "r", SynthesizedRecommendation: "rec"}
	require.NoError(t, s.AddQuery(ctx, "u1", q))
	require.NotNil(t, q.Timestamp)

	list, err := s.ListQueries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, q.ID, list[0].ID)
	assert.Equal(t, "rec", list[0].SynthesizedRecommendation)
}

func TestFirestore_WatchQueries(t *testing.T) {
	s := openEmulatorStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch, err := s.WatchQueries(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch))

	require.NoError(t, s.AddQuery(ctx, "u1", &SavedQuery{Query: "q", Response: "r"}))
	var list []SavedQuery
	for len(list) == 0 {
		list = receive(t, ch)
	}
	assert.Equal(t, "q", list[0].Query)
}

func TestFirestore_AccountsAndSources(t *testing.T) {
	s := openEmulatorStore(t)
	ctx := context.Background()

	acc := &Account{Email: "ana@example.com", Registered: true}
	require.NoError(t, s.CreateAccount(ctx, acc))
	assert.ErrorIs(t, s.CreateAccount(ctx, &Account{Email: "ana@example.com"}), ErrEmailTaken)

	require.NoError(t, s.SetRole(ctx, acc.ID, RoleAdmin))
	admins, err := s.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	src := &Source{Name: "DANE", URL: "https://www.dane.gov.co", CreatedBy: acc.ID}
	require.NoError(t, s.AddSource(ctx, src))
	require.NoError(t, s.DeleteSource(ctx, src.ID))
	assert.ErrorIs(t, s.DeleteSource(ctx, src.ID), ErrNotFound)
}
