package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"xlerion.co/guide/internal/i18n"
	"xlerion.co/guide/internal/store"
)

// QueryStore is the part of the store the query flow needs.
type QueryStore interface {
	AddQuery(ctx context.Context, userID string, q *store.SavedQuery) error
	ListQueries(ctx context.Context, userID string) ([]store.SavedQuery, error)
	WatchQueries(ctx context.Context, userID string) (<-chan []store.SavedQuery, error)
}

const (
	// DefaultViewTTL is how long a user's latest view survives without
	// a new query.
	DefaultViewTTL  = 24 * time.Hour
	DefaultMaxViews = 10000
)

type viewEntry struct {
	view    View
	updated time.Time
}

type QueryService struct {
	gen     Generator
	quota   *QuotaGate
	history QueryStore

	// views holds the latest view per user, least recently written first.
	mu       sync.Mutex
	views    *orderedmap.OrderedMap[string, viewEntry]
	viewTTL  time.Duration
	maxViews int
	now      func() time.Time

	queries metric.Int64Counter
	saves   metric.Int64Counter
}

func NewQueryService(gen Generator, quota *QuotaGate, history QueryStore) *QueryService {
	meter := otel.Meter("xlerion/core")
	queries, err := meter.Int64Counter("xlerion.queries",
		metric.WithDescription("Questions answered, by outcome"))
	if err != nil {
		slog.Warn("failed to create query counter", "error", err)
	}
	saves, err := meter.Int64Counter("xlerion.saved_queries",
		metric.WithDescription("Queries written to history"))
	if err != nil {
		slog.Warn("failed to create save counter", "error", err)
	}

	return &QueryService{
		gen:     gen,
		quota:   quota,
		history: history,
		views:    orderedmap.New[string, viewEntry](),
		viewTTL:  DefaultViewTTL,
		maxViews: DefaultMaxViews,
		now:      time.Now,
		queries:  queries,
		saves:    saves,
	}
}

// Submit asks the model a question on behalf of sess. Errors are returned
// only when the question was not sent: an empty question, an exhausted
// quota or an unreadable counter. Every outcome after the remote call is
// reported through the returned View.
func (s *QueryService) Submit(ctx context.Context, sess Session, lang i18n.Lang, question string) (View, error) {
	if strings.TrimSpace(question) == "" {
		return s.Current(sess.UserID), ErrEmptyQuery
	}
	if _, err := s.quota.Check(ctx, sess); err != nil {
		return s.Current(sess.UserID), err
	}

	view := Reduce(View{}, Submitted{Question: question})
	s.setView(sess.UserID, view)

	raw, err := s.gen.GenerateAnswer(ctx, BuildAnswerPrompt(lang, question))
	if err != nil {
		slog.Error("answer request failed", "user_id", sess.UserID, "error", err)
		view = Reduce(view, TransportFailed{Err: err})
		s.count(ctx, view)
		return s.setView(sess.UserID, view), nil
	}

	reply, err := ParseReply(raw)
	if err != nil {
		slog.Warn("answer did not match the reply schema", "user_id", sess.UserID, "error", err)
		view = Reduce(view, ReplyMalformed{Err: err})
		s.count(ctx, view)
		return s.setView(sess.UserID, view), nil
	}
	view = Reduce(view, ReplyReceived{Reply: reply})

	if err := s.quota.Record(ctx, sess); err != nil {
		slog.Error("failed to record query against quota", "user_id", sess.UserID, "error", err)
		view = Reduce(view, QuotaWriteFailed{})
	}

	if reply.Kind == ReplyText {
		view = s.recommend(ctx, sess, lang, view)
	}
	s.count(ctx, view)
	return s.setView(sess.UserID, view), nil
}

func (s *QueryService) recommend(ctx context.Context, sess Session, lang i18n.Lang, view View) View {
	text, err := s.gen.GenerateText(ctx, BuildRecommendationPrompt(lang, view.Question, view.Text))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoClearResponse
	}
	if err != nil {
		slog.Warn("recommendation request failed", "user_id", sess.UserID, "error", err)
		return Reduce(view, RecommendationFailed{Err: err})
	}
	return Reduce(view, RecommendationDone{Text: text})
}

// Save persists the user's current answer to their history.
func (s *QueryService) Save(ctx context.Context, sess Session) (store.SavedQuery, error) {
	view := s.Current(sess.UserID)
	if !view.Savable() {
		return store.SavedQuery{}, ErrNothingToSave
	}

	record := store.SavedQuery{
		Query:                     view.Question,
		Response:                  view.Text,
		SynthesizedRecommendation: view.Recommendation,
	}
	if view.Chart != nil {
		record.ChartData = view.Chart.Data
		record.ChartType = string(view.Chart.Type)
		record.ChartTitle = view.Chart.Title
	}

	if err := s.history.AddQuery(ctx, sess.UserID, &record); err != nil {
		slog.Error("failed to save query", "user_id", sess.UserID, "error", err)
		return store.SavedQuery{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if s.saves != nil {
		s.saves.Add(ctx, 1)
	}
	slog.Info("query saved", "user_id", sess.UserID, "query_id", record.ID)
	return record, nil
}

func (s *QueryService) History(ctx context.Context, userID string) ([]store.SavedQuery, error) {
	return s.history.ListQueries(ctx, userID)
}

func (s *QueryService) WatchHistory(ctx context.Context, userID string) (<-chan []store.SavedQuery, error) {
	return s.history.WatchQueries(ctx, userID)
}

// Find returns one saved query of the user.
func (s *QueryService) Find(ctx context.Context, userID, queryID string) (store.SavedQuery, error) {
	queries, err := s.history.ListQueries(ctx, userID)
	if err != nil {
		return store.SavedQuery{}, err
	}
	for _, q := range queries {
		if q.ID == queryID {
			return q, nil
		}
	}
	return store.SavedQuery{}, store.ErrNotFound
}

// Current returns the latest view of the user, or an idle view.
func (s *QueryService) Current(userID string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.views.Get(userID)
	if !ok {
		return View{Kind: ViewIdle}
	}
	if s.now().Sub(entry.updated) > s.viewTTL {
		s.views.Delete(userID)
		return View{Kind: ViewIdle}
	}
	return entry.view
}

// Forget drops the in-memory view of the user.
func (s *QueryService) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views.Delete(userID)
}

func (s *QueryService) setView(userID string, view View) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.views.Set(userID, viewEntry{view: view, updated: now})
	s.views.MoveToBack(userID)

	for oldest := s.views.Oldest(); oldest != nil; oldest = s.views.Oldest() {
		if s.views.Len() <= s.maxViews && now.Sub(oldest.Value.updated) <= s.viewTTL {
			break
		}
		s.views.Delete(oldest.Key)
	}
	return view
}

func (s *QueryService) count(ctx context.Context, view View) {
	if s.queries == nil {
		return
	}
	outcome := string(view.Kind)
	if view.Kind == ViewFailed {
		outcome = string(view.Failure)
	}
	s.queries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ShareText renders a saved query as the plain-text block used for sharing.
func ShareText(lang i18n.Lang, q store.SavedQuery) string {
	msgs := i18n.For(lang)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s", msgs.YourQuery, q.Query)
	if q.Response != "" {
		fmt.Fprintf(&b, "\n\n%s\n%s", msgs.XlerionResponse, q.Response)
	}
	if q.ChartTitle != "" {
		fmt.Fprintf(&b, "\n\n%s\n%s", msgs.ChartTitle, q.ChartTitle)
	}
	if q.SynthesizedRecommendation != "" {
		fmt.Fprintf(&b, "\n\n%s\n%s", msgs.RecommendationTitle, q.SynthesizedRecommendation)
	}
	return b.String()
}

// IsQuotaError reports whether err came from an exhausted quota.
func IsQuotaError(err error) (*LimitError, bool) {
	var limitErr *LimitError
	ok := errors.As(err, &limitErr)
	return limitErr, ok
}
