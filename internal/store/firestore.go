package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps every record under artifacts/{appId}/..., the layout
// the web client has always used:
//
//	artifacts/{appId}/users/{uid}/dailyQueryLimit/{YYYY-MM-DD}
//	artifacts/{appId}/users/{uid}/xlerionQueries/{id}
//	artifacts/{appId}/adminConfigs/{id}
//	artifacts/{appId}/accounts/{uid}
type FirestoreStore struct {
	client *firestore.Client
	appID  string
}

type accountDoc struct {
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash"`
	Subject      string    `firestore:"subject"`
	Registered   bool      `firestore:"registered"`
	Role         string    `firestore:"role"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

type queryDoc struct {
	Query                     string    `firestore:"query"`
	Response                  string    `firestore:"response"`
	SynthesizedRecommendation string    `firestore:"synthesizedRecommendation"`
	ChartData                 string    `firestore:"chartData,omitempty"`
	ChartType                 string    `firestore:"chartType,omitempty"`
	ChartTitle                string    `firestore:"chartTitle,omitempty"`
	Timestamp                 time.Time `firestore:"timestamp,serverTimestamp"`
}

type sourceDoc struct {
	Name        string    `firestore:"name"`
	URL         string    `firestore:"url"`
	APIKey      string    `firestore:"apiKey"`
	Description string    `firestore:"description"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
	CreatedBy   string    `firestore:"createdBy"`
}

// NewFirestoreStore connects to projectID. credentialsFile may be empty to
// use application default credentials or FIRESTORE_EMULATOR_HOST.
func NewFirestoreStore(ctx context.Context, projectID, appID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client, appID: appID}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) root() *firestore.DocumentRef {
	return s.client.Collection("artifacts").Doc(s.appID)
}

func (s *FirestoreStore) accounts() *firestore.CollectionRef {
	return s.root().Collection("accounts")
}

func (s *FirestoreStore) userCollection(userID, name string) *firestore.CollectionRef {
	return s.root().Collection("users").Doc(userID).Collection(name)
}

func (s *FirestoreStore) sources() *firestore.CollectionRef {
	return s.root().Collection("adminConfigs")
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// Account methods

func accountFromSnapshot(snap *firestore.DocumentSnapshot) (*Account, error) {
	var doc accountDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", snap.Ref.ID, err)
	}
	return &Account{
		ID:           snap.Ref.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Subject:      doc.Subject,
		Registered:   doc.Registered,
		Role:         Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (s *FirestoreStore) CreateAccount(ctx context.Context, acc *Account) error {
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.Role == "" {
		acc.Role = RoleUser
	}
	acc.CreatedAt = time.Now().UTC()

	// Uniqueness is checked before the write; Firestore has no unique
	// indexes, so two concurrent sign-ups with one email can both pass.
	if acc.Email != "" {
		if _, err := s.GetAccountByEmail(ctx, acc.Email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	_, err := s.accounts().Doc(acc.ID).Create(ctx, accountDoc{
		Email:        acc.Email,
		PasswordHash: acc.PasswordHash,
		Subject:      acc.Subject,
		Registered:   acc.Registered,
		Role:         string(acc.Role),
		CreatedAt:    acc.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *FirestoreStore) UpdateAccount(ctx context.Context, acc *Account) error {
	if acc.Email != "" {
		existing, err := s.GetAccountByEmail(ctx, acc.Email)
		if err == nil && existing.ID != acc.ID {
			return ErrEmailTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	_, err := s.accounts().Doc(acc.ID).Update(ctx, []firestore.Update{
		{Path: "email", Value: acc.Email},
		{Path: "passwordHash", Value: acc.PasswordHash},
		{Path: "subject", Value: acc.Subject},
		{Path: "registered", Value: acc.Registered},
	})
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (s *FirestoreStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	snap, err := s.accounts().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return accountFromSnapshot(snap)
}

func (s *FirestoreStore) findAccount(ctx context.Context, field, value string) (*Account, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	iter := s.accounts().Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by %s: %w", field, err)
	}
	return accountFromSnapshot(snap)
}

func (s *FirestoreStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findAccount(ctx, "email", email)
}

func (s *FirestoreStore) GetAccountBySubject(ctx context.Context, subject string) (*Account, error) {
	return s.findAccount(ctx, "subject", subject)
}

func (s *FirestoreStore) SetRole(ctx context.Context, id string, role Role) error {
	_, err := s.accounts().Doc(id).Update(ctx, []firestore.Update{{Path: "role", Value: string(role)}})
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListAdmins(ctx context.Context) ([]Account, error) {
	snaps, err := s.accounts().Where("role", "==", string(RoleAdmin)).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	admins := make([]Account, 0, len(snaps))
	for _, snap := range snaps {
		acc, err := accountFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *acc)
	}
	return admins, nil
}

// Daily quota methods

func countFromSnapshot(snap *firestore.DocumentSnapshot) (int, error) {
	if snap == nil || !snap.Exists() {
		return 0, nil
	}
	var doc struct {
		Count int `firestore:"count"`
	}
	if err := snap.DataTo(&doc); err != nil {
		return 0, fmt.Errorf("failed to decode daily count: %w", err)
	}
	return doc.Count, nil
}

func (s *FirestoreStore) GetDailyCount(ctx context.Context, userID, day string) (int, error) {
	snap, err := s.userCollection(userID, "dailyQueryLimit").Doc(day).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get daily count: %w", err)
	}
	return countFromSnapshot(snap)
}

func (s *FirestoreStore) SetDailyCount(ctx context.Context, userID, day string, count int) error {
	_, err := s.userCollection(userID, "dailyQueryLimit").Doc(day).
		Set(ctx, map[string]any{"count": count}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to write daily count: %w", err)
	}
	return nil
}

func (s *FirestoreStore) WatchDailyCount(ctx context.Context, userID, day string) (<-chan int, error) {
	iter := s.userCollection(userID, "dailyQueryLimit").Doc(day).Snapshots(ctx)

	out := make(chan int)
	go func() {
		defer close(out)
		defer iter.Stop()
		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("daily count snapshot stream ended", "user_id", userID, "error", err)
				}
				return
			}
			count, err := countFromSnapshot(snap)
			if err != nil {
				slog.Warn("skipping undecodable daily count snapshot", "user_id", userID, "error", err)
				continue
			}
			select {
			case out <- count:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Saved query methods

func queryFromSnapshot(snap *firestore.DocumentSnapshot) (SavedQuery, error) {
	var doc queryDoc
	if err := snap.DataTo(&doc); err != nil {
		return SavedQuery{}, fmt.Errorf("failed to decode saved query %s: %w", snap.Ref.ID, err)
	}
	q := SavedQuery{
		ID:                        snap.Ref.ID,
		Query:                     doc.Query,
		Response:                  doc.Response,
		SynthesizedRecommendation: doc.SynthesizedRecommendation,
		ChartType:                 doc.ChartType,
		ChartTitle:                doc.ChartTitle,
	}
	if !doc.Timestamp.IsZero() {
		ts := doc.Timestamp.UTC()
		q.Timestamp = &ts
	}
	if doc.ChartData != "" {
		q.ChartData = []byte(doc.ChartData)
	}
	return q, nil
}

func queriesFromSnapshots(snaps []*firestore.DocumentSnapshot) ([]SavedQuery, error) {
	queries := make([]SavedQuery, 0, len(snaps))
	for _, snap := range snaps {
		q, err := queryFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	// No orderBy on the query: it would require a composite index.
	sortNewestFirst(queries)
	return queries, nil
}

func (s *FirestoreStore) AddQuery(ctx context.Context, userID string, q *SavedQuery) error {
	ref, _, err := s.userCollection(userID, "xlerionQueries").Add(ctx, queryDoc{
		Query:                     q.Query,
		Response:                  q.Response,
		SynthesizedRecommendation: q.SynthesizedRecommendation,
		ChartData:                 string(q.ChartData),
		ChartType:                 q.ChartType,
		ChartTitle:                q.ChartTitle,
	})
	if err != nil {
		return fmt.Errorf("failed to add saved query: %w", err)
	}
	q.ID = ref.ID

	snap, err := ref.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read back saved query: %w", err)
	}
	stored, err := queryFromSnapshot(snap)
	if err != nil {
		return err
	}
	q.Timestamp = stored.Timestamp
	return nil
}

func (s *FirestoreStore) ListQueries(ctx context.Context, userID string) ([]SavedQuery, error) {
	snaps, err := s.userCollection(userID, "xlerionQueries").Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list saved queries: %w", err)
	}
	return queriesFromSnapshots(snaps)
}

func (s *FirestoreStore) WatchQueries(ctx context.Context, userID string) (<-chan []SavedQuery, error) {
	iter := s.userCollection(userID, "xlerionQueries").Snapshots(ctx)

	out := make(chan []SavedQuery)
	go func() {
		defer close(out)
		defer iter.Stop()
		for {
			qs, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("saved query snapshot stream ended", "user_id", userID, "error", err)
				}
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				slog.Warn("failed to read saved query snapshot", "user_id", userID, "error", err)
				continue
			}
			queries, err := queriesFromSnapshots(snaps)
			if err != nil {
				slog.Warn("skipping undecodable saved query snapshot", "user_id", userID, "error", err)
				continue
			}
			select {
			case out <- queries:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Source methods

func (s *FirestoreStore) AddSource(ctx context.Context, src *Source) error {
	ref, _, err := s.sources().Add(ctx, sourceDoc{
		Name:        src.Name,
		URL:         src.URL,
		APIKey:      src.APIKey,
		Description: src.Description,
		CreatedBy:   src.CreatedBy,
	})
	if err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}
	src.ID = ref.ID
	src.CreatedAt = time.Now().UTC()
	return nil
}

func (s *FirestoreStore) ListSources(ctx context.Context) ([]Source, error) {
	snaps, err := s.sources().OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	sources := make([]Source, 0, len(snaps))
	for _, snap := range snaps {
		var doc sourceDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode source %s: %w", snap.Ref.ID, err)
		}
		sources = append(sources, Source{
			ID:          snap.Ref.ID,
			Name:        doc.Name,
			URL:         doc.URL,
			APIKey:      doc.APIKey,
			Description: doc.Description,
			CreatedAt:   doc.CreatedAt,
			CreatedBy:   doc.CreatedBy,
		})
	}
	return sources, nil
}

func (s *FirestoreStore) DeleteSource(ctx context.Context, id string) error {
	ref := s.sources().Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get source: %w", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	return nil
}
