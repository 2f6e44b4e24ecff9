package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db    *sql.DB
	appID string
	hub   *Hub
}

func NewSQLiteStore(dataSourceName, appID string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// One connection, so ":memory:" databases are shared by every call.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, appID: appID, hub: NewHub()}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS accounts (
        id TEXT PRIMARY KEY, -- UUID
        app_id TEXT NOT NULL,
        email TEXT NOT NULL DEFAULT '',
        password_hash TEXT NOT NULL DEFAULT '',
        subject TEXT NOT NULL DEFAULT '',
        registered BOOLEAN NOT NULL DEFAULT FALSE,
        role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
        created_at DATETIME NOT NULL
    );
    CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email ON accounts (app_id, email) WHERE email <> '';
    CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_subject ON accounts (app_id, subject) WHERE subject <> '';

    CREATE TABLE IF NOT EXISTS daily_query_limits (
        app_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        day TEXT NOT NULL, -- YYYY-MM-DD
        count INTEGER NOT NULL DEFAULT 0,
        PRIMARY KEY (app_id, user_id, day)
    );

    CREATE TABLE IF NOT EXISTS saved_queries (
        id TEXT PRIMARY KEY, -- UUID
        app_id TEXT NOT NULL,
        user_id TEXT NOT NULL,
        query TEXT NOT NULL,
        response TEXT NOT NULL,
        synthesized_recommendation TEXT NOT NULL DEFAULT '',
        chart_data TEXT NOT NULL DEFAULT '',
        chart_type TEXT NOT NULL DEFAULT '',
        chart_title TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_saved_queries_user ON saved_queries (app_id, user_id, created_at);

    CREATE TABLE IF NOT EXISTS admin_sources (
        id TEXT PRIMARY KEY, -- UUID
        app_id TEXT NOT NULL,
        name TEXT NOT NULL,
        url TEXT NOT NULL,
        api_key TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL,
        created_by TEXT NOT NULL
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Account methods

const accountColumns = "id, email, password_hash, subject, registered, role, created_at"

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var acc Account
	var role string
	if err := row.Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.Subject, &acc.Registered, &role, &acc.CreatedAt); err != nil {
		return nil, err
	}
	acc.Role = Role(role)
	return &acc, nil
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, acc *Account) error {
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	if acc.Role == "" {
		acc.Role = RoleUser
	}
	acc.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO accounts ("+accountColumns+", app_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		acc.ID, acc.Email, acc.PasswordHash, acc.Subject, acc.Registered, string(acc.Role), acc.CreatedAt, s.appID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateAccount(ctx context.Context, acc *Account) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET email = ?, password_hash = ?, subject = ?, registered = ? WHERE id = ? AND app_id = ?",
		acc.Email, acc.PasswordHash, acc.Subject, acc.Registered, acc.ID, s.appID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) getAccountWhere(ctx context.Context, column, value string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE app_id = ? AND "+column+" = ?", s.appID, value)
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return acc, nil
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	return s.getAccountWhere(ctx, "id", id)
}

func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	return s.getAccountWhere(ctx, "email", email)
}

func (s *SQLiteStore) GetAccountBySubject(ctx context.Context, subject string) (*Account, error) {
	if subject == "" {
		return nil, ErrNotFound
	}
	return s.getAccountWhere(ctx, "subject", subject)
}

func (s *SQLiteStore) SetRole(ctx context.Context, id string, role Role) error {
	res, err := s.db.ExecContext(ctx, "UPDATE accounts SET role = ? WHERE id = ? AND app_id = ?", string(role), id, s.appID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListAdmins(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE app_id = ? AND role = ? ORDER BY created_at ASC", s.appID, string(RoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()

	var admins []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		admins = append(admins, *acc)
	}
	return admins, rows.Err()
}

// Daily quota methods

func (s *SQLiteStore) GetDailyCount(ctx context.Context, userID, day string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT count FROM daily_query_limits WHERE app_id = ? AND user_id = ? AND day = ?", s.appID, userID, day).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil // No queries yet today
		}
		return 0, fmt.Errorf("failed to query daily count: %w", err)
	}
	return count, nil
}

// SetDailyCount overwrites the count for the day, creating the record when
// it does not exist yet.
func (s *SQLiteStore) SetDailyCount(ctx context.Context, userID, day string, count int) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO daily_query_limits (app_id, user_id, day, count) VALUES (?, ?, ?, ?)
        ON CONFLICT (app_id, user_id, day) DO UPDATE SET count = excluded.count`,
		s.appID, userID, day, count)
	if err != nil {
		return fmt.Errorf("failed to write daily count: %w", err)
	}
	s.hub.Publish(quotaKey(userID, day))
	return nil
}

func (s *SQLiteStore) WatchDailyCount(ctx context.Context, userID, day string) (<-chan int, error) {
	return watch(ctx, s.hub, quotaKey(userID, day), func(ctx context.Context) (int, error) {
		return s.GetDailyCount(ctx, userID, day)
	})
}

// Saved query methods

func (s *SQLiteStore) AddQuery(ctx context.Context, userID string, q *SavedQuery) error {
	q.ID = uuid.NewString()
	now := time.Now().UTC()
	q.Timestamp = &now

	stmt, err := s.db.PrepareContext(ctx, `
        INSERT INTO saved_queries (id, app_id, user_id, query, response, synthesized_recommendation, chart_data, chart_type, chart_title, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare query insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, q.ID, s.appID, userID, q.Query, q.Response, q.SynthesizedRecommendation,
		string(q.ChartData), q.ChartType, q.ChartTitle, now)
	if err != nil {
		return fmt.Errorf("failed to execute query insert: %w", err)
	}
	s.hub.Publish(queriesKey(userID))
	return nil
}

func (s *SQLiteStore) ListQueries(ctx context.Context, userID string) ([]SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, query, response, synthesized_recommendation, chart_data, chart_type, chart_title, created_at
        FROM saved_queries
        WHERE app_id = ? AND user_id = ?`, s.appID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved queries: %w", err)
	}
	defer rows.Close()

	queries := []SavedQuery{}
	for rows.Next() {
		var q SavedQuery
		var chartData string
		var ts time.Time
		if err := rows.Scan(&q.ID, &q.Query, &q.Response, &q.SynthesizedRecommendation, &chartData, &q.ChartType, &q.ChartTitle, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan saved query row: %w", err)
		}
		if chartData != "" {
			q.ChartData = []byte(chartData)
		}
		ts = ts.UTC()
		q.Timestamp = &ts
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved queries: %w", err)
	}
	sortNewestFirst(queries)
	return queries, nil
}

func (s *SQLiteStore) WatchQueries(ctx context.Context, userID string) (<-chan []SavedQuery, error) {
	return watch(ctx, s.hub, queriesKey(userID), func(ctx context.Context) ([]SavedQuery, error) {
		return s.ListQueries(ctx, userID)
	})
}

// Source methods

func (s *SQLiteStore) AddSource(ctx context.Context, src *Source) error {
	src.ID = uuid.NewString()
	src.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO admin_sources (id, app_id, name, url, api_key, description, created_at, created_by)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, s.appID, src.Name, src.URL, src.APIKey, src.Description, src.CreatedAt, src.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, url, api_key, description, created_at, created_by
        FROM admin_sources WHERE app_id = ? ORDER BY created_at DESC`, s.appID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources := []Source{}
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.Name, &src.URL, &src.APIKey, &src.Description, &src.CreatedAt, &src.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func (s *SQLiteStore) DeleteSource(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM admin_sources WHERE id = ? AND app_id = ?", id, s.appID)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// watch emits the current value of read immediately and again after every
// hub notification for key, until ctx is done.
func watch[T any](ctx context.Context, hub *Hub, key string, read func(context.Context) (T, error)) (<-chan T, error) {
	notify, cancel := hub.Subscribe(key)
	value, err := read(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T)
	go func() {
		defer close(out)
		defer cancel()

		for {
			select {
			case out <- value:
			case <-ctx.Done():
				return
			}
			for {
				select {
				case <-notify:
				case <-ctx.Done():
					return
				}
				next, err := read(ctx)
				if err != nil {
					slog.Warn("watch re-read failed", "key", key, "error", err)
					continue
				}
				value = next
				break
			}
		}
	}()
	return out, nil
}
