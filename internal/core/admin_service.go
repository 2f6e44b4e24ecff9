package core

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"xlerion.co/guide/internal/store"
)

// SourceStore is the part of the store the admin console needs.
type SourceStore interface {
	AddSource(ctx context.Context, src *store.Source) error
	ListSources(ctx context.Context) ([]store.Source, error)
	DeleteSource(ctx context.Context, id string) error
}

type SourceInput struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	APIKey      string `json:"apiKey"`
	Description string `json:"description"`
}

// SourceView is a source as shown to admins, with the key masked.
type SourceView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	APIKey      string    `json:"apiKey,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
}

func viewOf(src store.Source) SourceView {
	return SourceView{
		ID:          src.ID,
		Name:        src.Name,
		URL:         src.URL,
		APIKey:      MaskAPIKey(src.APIKey),
		Description: src.Description,
		CreatedAt:   src.CreatedAt,
		CreatedBy:   src.CreatedBy,
	}
}

type AdminService struct {
	store SourceStore
}

func NewAdminService(sources SourceStore) *AdminService {
	return &AdminService{store: sources}
}

func (s *AdminService) ListSources(ctx context.Context, sess Session) ([]SourceView, error) {
	if !sess.IsAdmin {
		return nil, ErrNotAdmin
	}
	sources, err := s.store.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]SourceView, 0, len(sources))
	for _, src := range sources {
		views = append(views, viewOf(src))
	}
	return views, nil
}

func (s *AdminService) CreateSource(ctx context.Context, sess Session, in SourceInput) (SourceView, error) {
	if !sess.IsAdmin {
		return SourceView{}, ErrNotAdmin
	}

	src := store.Source{
		Name:        strings.TrimSpace(in.Name),
		URL:         strings.TrimSpace(in.URL),
		APIKey:      strings.TrimSpace(in.APIKey),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   sess.UserID,
	}
	if src.Name == "" || !validSourceURL(src.URL) {
		return SourceView{}, ErrInvalidSource
	}

	if err := s.store.AddSource(ctx, &src); err != nil {
		return SourceView{}, err
	}
	slog.Info("source created", "source_id", src.ID, "created_by", sess.UserID)
	return viewOf(src), nil
}

func (s *AdminService) DeleteSource(ctx context.Context, sess Session, id string) error {
	if !sess.IsAdmin {
		return ErrNotAdmin
	}
	if err := s.store.DeleteSource(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSourceNotFound
		}
		return err
	}
	slog.Info("source deleted", "source_id", id, "deleted_by", sess.UserID)
	return nil
}

func validSourceURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// MaskAPIKey keeps the first four characters of key. Shorter keys are hidden
// entirely.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	runes := []rune(key)
	if len(runes) <= 4 {
		return "…"
	}
	return string(runes[:4]) + "…"
}
