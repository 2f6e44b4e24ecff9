package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"xlerion.co/guide/internal/auth"
	"xlerion.co/guide/internal/store"
)

// Session is the identity a request acts as. Fallback sessions carry a
// locally generated ID that the store does not know about.
type Session struct {
	UserID       string `json:"userId"`
	Email        string `json:"email,omitempty"`
	IsRegistered bool   `json:"isRegistered"`
	IsAdmin      bool   `json:"isAdmin"`
	Fallback     bool   `json:"fallback,omitempty"`
}

// AccountStore is the part of the store sessions need.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc *store.Account) error
	UpdateAccount(ctx context.Context, acc *store.Account) error
	GetAccount(ctx context.Context, id string) (*store.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*store.Account, error)
	GetAccountBySubject(ctx context.Context, subject string) (*store.Account, error)
	SetRole(ctx context.Context, id string, role store.Role) error
}

type SessionService struct {
	store  AccountStore
	issuer *auth.Issuer
}

func NewSessionService(accounts AccountStore, issuer *auth.Issuer) *SessionService {
	return &SessionService{store: accounts, issuer: issuer}
}

func sessionFor(acc *store.Account) Session {
	return Session{
		UserID:       acc.ID,
		Email:        acc.Email,
		IsRegistered: acc.Registered,
		IsAdmin:      acc.Role == store.RoleAdmin,
	}
}

// Resolve turns a session token into the session of an existing account.
func (s *SessionService) Resolve(ctx context.Context, token string) (Session, error) {
	userID, err := s.issuer.ValidateJWT(token)
	if err != nil {
		return Session{}, err
	}
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return sessionFor(acc), nil
}

// Bootstrap resolves token or starts a new anonymous session. The returned
// token is empty when the caller's token is still good. If the store cannot
// create an account, a fallback session is returned along with an error
// wrapping ErrAuthFallback.
func (s *SessionService) Bootstrap(ctx context.Context, token string) (Session, string, error) {
	if token != "" {
		sess, err := s.Resolve(ctx, token)
		if err == nil {
			return sess, "", nil
		}
		slog.Debug("session token rejected, starting anonymous session", "error", err)
	}

	sess, newToken, err := s.SignInAnonymously(ctx)
	if err != nil {
		slog.Warn("anonymous sign-in failed, using fallback identifier", "error", err)
		return Session{UserID: uuid.NewString(), Fallback: true}, "", fmt.Errorf("%w: %w", ErrAuthFallback, err)
	}
	return sess, newToken, nil
}

func (s *SessionService) SignInAnonymously(ctx context.Context) (Session, string, error) {
	acc := &store.Account{Role: store.RoleUser}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return Session{}, "", fmt.Errorf("failed to create anonymous account: %w", err)
	}
	slog.Info("anonymous account created", "user_id", acc.ID)
	return s.issue(acc)
}

// SignUp registers an email identity. An anonymous caller is upgraded in
// place so its history and quota follow it.
func (s *SessionService) SignUp(ctx context.Context, current Session, email, password string) (Session, string, error) {
	email, err := auth.NormalizeEmail(email)
	if err != nil {
		return Session{}, "", err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return Session{}, "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	if acc := s.upgradable(ctx, current); acc != nil {
		acc.Email = email
		acc.PasswordHash = hash
		acc.Registered = true
		if err := s.store.UpdateAccount(ctx, acc); err != nil {
			return Session{}, "", err
		}
		slog.Info("anonymous account registered", "user_id", acc.ID)
		return s.issue(acc)
	}

	acc := &store.Account{Email: email, PasswordHash: hash, Registered: true, Role: store.RoleUser}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return Session{}, "", err
	}
	slog.Info("account registered", "user_id", acc.ID)
	return s.issue(acc)
}

func (s *SessionService) SignIn(ctx context.Context, email, password string) (Session, string, error) {
	email, err := auth.NormalizeEmail(email)
	if err != nil {
		return Session{}, "", ErrInvalidCredentials
	}
	acc, err := s.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, "", err
	}
	if !auth.CheckPasswordHash(password, acc.PasswordHash) {
		return Session{}, "", ErrInvalidCredentials
	}
	return s.issue(acc)
}

// SignInWithIdentity finds or creates the account behind an OAuth identity.
// A new identity arriving on an anonymous session upgrades that account.
func (s *SessionService) SignInWithIdentity(ctx context.Context, current Session, id auth.Identity) (Session, string, error) {
	acc, err := s.store.GetAccountBySubject(ctx, id.Subject)
	if err == nil {
		return s.issue(acc)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return Session{}, "", err
	}

	email := id.Email
	if email != "" {
		if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
			// Already claimed by a password account; keep the identities apart.
			email = ""
		}
	}

	if acc := s.upgradable(ctx, current); acc != nil {
		acc.Subject = id.Subject
		acc.Email = email
		acc.Registered = true
		if err := s.store.UpdateAccount(ctx, acc); err != nil {
			return Session{}, "", err
		}
		slog.Info("anonymous account linked to identity", "user_id", acc.ID)
		return s.issue(acc)
	}

	acc = &store.Account{Subject: id.Subject, Email: email, Registered: true, Role: store.RoleUser}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return Session{}, "", err
	}
	slog.Info("account created from identity", "user_id", acc.ID)
	return s.issue(acc)
}

// SetAdmin grants or revokes the admin role of an existing account.
func (s *SessionService) SetAdmin(ctx context.Context, userID string, admin bool) error {
	role := store.RoleUser
	if admin {
		role = store.RoleAdmin
	}
	if err := s.store.SetRole(ctx, userID, role); err != nil {
		return fmt.Errorf("failed to set role for %s: %w", userID, err)
	}
	slog.Info("role updated", "user_id", userID, "role", role)
	return nil
}

func (s *SessionService) upgradable(ctx context.Context, current Session) *store.Account {
	if current.UserID == "" || current.Fallback || current.IsRegistered {
		return nil
	}
	acc, err := s.store.GetAccount(ctx, current.UserID)
	if err != nil || acc.Registered {
		return nil
	}
	return acc
}

func (s *SessionService) issue(acc *store.Account) (Session, string, error) {
	token, err := s.issuer.GenerateJWT(acc.ID)
	if err != nil {
		return Session{}, "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return sessionFor(acc), token, nil
}
