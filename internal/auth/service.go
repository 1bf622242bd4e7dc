// Package auth issues and verifies bearer tokens and resolves them to
// users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"inventory/m/domain"
	"inventory/m/internal/logging"
	"inventory/m/internal/repository"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 12

// Notifier delivers mail to a user. The auth service only uses it for
// the welcome message after registration.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Service struct {
	repos    repository.Manager
	tokens   *TokenIssuer
	notifier Notifier
	logger   logging.Logger
	cost     int
}

// NewService builds the auth service. notifier may be nil.
func NewService(repos repository.Manager, tokens *TokenIssuer, notifier Notifier, logger logging.Logger) *Service {
	return &Service{repos: repos, tokens: tokens, notifier: notifier, logger: logger, cost: PasswordCost}
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  *domain.User
	Token string
}

func (s *Service) Register(ctx context.Context, name, email, password, storeID string) (*Session, error) {
	name, email, storeID = strings.TrimSpace(name), normalizeEmail(email), strings.TrimSpace(storeID)
	if name == "" || email == "" || password == "" || storeID == "" {
		return nil, domain.Validation("All Fields Required")
	}

	r := s.repos.Repos()
	if _, err := r.Stores.Get(ctx, storeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Store not found")
		}
		return nil, err
	}

	_, err := r.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.Conflict("User already exists")
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := r.Users.Create(ctx, &domain.User{Name: name, Email: email, Password: string(hashed), StoreID: storeID})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.welcome(ctx, user)
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "store_id", user.StoreID)
	return &Session{User: user, Token: token}, nil
}

func (s *Service) welcome(ctx context.Context, user *domain.User) {
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("Hello %s,\n\nYour inventory account is ready. Sign in with %s.\n", user.Name, user.Email)
	if err := s.notifier.Send(ctx, user.Email, "Welcome to Inventory", body); err != nil {
		s.logger.Warn(ctx, "welcome mail failed", "user_id", user.ID, "error", err)
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Validation("Email and password are required")
	}

	user, err := s.repos.Repos().Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, domain.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// Authenticate resolves an Authorization header value to the current
// user. Every call reads the user row.
func (s *Service) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, domain.Unauthorized("Invalid authorization header format")
	}
	raw := strings.TrimSpace(header[len(prefix):])
	if raw == "" {
		return nil, domain.Unauthorized("Invalid authorization header format")
	}

	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, domain.Unauthorized("Invalid or expired token")
	}

	user, err := s.repos.Repos().Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
