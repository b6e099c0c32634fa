package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

var errInvalidCredentials = &domain.UnauthorizedError{Message: "invalid email or password"}

// Service encapsulates user-related business logic
type Service struct {
	repo store.Repository[*models.User]
	cost int
}

func NewService(r store.Repository[*models.User]) *Service {
	return &Service{repo: r, cost: bcrypt.DefaultCost}
}

// RegisterInput is the payload of a password registration.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company"`
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Register creates a password account. A user owns itself: UserID equals ID.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	u := &models.User{
		Email:   normalizeEmail(in.Email),
		Name:    strings.TrimSpace(in.Name),
		Company: strings.TrimSpace(in.Company),
	}
	if err := u.Validate(); err != nil {
		return nil, domain.FromValidation(err)
	}
	if len(in.Password) < minPasswordLen {
		return nil, &domain.ValidationError{
			Message: "password is too short",
			Fields:  map[string]string{"password": "must be at least 8 characters"},
		}
	}
	if existing, err := s.byEmail(ctx, u.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.Conflict("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = string(hash)
	return s.insert(ctx, u)
}

func (s *Service) insert(ctx context.Context, u *models.User) (*models.User, error) {
	u.ID = uuid.NewString()
	u.UserID = u.ID
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) byEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repo.FindOne(ctx, "", store.Filter{"email": email})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// Authenticate checks a password login. Unknown emails and wrong passwords return the
// same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.byEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, errInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	return u, nil
}

// UpsertFromIdentity provisions or updates an SSO account. Accounts are matched by
// subject, then by email (linking an existing password account to the provider).
func (s *Service) UpsertFromIdentity(ctx context.Context, sub, email, name string) (*models.User, error) {
	if sub == "" {
		return nil, domain.Invalid("missing subject")
	}
	email = normalizeEmail(email)
	u, err := s.repo.FindOne(ctx, "", store.Filter{"sub": sub})
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.byEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		u = &models.User{Sub: sub, Email: email, Name: name}
		if err := u.Validate(); err != nil {
			return nil, domain.FromValidation(err)
		}
		return s.insert(ctx, u)
	}
	changed := false
	if u.Sub != sub {
		u.Sub, changed = sub, true
	}
	if name != "" && u.Name != name {
		u.Name, changed = name, true
	}
	if changed {
		if err := s.repo.Replace(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.Get(ctx, id, id)
}
