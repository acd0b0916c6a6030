package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/teakspice/cart-backend/internal/account/domain"
)

const minPasswordLen = 6

var ErrInvalidInput = errors.New("invalid input")

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type ProfileUpdate struct {
	Name  string
	Email string
	Phone string
}

type Service struct {
	users  UserRepo
	tokens TokenIssuer
	cost   int
}

func NewService(users UserRepo, tokens TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.users.Create(ctx, domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
	})
}

// Login checks the credentials and returns the user with a signed token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return domain.User{}, "", err
	}
	return u, tok, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.Get(ctx, userID)
}

// UpdateProfile overwrites only the non-blank fields of upd.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	if name := strings.TrimSpace(upd.Name); name != "" {
		u.Name = name
	}
	if phone := strings.TrimSpace(upd.Phone); phone != "" {
		u.Phone = phone
	}
	if email := domain.NormalizeEmail(upd.Email); email != "" {
		if !strings.Contains(email, "@") {
			return domain.User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
		}
		u.Email = email
	}
	return s.users.Update(ctx, u)
}
