package auth

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/prasit-dev/pharmadmin/internal/domain"
	"github.com/prasit-dev/pharmadmin/internal/pkg"
)

// Service defines the authentication operations.
type Service interface {
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	Register(ctx context.Context, name, email, password, role string) (*domain.User, error)
}

// authService implements Service.
type authService struct {
	tokens   *pkg.TokenManager
	userRepo domain.UserRepository
}

// NewService creates a new auth Service.
func NewService(tokens *pkg.TokenManager, userRepo domain.UserRepository) Service {
	return &authService{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// Login authenticates a user by email and password and returns a signed
// token carrying the user's role.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the user exists; always return unauthorized.
		if domain.IsNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, expiresAt, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to generate token", err)
	}

	return &TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

// validateRegisterInput validates registration input. name and email are expected
// to be pre-trimmed by callers; TrimSpace here ensures the validator is self-contained.
func validateRegisterInput(name, email, password string) error {
	nameLen := utf8.RuneCountInString(strings.TrimSpace(name))
	if nameLen == 0 {
		return domain.NewAppError(domain.CodeValidation, "name is required", nil)
	}
	if nameLen > 100 {
		return domain.NewAppError(domain.CodeValidation, "name must not exceed 100 characters", nil)
	}
	trimmedEmail := strings.TrimSpace(email)
	if len(trimmedEmail) == 0 {
		return domain.NewAppError(domain.CodeValidation, "email is required", nil)
	}
	addr, err := mail.ParseAddress(trimmedEmail)
	if err != nil || addr.Name != "" || addr.Address != trimmedEmail {
		return domain.NewAppError(domain.CodeValidation, "email must be a valid email address", nil)
	}
	if len(password) < 8 {
		return domain.NewAppError(domain.CodeValidation, "password must be at least 8 characters", nil)
	}
	if len(password) > 72 {
		return domain.NewAppError(domain.CodeValidation, "password must not exceed 72 characters", nil)
	}
	return nil
}

// validRole reports whether role is one of the built-in role names.
func validRole(role string) bool {
	switch role {
	case domain.RoleAdmin, domain.RolePharmacist, domain.RoleClerk:
		return true
	}
	return false
}

// Register creates a new user with the given credentials. An empty role
// defaults to clerk.
func (s *authService) Register(ctx context.Context, name, email, password, role string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if err := validateRegisterInput(name, email, password); err != nil {
		return nil, err
	}

	if role == "" {
		role = domain.RoleClerk
	}
	if !validRole(role) {
		return nil, domain.NewAppError(domain.CodeValidation, "unknown role "+role, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	user := domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}
