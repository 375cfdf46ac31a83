// Package services holds the account and recipe-image business logic that
// sits between the HTTP handlers and the datastore repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreybb/recipes/auth"
	"github.com/coreybb/recipes/common"
	"github.com/coreybb/recipes/logging"
	"github.com/coreybb/recipes/models"
)

// MinPasswordLength is the shortest password accepted on registration or
// profile update.
const MinPasswordLength = 5

// UserStore is the persistence UserService needs. *datastore.UserRepository
// satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

// UserService handles registration, login and profile changes.
type UserService struct {
	users  UserStore
	tokens TokenIssuer
	log    logging.Logger
}

func NewUserService(users UserStore, tokens TokenIssuer, log logging.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: log.With("component", "user_service")}
}

// NormalizeEmail trims surrounding space and lowercases the whole address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a regular account. An empty password leaves the
// account without a usable password, so it cannot log in.
func (s *UserService) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.create(ctx, email, password, name, false)
}

// CreateSuperuser registers an account with staff and superuser rights.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.create(ctx, email, password, "", true)
}

func (s *UserService) create(ctx context.Context, email, password, name string, super bool) (*models.User, error) {
	email = NormalizeEmail(email)
	verr := &common.ValidationError{}
	if email == "" {
		verr.Add("email", "This field may not be blank.")
	}
	if password != "" {
		checkPasswordLength(verr, password)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hash := auth.UnusablePassword()
	if password != "" {
		var err error
		if hash, err = auth.HashPassword(password); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      super,
		IsSuperuser:  super,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.NewValidationError("email", "user with this email already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info(ctx, "user created", "user_id", user.ID, "superuser", super)
	return user, nil
}

// VerifyCredentials returns a session token when email and password match an
// active account. Every failure is reported as common.ErrInvalidCredentials.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", common.ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("lookup user: %w", err)
		}
		auth.BurnPasswordCheck(password)
		return "", common.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, password) || !user.IsActive {
		s.log.Warn(ctx, "rejected login", "user_id", user.ID)
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// GetUser returns the account with the given id.
func (s *UserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile applies the non-nil fields of upd to the user's account.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := &common.ValidationError{}
	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		if email == "" {
			verr.Add("email", "This field may not be blank.")
		}
		user.Email = email
	}
	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Password != nil {
		checkPasswordLength(verr, *upd.Password)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if upd.Password != nil {
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.NewValidationError("email", "user with this email already exists.")
		}
		return nil, fmt.Errorf("update user %d: %w", userID, err)
	}
	return user, nil
}

func checkPasswordLength(verr *common.ValidationError, password string) {
	if len([]rune(password)) < MinPasswordLength {
		verr.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength))
	}
}
