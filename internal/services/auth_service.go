package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/yukikurage/task-tracker/internal/auth"
	"github.com/yukikurage/task-tracker/internal/config"
	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration, credential checks and session resolution.
type AuthService struct {
	userRepo   repository.UserRepository
	tokens     *auth.Manager
	identifier string
	hashCost   int
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService. identifier selects whether login
// looks users up by email or by username.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.Manager, identifier string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		identifier: identifier,
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// SessionTTL is the lifetime of issued session tokens.
func (s *AuthService) SessionTTL() time.Duration {
	return s.tokens.TTL()
}

// Identifier reports which user attribute login expects.
func (s *AuthService) Identifier() string {
	return s.identifier
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

// Register creates a new user with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" {
		return nil, validationError("username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("email is invalid")
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if err := s.ensureIdentityFree(ctx, username, email); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         input.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *AuthService) ensureIdentityFree(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return ErrDuplicateIdentity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return ErrDuplicateIdentity
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	return nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Identifier string
	Password   string
}

// Session is an issued session token for an authenticated user.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Authenticate verifies credentials and issues a session token. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.lookup(ctx, strings.TrimSpace(input.Identifier))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Spend the same hashing time as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(input.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*models.User, error) {
	if identifier == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if s.identifier == config.IdentifierUsername {
		return s.userRepo.FindByUsername(ctx, identifier)
	}
	return s.userRepo.FindByEmail(ctx, strings.ToLower(identifier))
}

func (s *AuthService) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), s.hashCost)
	})
	return s.dummyHash
}

// ResolveSession returns the current user row behind token. ok is false when
// the token is absent, malformed, expired or its user no longer exists; err is
// reserved for store failures.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (user *models.User, ok bool, err error) {
	if token == "" {
		return nil, false, nil
	}

	claims, err := s.tokens.Verify(token, s.now())
	if err != nil {
		return nil, false, nil
	}

	user, err = s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load session user: %w", err)
	}

	return user, true, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
