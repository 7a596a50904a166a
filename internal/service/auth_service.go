package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gym360/backend/internal/domain"
	"gym360/backend/internal/repository"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer       = "gym360"
	minPasswordLength = 8
)

var (
	ErrUserAlreadyExists    = fmt.Errorf("%w: user with this email already exists", ErrConflict)
	ErrAuthenticationFailed = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
)

// AuthService handles registration, login and admin bootstrap.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// EnsureAdmin creates the admin account if no user holds the email yet.
	EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error)
	GetJWTSecret() string
}

type authService struct {
	userRepo      repository.UserRepository
	profileRepo   repository.ProfileRepository
	jwtSecret     string
	jwtExpiration time.Duration
	logger        *log.Logger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	jwtSecret string,
	jwtExpiration time.Duration,
	logger *log.Logger,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 7 * 24 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		profileRepo:   profileRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		logger:        logger.WithPrefix("auth"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a client or coach account together with its profile
// document. Admin accounts are only created through EnsureAdmin.
func (s *authService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	switch {
	case name == "":
		return nil, invalid("name", "is required")
	case email == "":
		return nil, invalid("email", "is required")
	case len(password) < minPasswordLength:
		return nil, invalid("password", "must be at least 8 characters")
	case role != domain.RoleClient && role != domain.RoleCoach:
		return nil, invalid("role", "must be client or coach")
	}

	user, err := s.createUser(ctx, name, email, password, role)
	if err != nil {
		return nil, err
	}

	switch role {
	case domain.RoleClient:
		_, err = s.profileRepo.EnsureClient(ctx, user.ID)
	case domain.RoleCoach:
		_, err = s.profileRepo.EnsureCoach(ctx, user.ID)
	}
	if err != nil {
		return nil, storeErr("create profile", err)
	}

	s.logger.Info("user registered", "userId", user.ID.Hex(), "role", role)
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("lookup user", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// The unique email index catches registrations racing past GetByEmail.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, storeErr("create user", err)
	}
	user.ID = userID
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, invalid("credentials", "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, storeErr("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("admin", "email and password are required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			return nil, fmt.Errorf("%w: %s belongs to a %s account", ErrConflict, email, existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr("lookup admin", err)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = "Admin"
	}
	user, err := s.createUser(ctx, name, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin account created", "userId", user.ID.Hex(), "email", email)
	user.PasswordHash = ""
	return user, nil
}

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
