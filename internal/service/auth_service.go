package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/horas-api/internal/dto"
	"github.com/noah-isme/horas-api/internal/models"
	"github.com/noah-isme/horas-api/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for unknown identifiers and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole indicates an unsupported account role.
	ErrInvalidRole = errors.New("role must be coordinator or monitor")
	// ErrDuplicateUser indicates the e-mail or CPF is already registered.
	ErrDuplicateUser = errors.New("a user with this email or cpf already exists")
)

// UserInput describes an account to create or update from the admin CLI.
type UserInput struct {
	Name     string
	Email    string
	CPF      string
	Role     string
	Password string
}

// AuthService issues tokens and manages accounts.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	UpsertUser(ctx context.Context, input UserInput) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	secret    []byte
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &authService{
		users:     users,
		validator: validate,
		secret:    []byte(secret),
		ttl:       ttl,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info().Uint("user_id", user.ID).Msg("login rejected")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	expiresAt := s.now().Add(s.ttl)
	claims := dto.AccessClaims{
		Role: user.Role,
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

// UpsertUser creates the account or, when the e-mail already exists, replaces its
// name, role, CPF and password.
func (s *authService) UpsertUser(ctx context.Context, input UserInput) (dto.UserResponse, error) {
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role != models.RoleCoordinator && role != models.RoleMonitor {
		return dto.UserResponse{}, ErrInvalidRole
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validator.Var(email, "required,email"); err != nil {
		return dto.UserResponse{}, err
	}
	if len(input.Password) < 6 {
		return dto.UserResponse{}, fmt.Errorf("password must have at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByIdentifier(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Email = email
	user.Role = role
	user.PasswordHash = string(hash)
	if cpf := strings.TrimSpace(input.CPF); cpf != "" {
		user.CPF = &cpf
	}

	if err := s.users.Save(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.UserResponse{}, ErrDuplicateUser
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user saved")
	return dto.NewUserResponse(user), nil
}
