package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/auth"
	"github.com/noah-isme/academia-api/internal/dto"
	"github.com/noah-isme/academia-api/internal/models"
	"github.com/noah-isme/academia-api/internal/repository"
)

// AuthService handles account registration and sign-in.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, actor Actor) (*dto.UserResponse, error)
	EnsureUser(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, bool, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    *auth.TokenManager
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		tokens:    tokens,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	user, err := s.createUser(ctx, req)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		Actor:      Actor{ID: user.ID, Role: user.Role, Email: user.Email},
		Action:     "user.registered",
		EntityType: "user",
		EntityID:   &user.ID,
		Metadata:   map[string]interface{}{"role": user.Role},
	})

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Debug().Uint("user_id", user.ID).Msg("password mismatch")
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Me returns nil for an anonymous caller or an account that no longer exists.
func (s *authService) Me(ctx context.Context, actor Actor) (*dto.UserResponse, error) {
	if actor.Anonymous() {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	response := dto.NewUserResponse(user)
	return &response, nil
}

// EnsureUser creates the account unless the email is already registered. The
// boolean reports whether a new account was created.
func (s *authService) EnsureUser(ctx context.Context, req dto.RegisterRequest) (dto.UserResponse, bool, error) {
	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return dto.NewUserResponse(existing), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, false, err
	}

	user, err := s.createUser(ctx, req)
	if err != nil {
		return dto.UserResponse{}, false, err
	}
	return dto.NewUserResponse(user), true, nil
}

func (s *authService) createUser(ctx context.Context, req dto.RegisterRequest) (models.User, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return models.User{}, err
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{Email: req.Email, PasswordHash: hash, Role: req.Role}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}
