package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/config"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/ports"
	"tillpos-backend/internal/repository"
)

var ErrInvalidCredentials = domain.ErrInvalidCredentials

type AuthService struct {
	Config config.Config
	Users  ports.UserStore
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func (s AuthService) Login(ctx context.Context, req api.AuthenticateUserRequest) (*api.AuthenticateUserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	user, err := s.Users.GetByUsername(ctx, req.LoginData.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.LoginData.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.Users.TouchLastLogin(ctx, user.ID); err != nil {
		s.Logger.Warn("touch last login failed", "user", user.Username, "err", err)
	} else {
		now := s.now()
		user.LastLogin = &now
	}
	return s.issueToken(user)
}

// HashPassword hashes a plain password for storage.
func (s AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s AuthService) CreateUser(ctx context.Context, req api.CreateUserRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	return s.Users.Create(ctx, repository.CreateUserParams{
		Username:     req.Username,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         req.Role,
	})
}

func (s AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}

func (s AuthService) issueToken(user *domain.User) (*api.AuthenticateUserResponse, error) {
	now := s.now()
	exp := now.Add(s.Config.AccessTokenTTL)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        user.ID,
		"username":   user.Username,
		"role":       user.Role,
		"token_type": "access",
		"exp":        exp.Unix(),
		"iat":        now.Unix(),
	}).SignedString([]byte(s.Config.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &api.AuthenticateUserResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      *user,
	}, nil
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
