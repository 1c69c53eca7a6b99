// auth.go — AuthService: вход по логину и паролю, проверка сессионного токена.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bigkaa/reurb-backend/internal/auth"
	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/repository"
)

// Principal — аутентифицированный пользователь запроса.
type Principal struct {
	UserID int64
	Name   string
	Login  string
	Role   string
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService — аутентификация сотрудников.
type AuthService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет логин и пароль и выдаёт токен.
// Неизвестный логин и неверный пароль дают одну и ту же ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Время ответа не должно выдавать существование логина
			s.hasher.VerifyDummy(password)
			s.logger.InfoContext(ctx, "Неудачная попытка входа", slog.String("login", login))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		s.logger.ErrorContext(ctx, "Повреждённый хэш пароля",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.InfoContext(ctx, "Неудачная попытка входа", slog.String("login", login))
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}

	s.logger.InfoContext(ctx, "Пользователь вошёл в систему",
		slog.Int64("user_id", user.ID),
		slog.String("login", user.Login),
	)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate проверяет токен и загружает текущего пользователя.
// Ошибки: auth.ErrTokenMissing, auth.ErrTokenMalformed, auth.ErrTokenExpired,
// auth.ErrTokenSignatureInvalid, ErrUserNotFound.
// Роль берётся из базы, а не из токена.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("получение пользователя токена: %w", err)
	}

	return &Principal{
		UserID: user.ID,
		Name:   user.Name,
		Login:  user.Login,
		Role:   user.Role,
	}, nil
}
