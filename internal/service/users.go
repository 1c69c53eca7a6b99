// users.go — UserService: управление учётными записями сотрудников.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bigkaa/reurb-backend/internal/auth"
	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/domain/rbac"
	"github.com/bigkaa/reurb-backend/internal/repository"
)

// CreateUserInput — данные нового пользователя.
type CreateUserInput struct {
	Name     string
	Login    string
	Password string
	// Role — пусто означает rbac.RoleUser
	Role string
}

// UpdateUserInput — частичное обновление. nil — поле не меняется.
type UpdateUserInput struct {
	Name     *string
	Login    *string
	Password *string
	Role     *string
}

// UserService — CRUD пользователей и начальная учётная запись администратора.
type UserService struct {
	repo   repository.UserRepository
	hasher *auth.PasswordHasher
	logger *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(repo repository.UserRepository, hasher *auth.PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

// Create создаёт пользователя. Занятый логин — ErrConflict.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	login := strings.TrimSpace(in.Login)
	role := in.Role
	if role == "" {
		role = rbac.RoleUser
	}

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: поле name обязательно", ErrValidation)
	case login == "":
		return nil, fmt.Errorf("%w: поле login обязательно", ErrValidation)
	case in.Password == "":
		return nil, fmt.Errorf("%w: поле password обязательно", ErrValidation)
	case !rbac.IsValidRole(role):
		return nil, invalidRole(role)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	user := &model.User{Name: name, Login: login, PasswordHash: hash, Role: role}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapUserRepoError(err, login)
	}

	s.logger.InfoContext(ctx, "Пользователь создан",
		slog.Int64("user_id", user.ID),
		slog.String("login", user.Login),
		slog.String("role", user.Role),
	)
	return user, nil
}

// List возвращает всех пользователей.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка пользователей: %w", err)
	}
	return users, nil
}

// Get возвращает пользователя по ID.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

// Update применяет частичное обновление. Пустой пароль не меняет пароль.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*model.User, error) {
	var upd model.UserUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: поле name не может быть пустым", ErrValidation)
		}
		upd.Name = &name
	}
	if in.Login != nil {
		login := strings.TrimSpace(*in.Login)
		if login == "" {
			return nil, fmt.Errorf("%w: поле login не может быть пустым", ErrValidation)
		}
		upd.Login = &login
	}
	if in.Role != nil {
		if !rbac.IsValidRole(*in.Role) {
			return nil, invalidRole(*in.Role)
		}
		upd.Role = in.Role
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("хэширование пароля: %w", err)
		}
		upd.PasswordHash = &hash
	}

	if upd.IsEmpty() {
		return s.Get(ctx, id)
	}

	login := ""
	if upd.Login != nil {
		login = *upd.Login
	}
	user, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, mapUserRepoError(err, login)
	}

	s.logger.InfoContext(ctx, "Пользователь обновлён", slog.Int64("user_id", id))
	return user, nil
}

// Delete удаляет пользователя.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление пользователя: %w", err)
	}
	s.logger.InfoContext(ctx, "Пользователь удалён", slog.Int64("user_id", id))
	return nil
}

// EnsureAdmin создаёт администратора с указанным логином, если такого
// логина ещё нет. Возвращает true, если учётная запись была создана.
func (s *UserService) EnsureAdmin(ctx context.Context, login, password string) (bool, error) {
	_, err := s.repo.GetByLogin(ctx, login)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("проверка администратора: %w", err)
	}

	_, err = s.Create(ctx, CreateUserInput{
		Name:     "Administrador",
		Login:    login,
		Password: password,
		Role:     rbac.RoleAdmin,
	})
	if err != nil {
		// Параллельный запуск другого экземпляра успел создать запись
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func invalidRole(role string) error {
	return fmt.Errorf("%w: некорректная роль %q, допустимые значения: %s",
		ErrValidation, role, strings.Join(rbac.Roles(), ", "))
}

func mapUserRepoError(err error, login string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: логин '%s' уже занят", ErrConflict, login)
	case errors.Is(err, repository.ErrInvalidData):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	default:
		return fmt.Errorf("сохранение пользователя: %w", err)
	}
}
