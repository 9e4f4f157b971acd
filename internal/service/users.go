package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/littlelemon/internal/auth"
	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/validation"
)

// RegisterUser регистрирует нового пользователя.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validation.Credentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := model.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
	}
	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

// Login проверяет логин и пароль пользователя и выпускает токен доступа.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", model.ErrInvalidCredentials
	}

	return s.tokens.Issue(u.ID)
}

// Logout отзывает текущий токен пользователя.
func (s *Service) Logout(ctx context.Context, c auth.Claims) error {
	return s.tokens.Revoke(ctx, c)
}

// Me возвращает профиль текущего пользователя.
func (s *Service) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}

// ListUsers возвращает список пользователей. Администратор видит всех,
// остальные только себя.
func (s *Service) ListUsers(ctx context.Context, actorID int64) ([]model.User, error) {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin {
		return s.repo.ListUsers(ctx)
	}

	u, err := s.Me(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return []model.User{*u}, nil
}

// EnsureAdmin создаёт администратора, если пользователя с таким именем ещё нет.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return false, err
	}

	if err := validation.Credentials(username, password); err != nil {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	_, err = s.repo.CreateUser(ctx, model.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListGroupMembers возвращает состав группы.
func (s *Service) ListGroupMembers(ctx context.Context, actorID int64, group string) ([]model.User, error) {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !p.CanManageGroup(group) {
		return nil, model.ErrForbidden
	}
	return s.repo.ListGroupMembers(ctx, group)
}

// AddToGroup добавляет пользователя с указанным именем в группу.
func (s *Service) AddToGroup(ctx context.Context, actorID int64, group, username string) error {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return err
	}
	if !p.CanManageGroup(group) {
		return model.ErrForbidden
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return model.Invalid("username", "this field is required")
	}

	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repo.AddUserToGroup(ctx, u.ID, group)
}

// RemoveFromGroup исключает пользователя из группы.
func (s *Service) RemoveFromGroup(ctx context.Context, actorID int64, group string, userID int64) error {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return err
	}
	if !p.CanManageGroup(group) {
		return model.ErrForbidden
	}

	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return err
	}

	removed, err := s.repo.RemoveUserFromGroup(ctx, userID, group)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("user %d is not in group %s: %w", userID, group, model.ErrNotFound)
	}
	return nil
}
