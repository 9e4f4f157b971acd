// Package service реализует бизнес-логику сервиса Little Lemon.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmeshcher/littlelemon/internal/access"
	"github.com/mmeshcher/littlelemon/internal/auth"
	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/repository"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u model.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListGroupMembers(ctx context.Context, group string) ([]model.User, error)
	AddUserToGroup(ctx context.Context, userID int64, group string) error
	RemoveUserFromGroup(ctx context.Context, userID int64, group string) (bool, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, c model.Category) (model.Category, error)
	ListMenuItems(ctx context.Context, f model.MenuFilter) ([]model.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (model.MenuItem, error)
	CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error

	ListCart(ctx context.Context, userID int64) ([]model.CartLine, error)
	AddCartLine(ctx context.Context, userID, menuItemID int64, quantity int) (model.CartLine, error)
	ClearCart(ctx context.Context, userID int64) error

	Checkout(ctx context.Context, userID int64, date time.Time) (*model.Order, error)
	ListOrders(ctx context.Context, scope model.OrderScope, ordering []model.OrderingField) ([]model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	UpdateOrder(ctx context.Context, id int64, mutate repository.OrderMutation) (*model.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// Tokens выпускает и отзывает токены доступа.
type Tokens interface {
	Issue(userID int64) (string, error)
	Revoke(ctx context.Context, c auth.Claims) error
}

// Service содержит бизнес-логику сервиса.
type Service struct {
	repo   Repository
	tokens Tokens
}

// NewService создаёт новый сервис с указанным репозиторием и менеджером токенов.
func NewService(repo Repository, tokens Tokens) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// principal загружает пользователя и вычисляет его роль.
// Пользователь, удалённый после выдачи токена, считается неаутентифицированным.
func (s *Service) principal(ctx context.Context, userID int64) (access.Principal, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return access.Principal{}, model.ErrUnauthenticated
		}
		return access.Principal{}, fmt.Errorf("resolve principal: %w", err)
	}
	return access.NewPrincipal(*u), nil
}

func fieldSet(columns map[string]string) map[string]struct{} {
	set := make(map[string]struct{}, len(columns))
	for k := range columns {
		set[k] = struct{}{}
	}
	return set
}
