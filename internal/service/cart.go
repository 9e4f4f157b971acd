package service

import (
	"context"
	"errors"
	"time"

	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/validation"
)

// ListCart возвращает корзину пользователя.
func (s *Service) ListCart(ctx context.Context, userID int64) ([]model.CartLine, error) {
	return s.repo.ListCart(ctx, userID)
}

// AddToCart добавляет позицию меню в корзину по текущей цене.
func (s *Service) AddToCart(ctx context.Context, userID, menuItemID int64, quantity int) (model.CartLine, error) {
	if err := validation.Quantity(quantity); err != nil {
		return model.CartLine{}, err
	}

	line, err := s.repo.AddCartLine(ctx, userID, menuItemID, quantity)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.CartLine{}, model.Invalid("menuitem", "invalid pk, object does not exist")
		}
		return model.CartLine{}, err
	}
	return line, nil
}

// ClearCart очищает корзину пользователя.
func (s *Service) ClearCart(ctx context.Context, userID int64) error {
	return s.repo.ClearCart(ctx, userID)
}

// Checkout оформляет заказ из корзины пользователя на указанную дату.
// Пустая корзина приводит к model.ErrEmptyCart без изменений в хранилище.
func (s *Service) Checkout(ctx context.Context, userID int64, date time.Time) (*model.Order, error) {
	if date.IsZero() {
		return nil, model.Invalid("date", "this field is required")
	}
	return s.repo.Checkout(ctx, userID, date)
}
