package service

import (
	"context"

	"github.com/mmeshcher/littlelemon/internal/access"
	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/repository"
	"github.com/mmeshcher/littlelemon/internal/validation"
)

var orderOrdering = fieldSet(repository.OrderSortColumns)

// ListOrders возвращает заказы, видимые пользователю: менеджеру - все,
// курьеру - назначенные ему, клиенту - собственные.
func (s *Service) ListOrders(ctx context.Context, userID int64, ordering string) ([]model.Order, error) {
	fields, err := validation.ParseOrdering(ordering, orderOrdering)
	if err != nil {
		return nil, err
	}

	p, err := s.principal(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListOrders(ctx, access.OrderScopeFor(p), fields)
}

// GetOrder возвращает заказ. Клиент видит только собственные заказы.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	p, err := s.principal(ctx, userID)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !access.CanViewOrder(p, *o) {
		return nil, model.ErrForbidden
	}
	return o, nil
}

// UpdateOrder изменяет курьера и статус заказа.
// Проверка прав выполняется над состоянием заказа, заблокированным в транзакции.
func (s *Service) UpdateOrder(ctx context.Context, userID, orderID int64, patch model.OrderPatch) (*model.Order, error) {
	p, err := s.principal(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.repo.UpdateOrder(ctx, orderID, func(ctx context.Context, current model.Order, users repository.UserLookup) (model.Order, error) {
		if err := access.AuthorizeOrderPatch(p, current, patch); err != nil {
			return model.Order{}, err
		}

		crewExists := false
		if patch.DeliveryCrewSet && patch.DeliveryCrew != nil {
			exists, err := users.UserExists(ctx, *patch.DeliveryCrew)
			if err != nil {
				return model.Order{}, err
			}
			crewExists = exists
		}

		return access.ApplyOrderPatch(current, patch, crewExists), nil
	})
}

// DeleteOrder удаляет заказ. Доступно только менеджеру.
func (s *Service) DeleteOrder(ctx context.Context, userID, orderID int64) error {
	p, err := s.principal(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return err
	}

	if !access.CanDeleteOrder(p) {
		return model.ErrForbidden
	}

	return s.repo.DeleteOrder(ctx, orderID)
}
