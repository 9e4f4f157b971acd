package service

import (
	"context"
	"strings"

	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/repository"
	"github.com/mmeshcher/littlelemon/internal/validation"
)

// DefaultPerPage - размер страницы меню по умолчанию.
const DefaultPerPage = 3

var menuOrdering = fieldSet(repository.MenuSortColumns)

// ListCategories возвращает все категории.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory создаёт категорию. Доступно администратору и менеджеру.
func (s *Service) CreateCategory(ctx context.Context, actorID int64, slug, title string) (model.Category, error) {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return model.Category{}, err
	}
	if !p.CanManageMenu() {
		return model.Category{}, model.ErrForbidden
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Category{}, model.Invalid("slug", "this field is required")
	}
	title, err = validation.SanitizeTitle(title)
	if err != nil {
		return model.Category{}, err
	}

	return s.repo.CreateCategory(ctx, model.Category{Slug: slug, Title: title})
}

// MenuQuery - параметры выборки меню в том виде, в каком они пришли от клиента.
type MenuQuery struct {
	CategoryID int64
	Search     string
	Ordering   string
	Page       int
	PerPage    int
}

// ListMenuItems возвращает страницу меню.
func (s *Service) ListMenuItems(ctx context.Context, q MenuQuery) ([]model.MenuItem, error) {
	ordering, err := validation.ParseOrdering(q.Ordering, menuOrdering)
	if err != nil {
		return nil, err
	}

	f := model.MenuFilter{
		CategoryID: q.CategoryID,
		Search:     strings.TrimSpace(q.Search),
		Ordering:   ordering,
		Page:       q.Page,
		PerPage:    q.PerPage,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}

	return s.repo.ListMenuItems(ctx, f)
}

// GetMenuItem возвращает позицию меню.
func (s *Service) GetMenuItem(ctx context.Context, id int64) (model.MenuItem, error) {
	return s.repo.GetMenuItem(ctx, id)
}

// CreateMenuItem создаёт позицию меню.
func (s *Service) CreateMenuItem(ctx context.Context, actorID int64, item model.MenuItem) (model.MenuItem, error) {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return model.MenuItem{}, err
	}
	if !p.CanManageMenu() {
		return model.MenuItem{}, model.ErrForbidden
	}

	item.Title, err = validation.SanitizeTitle(item.Title)
	if err != nil {
		return model.MenuItem{}, err
	}
	if err := validation.Price(item.Price); err != nil {
		return model.MenuItem{}, err
	}
	if item.Category.ID == 0 {
		return model.MenuItem{}, model.Invalid("category_id", "this field is required")
	}

	return s.repo.CreateMenuItem(ctx, item)
}

// UpdateMenuItem частично изменяет позицию меню.
func (s *Service) UpdateMenuItem(ctx context.Context, actorID, id int64, patch model.MenuItemPatch) (model.MenuItem, error) {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return model.MenuItem{}, err
	}
	if !p.CanManageMenu() {
		return model.MenuItem{}, model.ErrForbidden
	}

	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return model.MenuItem{}, err
	}

	if patch.Title != nil {
		item.Title, err = validation.SanitizeTitle(*patch.Title)
		if err != nil {
			return model.MenuItem{}, err
		}
	}
	if patch.Price != nil {
		if err := validation.Price(*patch.Price); err != nil {
			return model.MenuItem{}, err
		}
		item.Price = *patch.Price
	}
	if patch.Featured != nil {
		item.Featured = *patch.Featured
	}
	if patch.CategoryID != nil {
		item.Category = model.Category{ID: *patch.CategoryID}
	}

	return s.repo.UpdateMenuItem(ctx, item)
}

// DeleteMenuItem удаляет позицию меню.
func (s *Service) DeleteMenuItem(ctx context.Context, actorID, id int64) error {
	p, err := s.principal(ctx, actorID)
	if err != nil {
		return err
	}
	if !p.CanManageMenu() {
		return model.ErrForbidden
	}
	return s.repo.DeleteMenuItem(ctx, id)
}
