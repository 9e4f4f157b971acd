package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/littlelemon/internal/model"
)

// MenuSortColumns - поля, по которым можно сортировать меню.
var MenuSortColumns = map[string]string{
	"id":    "m.id",
	"title": "m.title",
	"price": "m.price",
}

const selectMenuItem = `
	SELECT m.id, m.title, m.price, m.featured, c.id, c.slug, c.title
	FROM menu_items m
	JOIN categories c ON c.id = m.category_id`

func scanMenuItem(row pgx.Row) (model.MenuItem, error) {
	var (
		item  model.MenuItem
		price int64
	)
	err := row.Scan(&item.ID, &item.Title, &price, &item.Featured,
		&item.Category.ID, &item.Category.Slug, &item.Category.Title)
	if err != nil {
		return model.MenuItem{}, err
	}
	item.Price = centsToDecimal(price)
	return item, nil
}

// ListCategories возвращает все категории.
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, slug, title FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var res []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateCategory создаёт категорию с уникальным slug.
func (r *PostgresRepository) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (slug, title) VALUES ($1, $2) RETURNING id`,
		c.Slug, c.Title,
	).Scan(&c.ID)
	if err != nil {
		if pgCode(err) == pgerrcode.UniqueViolation {
			return model.Category{}, fmt.Errorf("category %s: %w", c.Slug, model.ErrConflict)
		}
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// ListMenuItems возвращает страницу меню с учётом фильтров.
func (r *PostgresRepository) ListMenuItems(ctx context.Context, f model.MenuFilter) ([]model.MenuItem, error) {
	query := selectMenuItem + ` WHERE TRUE`
	var args []any

	if f.CategoryID != 0 {
		args = append(args, f.CategoryID)
		query += fmt.Sprintf(` AND m.category_id = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		query += fmt.Sprintf(` AND m.title ILIKE $%d`, len(args))
	}

	query += orderByClause(f.Ordering, MenuSortColumns, "m.id")

	if f.PerPage > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		args = append(args, f.PerPage, (page-1)*f.PerPage)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select menu items: %w", err)
	}
	defer rows.Close()

	var res []model.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		res = append(res, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetMenuItem возвращает позицию меню по идентификатору.
func (r *PostgresRepository) GetMenuItem(ctx context.Context, id int64) (model.MenuItem, error) {
	return getMenuItem(ctx, r.pool, id)
}

func getMenuItem(ctx context.Context, q queryer, id int64) (model.MenuItem, error) {
	item, err := scanMenuItem(q.QueryRow(ctx, selectMenuItem+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MenuItem{}, fmt.Errorf("menu item %d: %w", id, model.ErrNotFound)
		}
		return model.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	return item, nil
}

// CreateMenuItem создаёт позицию меню. Отметка featured снимается со всех остальных позиций.
func (r *PostgresRepository) CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	cents, err := decimalToCents(item.Price)
	if err != nil {
		return model.MenuItem{}, err
	}

	var created model.MenuItem
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO menu_items (title, price, featured, category_id) VALUES ($1, $2, $3, $4) RETURNING id`,
			item.Title, cents, item.Featured, item.Category.ID,
		).Scan(&id)
		if err != nil {
			return menuWriteError(err)
		}

		if item.Featured {
			if err := clearFeatured(ctx, tx, id); err != nil {
				return err
			}
		}

		created, err = getMenuItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return model.MenuItem{}, err
	}
	return created, nil
}

// UpdateMenuItem сохраняет изменения позиции меню.
func (r *PostgresRepository) UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	cents, err := decimalToCents(item.Price)
	if err != nil {
		return model.MenuItem{}, err
	}

	var updated model.MenuItem
	err = r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE menu_items SET title = $2, price = $3, featured = $4, category_id = $5 WHERE id = $1`,
			item.ID, item.Title, cents, item.Featured, item.Category.ID,
		)
		if err != nil {
			return menuWriteError(err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("menu item %d: %w", item.ID, model.ErrNotFound)
		}

		if item.Featured {
			if err := clearFeatured(ctx, tx, item.ID); err != nil {
				return err
			}
		}

		updated, err = getMenuItem(ctx, tx, item.ID)
		return err
	})
	if err != nil {
		return model.MenuItem{}, err
	}
	return updated, nil
}

// DeleteMenuItem удаляет позицию меню. Позиции, попавшие в заказы, удалить нельзя.
func (r *PostgresRepository) DeleteMenuItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("menu item %d is referenced by orders: %w", id, model.ErrConflict)
		}
		return fmt.Errorf("delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menu item %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func clearFeatured(ctx context.Context, tx pgx.Tx, exceptID int64) error {
	_, err := tx.Exec(ctx, `UPDATE menu_items SET featured = FALSE WHERE featured AND id <> $1`, exceptID)
	if err != nil {
		return fmt.Errorf("clear featured: %w", err)
	}
	return nil
}

func menuWriteError(err error) error {
	switch pgCode(err) {
	case pgerrcode.ForeignKeyViolation:
		return model.Invalid("category_id", "invalid pk, object does not exist")
	case pgerrcode.CheckViolation:
		return model.Invalid("price", "price cannot be negative")
	}
	return fmt.Errorf("write menu item: %w", err)
}
