package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/littlelemon/internal/model"
)

// ListCart возвращает строки корзины пользователя в порядке добавления.
func (r *PostgresRepository) ListCart(ctx context.Context, userID int64) ([]model.CartLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cl.id, cl.quantity, cl.unit_price, cl.price,
		        m.id, m.title, m.price, m.featured, c.id, c.slug, c.title
		 FROM cart_lines cl
		 JOIN menu_items m ON m.id = cl.menu_item_id
		 JOIN categories c ON c.id = m.category_id
		 WHERE cl.user_id = $1
		 ORDER BY cl.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	defer rows.Close()

	var res []model.CartLine
	for rows.Next() {
		var (
			line                        model.CartLine
			unitPrice, price, menuPrice int64
		)
		err := rows.Scan(&line.ID, &line.Quantity, &unitPrice, &price,
			&line.MenuItem.ID, &line.MenuItem.Title, &menuPrice, &line.MenuItem.Featured,
			&line.MenuItem.Category.ID, &line.MenuItem.Category.Slug, &line.MenuItem.Category.Title)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		line.UserID = userID
		line.UnitPrice = centsToDecimal(unitPrice)
		line.Price = centsToDecimal(price)
		line.MenuItem.Price = centsToDecimal(menuPrice)
		res = append(res, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// AddCartLine добавляет строку в корзину, фиксируя текущую цену позиции меню.
// Повторное добавление той же позиции создаёт отдельную строку.
func (r *PostgresRepository) AddCartLine(ctx context.Context, userID, menuItemID int64, quantity int) (model.CartLine, error) {
	var line model.CartLine
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		item, err := getMenuItem(ctx, tx, menuItemID)
		if err != nil {
			return err
		}

		unitCents, err := decimalToCents(item.Price)
		if err != nil {
			return err
		}
		priceCents, err := mulCents(unitCents, quantity)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO cart_lines (user_id, menu_item_id, quantity, unit_price, price)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			userID, menuItemID, quantity, unitCents, priceCents,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("insert cart line: %w", err)
		}

		line.UserID = userID
		line.MenuItem = item
		line.Quantity = quantity
		line.UnitPrice = centsToDecimal(unitCents)
		line.Price = centsToDecimal(priceCents)
		return nil
	})
	if err != nil {
		return model.CartLine{}, err
	}
	return line, nil
}

// ClearCart удаляет все строки корзины пользователя. Пустая корзина не является ошибкой.
func (r *PostgresRepository) ClearCart(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
