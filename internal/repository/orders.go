package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/littlelemon/internal/model"
)

// OrderSortColumns - поля, по которым можно сортировать заказы.
var OrderSortColumns = map[string]string{
	"id":            "o.id",
	"user":          "o.user_id",
	"delivery_crew": "o.delivery_crew_id",
	"status":        "o.status",
	"total":         "o.total",
	"date":          "o.date",
}

// UserLookup проверяет существование пользователей внутри транзакции изменения заказа.
type UserLookup interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// OrderMutation вычисляет новое состояние заказа по текущему, заблокированному на время транзакции.
// Ошибка отменяет транзакцию и возвращается вызывающему без изменений.
type OrderMutation func(ctx context.Context, current model.Order, users UserLookup) (model.Order, error)

const selectOrder = `SELECT o.id, o.user_id, o.delivery_crew_id, o.status, o.total, o.date FROM orders o`

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o     model.Order
		total int64
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.DeliveryCrew, &o.Status, &total, &o.Date); err != nil {
		return model.Order{}, err
	}
	o.Total = centsToDecimal(total)
	return o, nil
}

// cartRow - строка корзины, заблокированная на время оформления заказа.
type cartRow struct {
	id         int64
	menuItemID int64
	quantity   int
	unitPrice  int64
}

// orderLine - позиция будущего заказа в центах.
type orderLine struct {
	position   int
	menuItemID int64
	quantity   int
	unitPrice  int64
	price      int64
}

// buildOrderLines копирует строки корзины в позиции заказа в исходном порядке
// и считает сумму заказа. Пустая корзина возвращает model.ErrEmptyCart.
func buildOrderLines(cart []cartRow) ([]orderLine, int64, error) {
	if len(cart) == 0 {
		return nil, 0, model.ErrEmptyCart
	}

	lines := make([]orderLine, 0, len(cart))
	var total int64
	for i, c := range cart {
		price, err := mulCents(c.unitPrice, c.quantity)
		if err != nil {
			return nil, 0, err
		}
		total, err = addCents(total, price)
		if err != nil {
			return nil, 0, err
		}
		lines = append(lines, orderLine{
			position:   i,
			menuItemID: c.menuItemID,
			quantity:   c.quantity,
			unitPrice:  c.unitPrice,
			price:      price,
		})
	}
	return lines, total, nil
}

// Checkout оформляет заказ из корзины пользователя в одной транзакции:
// создаёт заказ, копирует строки корзины в позиции заказа, фиксирует сумму и очищает корзину.
func (r *PostgresRepository) Checkout(ctx context.Context, userID int64, date time.Time) (*model.Order, error) {
	var order model.Order
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		// Блокировка строк корзины не даёт параллельному оформлению использовать их повторно.
		rows, err := tx.Query(ctx,
			`SELECT id, menu_item_id, quantity, unit_price
			 FROM cart_lines
			 WHERE user_id = $1
			 ORDER BY id
			 FOR UPDATE`,
			userID,
		)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}

		var cart []cartRow
		for rows.Next() {
			var c cartRow
			if err := rows.Scan(&c.id, &c.menuItemID, &c.quantity, &c.unitPrice); err != nil {
				rows.Close()
				return fmt.Errorf("scan cart line: %w", err)
			}
			cart = append(cart, c)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		lines, total, err := buildOrderLines(cart)
		if err != nil {
			return err
		}

		var orderID int64
		err = tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, status, total, date) VALUES ($1, FALSE, $2, $3) RETURNING id`,
			userID, total, date,
		).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, l := range lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO order_items (order_id, position, menu_item_id, quantity, unit_price, price)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				orderID, l.position, l.menuItemID, l.quantity, l.unitPrice, l.price,
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		lineIDs := make([]int64, 0, len(cart))
		for _, c := range cart {
			lineIDs = append(lineIDs, c.id)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = ANY($1)`, lineIDs); err != nil {
			return fmt.Errorf("delete cart lines: %w", err)
		}

		o, err := loadOrder(ctx, tx, orderID, false)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders возвращает заказы в пределах области видимости вместе с их позициями.
func (r *PostgresRepository) ListOrders(ctx context.Context, scope model.OrderScope, ordering []model.OrderingField) ([]model.Order, error) {
	query := selectOrder
	var args []any

	switch {
	case scope.All:
	case scope.DeliveryCrew != 0:
		args = append(args, scope.DeliveryCrew)
		query += ` WHERE o.delivery_crew_id = $1`
	default:
		args = append(args, scope.OwnerID)
		query += ` WHERE o.user_id = $1`
	}

	query += orderByClause(ordering, OrderSortColumns, "o.id")

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := attachItems(ctx, r.pool, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetOrder возвращает заказ с позициями.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := loadOrder(ctx, r.pool, id, false)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrder блокирует строку заказа, применяет к ней mutation и сохраняет курьера и статус.
// Владелец, сумма и позиции заказа не изменяются.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, id int64, mutate OrderMutation) (*model.Order, error) {
	var updated model.Order
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		current, err := loadOrder(ctx, tx, id, true)
		if err != nil {
			return err
		}

		next, err := mutate(ctx, current, txUsers{tx: tx})
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET delivery_crew_id = $2, status = $3 WHERE id = $1`,
			id, next.DeliveryCrew, next.Status,
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		updated = current
		updated.DeliveryCrew = next.DeliveryCrew
		updated.Status = next.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteOrder удаляет заказ вместе с позициями.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", id, model.ErrNotFound)
	}
	return nil
}

type txUsers struct {
	tx pgx.Tx
}

func (u txUsers) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := u.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadOrder(ctx context.Context, q queryer, id int64, forUpdate bool) (model.Order, error) {
	query := selectOrder + ` WHERE o.id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, fmt.Errorf("order %d: %w", id, model.ErrNotFound)
		}
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}

	orders := []model.Order{o}
	if err := attachItems(ctx, q, orders); err != nil {
		return model.Order{}, err
	}
	return orders[0], nil
}

// attachItems загружает позиции для набора заказов одним запросом.
func attachItems(ctx context.Context, q queryer, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
	}

	rows, err := q.Query(ctx,
		`SELECT oi.order_id, oi.id, oi.quantity, oi.unit_price, oi.price,
		        m.id, m.title, m.price, m.featured, c.id, c.slug, c.title
		 FROM order_items oi
		 JOIN menu_items m ON m.id = oi.menu_item_id
		 JOIN categories c ON c.id = m.category_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.order_id, oi.position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID                     int64
			item                        model.OrderItem
			unitPrice, price, menuPrice int64
		)
		err := rows.Scan(&orderID, &item.ID, &item.Quantity, &unitPrice, &price,
			&item.MenuItem.ID, &item.MenuItem.Title, &menuPrice, &item.MenuItem.Featured,
			&item.MenuItem.Category.ID, &item.MenuItem.Category.Slug, &item.MenuItem.Category.Title)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.UnitPrice = centsToDecimal(unitPrice)
		item.Price = centsToDecimal(price)
		item.MenuItem.Price = centsToDecimal(menuPrice)

		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}
