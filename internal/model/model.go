// Package model содержит доменные сущности сервиса Little Lemon.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Названия групп, определяющих роль пользователя.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery crew"
)

// User представляет зарегистрированного пользователя.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	IsAdmin      bool
	Groups       []string
	CreatedAt    time.Time
}

// InGroup сообщает, состоит ли пользователь в указанной группе.
func (u User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Category описывает категорию меню.
type Category struct {
	ID    int64
	Slug  string
	Title string
}

// MenuItem описывает позицию меню.
type MenuItem struct {
	ID       int64
	Title    string
	Price    decimal.Decimal
	Featured bool
	Category Category
}

// MenuFilter задаёт параметры выборки позиций меню.
type MenuFilter struct {
	CategoryID int64
	Search     string
	Ordering   []OrderingField
	Page       int
	PerPage    int
}

// CartLine описывает строку корзины пользователя.
type CartLine struct {
	ID        int64
	UserID    int64
	MenuItem  MenuItem
	Quantity  int
	UnitPrice decimal.Decimal
	Price     decimal.Decimal
}

// Order описывает заказ, сформированный из корзины.
type Order struct {
	ID           int64
	UserID       int64
	DeliveryCrew *int64
	Status       bool
	Total        decimal.Decimal
	Date         time.Time
	Items        []OrderItem
}

// AssignedTo сообщает, назначен ли заказ указанному курьеру.
func (o Order) AssignedTo(userID int64) bool {
	return o.DeliveryCrew != nil && *o.DeliveryCrew == userID
}

// OrderItem - неизменяемый снимок строки корзины на момент оформления заказа.
type OrderItem struct {
	ID        int64
	MenuItem  MenuItem
	Quantity  int
	UnitPrice decimal.Decimal
	Price     decimal.Decimal
}

// OrderPatch описывает частичное изменение заказа.
// Поле DeliveryCrewSet отличает отсутствие поля от явного null.
type OrderPatch struct {
	DeliveryCrewSet bool
	DeliveryCrew    *int64
	Status          *bool
}

// OrderingField - поле сортировки выборки.
type OrderingField struct {
	Name string
	Desc bool
}

// OrderScope ограничивает выборку заказов.
type OrderScope struct {
	All          bool
	OwnerID      int64
	DeliveryCrew int64
}

// MenuItemPatch описывает изменение позиции меню. Пустые поля не изменяются.
type MenuItemPatch struct {
	Title      *string
	Price      *decimal.Decimal
	Featured   *bool
	CategoryID *int64
}
