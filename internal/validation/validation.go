// Package validation содержит функции валидации входных данных.
package validation

import (
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/littlelemon/internal/model"
)

// DateLayout - формат даты заказа в запросах и ответах.
const DateLayout = "2006-01-02"

// MaxQuantity совпадает с диапазоном колонки INTEGER.
const MaxQuantity = math.MaxInt32

// MaxPrice - верхняя граница цены позиции меню (не включительно).
var MaxPrice = decimal.New(1, 13)

var titlePolicy = bluemonday.StrictPolicy()

// ParseOrderDate разбирает обязательную дату заказа.
func ParseOrderDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, model.Invalid("date", "this field is required")
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, model.Invalid("date", "date has wrong format, use YYYY-MM-DD")
	}
	return d, nil
}

// ParseOrdering разбирает список полей сортировки вида "total,-date".
// Допускаются только поля из allowed.
func ParseOrdering(raw string, allowed map[string]struct{}) ([]model.OrderingField, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var fields []model.OrderingField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := model.OrderingField{Name: part}
		if strings.HasPrefix(part, "-") {
			f = model.OrderingField{Name: part[1:], Desc: true}
		}
		if _, ok := allowed[f.Name]; !ok {
			return nil, model.Invalid("ordering", "unknown field "+f.Name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Quantity проверяет количество позиции в корзине.
func Quantity(q int) error {
	if q < 1 {
		return model.Invalid("quantity", "ensure this value is greater than or equal to 1")
	}
	if q > MaxQuantity {
		return model.Invalid("quantity", "ensure this value is less than or equal to 2147483647")
	}
	return nil
}

// Price проверяет цену позиции меню.
func Price(p decimal.Decimal) error {
	if p.IsNegative() {
		return model.Invalid("price", "price cannot be negative")
	}
	if p.GreaterThanOrEqual(MaxPrice) {
		return model.Invalid("price", "ensure that there are no more than 13 digits before the decimal point")
	}
	if !p.Equal(p.Round(2)) {
		return model.Invalid("price", "ensure that there are no more than 2 decimal places")
	}
	return nil
}

// SanitizeTitle удаляет разметку из названия и проверяет, что оно не пустое.
func SanitizeTitle(title string) (string, error) {
	clean := strings.TrimSpace(titlePolicy.Sanitize(title))
	if clean == "" {
		return "", model.Invalid("title", "this field may not be blank")
	}
	return clean, nil
}

// Credentials проверяет данные регистрации пользователя.
func Credentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return model.Invalid("username", "this field is required")
	}
	if len(username) > 150 {
		return model.Invalid("username", "ensure this field has no more than 150 characters")
	}
	if len(password) < 8 {
		return model.Invalid("password", "ensure this field has at least 8 characters")
	}
	return nil
}
