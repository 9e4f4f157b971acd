package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated возвращается, если запрос не содержит действительного токена.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden возвращается, если у пользователя нет доступа к ресурсу.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound возвращается, если запрошенная сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart возвращается при оформлении заказа из пустой корзины.
	ErrEmptyCart = errors.New("there is no cart related to this user")
	// ErrConflict возвращается при нарушении уникальности.
	ErrConflict = errors.New("already exists")
	// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// PermissionDeniedError описывает нарушение правила авторизации.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return "permission denied: " + e.Reason
}

// PermissionDenied создаёт ошибку авторизации с указанной причиной.
func PermissionDenied(reason string) error {
	return &PermissionDeniedError{Reason: reason}
}

// ValidationError описывает некорректное значение поля запроса.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid создаёт ошибку валидации поля.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
