// Package access содержит правила ролевого доступа к заказам.
package access

import "github.com/mmeshcher/littlelemon/internal/model"

// Role - роль пользователя для целей авторизации.
type Role int

const (
	RoleCustomer Role = iota
	RoleDeliveryCrew
	RoleManager
)

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "manager"
	case RoleDeliveryCrew:
		return "delivery crew"
	default:
		return "customer"
	}
}

// Resolve определяет роль по членству в группах.
// Менеджер имеет приоритет над курьером, при отсутствии обеих групп пользователь - клиент.
func Resolve(groups []string) Role {
	role := RoleCustomer
	for _, g := range groups {
		switch g {
		case model.GroupManager:
			return RoleManager
		case model.GroupDeliveryCrew:
			role = RoleDeliveryCrew
		}
	}
	return role
}

// Principal - аутентифицированный пользователь с вычисленной ролью.
type Principal struct {
	UserID  int64
	Role    Role
	IsAdmin bool
}

// NewPrincipal вычисляет роль пользователя один раз на запрос.
func NewPrincipal(u model.User) Principal {
	return Principal{
		UserID:  u.ID,
		Role:    Resolve(u.Groups),
		IsAdmin: u.IsAdmin,
	}
}

// CanManageMenu сообщает, может ли пользователь изменять меню и категории.
func (p Principal) CanManageMenu() bool {
	return p.IsAdmin || p.Role == RoleManager
}

// CanManageGroup сообщает, может ли пользователь управлять составом группы.
// Менеджеров назначает администратор, курьеров - менеджер.
func (p Principal) CanManageGroup(group string) bool {
	switch group {
	case model.GroupManager:
		return p.IsAdmin
	case model.GroupDeliveryCrew:
		return p.IsAdmin || p.Role == RoleManager
	default:
		return false
	}
}
