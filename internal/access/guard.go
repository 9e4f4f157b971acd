package access

import "github.com/mmeshcher/littlelemon/internal/model"

// Причины отказа, видимые пользователю.
const (
	ReasonAssignDeliveryCrew = "assign delivery crew"
	ReasonUpdateStatus       = "update status"
	ReasonNotAssignedCrew    = "not the assigned delivery crew"
	ReasonStatusFinalized    = "status already finalized"
	ReasonUpdateOrder        = "update order"
)

// AuthorizeOrderPatch проверяет, может ли пользователь применить изменение к текущему состоянию заказа.
func AuthorizeOrderPatch(p Principal, current model.Order, patch model.OrderPatch) error {
	if patch.DeliveryCrewSet && patch.DeliveryCrew != nil {
		if err := authorizeDeliveryCrew(p); err != nil {
			return err
		}
	}

	if patch.Status != nil {
		if err := authorizeStatus(p, current); err != nil {
			return err
		}
	}

	// Остальным отказываем даже на пустое изменение.
	if p.Role == RoleManager || (p.Role == RoleDeliveryCrew && current.AssignedTo(p.UserID)) {
		return nil
	}
	return model.PermissionDenied(ReasonUpdateOrder)
}

func authorizeDeliveryCrew(p Principal) error {
	if p.Role != RoleManager {
		return model.PermissionDenied(ReasonAssignDeliveryCrew)
	}
	return nil
}

// authorizeStatus реализует переходы pending <-> delivered.
// Назначенный курьер может менять статус в обе стороны, менеджер - только пока заказ не доставлен.
func authorizeStatus(p Principal, current model.Order) error {
	switch p.Role {
	case RoleDeliveryCrew:
		if !current.AssignedTo(p.UserID) {
			return model.PermissionDenied(ReasonNotAssignedCrew)
		}
		return nil
	case RoleManager:
		if current.Status {
			return model.PermissionDenied(ReasonStatusFinalized)
		}
		return nil
	default:
		return model.PermissionDenied(ReasonUpdateStatus)
	}
}

// ApplyOrderPatch применяет уже проверенное изменение: сначала курьера, затем статус.
// Ссылка на несуществующего курьера сбрасывается в null.
func ApplyOrderPatch(current model.Order, patch model.OrderPatch, crewExists bool) model.Order {
	next := current
	if patch.DeliveryCrewSet {
		if patch.DeliveryCrew != nil && crewExists {
			id := *patch.DeliveryCrew
			next.DeliveryCrew = &id
		} else {
			next.DeliveryCrew = nil
		}
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	return next
}

// CanViewOrder сообщает, может ли пользователь просматривать заказ.
// Ограничение по владельцу действует только для клиентов.
func CanViewOrder(p Principal, o model.Order) bool {
	if p.Role == RoleCustomer {
		return o.UserID == p.UserID
	}
	return true
}

// CanDeleteOrder сообщает, может ли пользователь удалить заказ.
func CanDeleteOrder(p Principal) bool {
	return p.Role == RoleManager
}

// OrderScopeFor возвращает область видимости заказов для роли пользователя.
func OrderScopeFor(p Principal) model.OrderScope {
	switch p.Role {
	case RoleManager:
		return model.OrderScope{All: true}
	case RoleDeliveryCrew:
		return model.OrderScope{DeliveryCrew: p.UserID}
	default:
		return model.OrderScope{OwnerID: p.UserID}
	}
}
