package order

import (
	"github.com/dangminhtuanan/storefront/internal/types/order"
	usertype "github.com/dangminhtuanan/storefront/internal/types/user"
)

type transitionKey struct {
	from, to order.OrderStatus
}

// transitions — таблица легальных переходов и минимальная роль для каждого.
// pending → paid → shipped → completed, cancelled достижим из pending и paid.
var transitions = map[transitionKey]usertype.Role{
	{order.StatusPending, order.StatusPaid}:      usertype.RoleStaff, // подтверждение COD; оплата шлюзом идёт через MarkPaid
	{order.StatusPending, order.StatusCancelled}: usertype.RoleCustomer,
	{order.StatusPaid, order.StatusCancelled}:    usertype.RoleStaff,
	{order.StatusPaid, order.StatusShipped}:      usertype.RoleStaff,
	{order.StatusShipped, order.StatusCompleted}: usertype.RoleStaff,
}

// CanTransition проверяет переход и право роли на него.
func CanTransition(from, to order.OrderStatus, role usertype.Role) error {
	min, ok := transitions[transitionKey{from, to}]
	if !ok {
		return ErrInvalidTransition
	}
	if !role.AtLeast(min) {
		return ErrForbidden
	}
	return nil
}
