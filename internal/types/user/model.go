package user

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleCustomer: 0,
	RoleStaff:    1,
	RoleManager:  2,
	RoleAdmin:    3,
}

// ParseRole возвращает роль по строке из токена или БД.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleRank[r]
	return r, ok
}

// AtLeast сравнивает роли по рангу: customer < staff < manager < admin.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

type User struct {
	ID           int64     `db:"id" json:"id"`
	Login        string    `db:"login" json:"login"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Actor — кто выполняет операцию. Роль резолвится один раз при аутентификации
// и дальше передаётся явно в каждую операцию.
type Actor struct {
	UserID int64
	Role   Role
	Guest  bool
}
