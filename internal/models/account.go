package models

import "time"

// Account roles. Global-channel posting is restricted to admins.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Account is a registered user.
type Account struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Password  string    `db:"password" json:"-"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Session is a server-side login session, created at login and
// destroyed at logout.
type Session struct {
	Token     string    `db:"token" json:"token"`
	Username  string    `db:"username" json:"username"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
