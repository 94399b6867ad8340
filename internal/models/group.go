package models

import "time"

// Group is a named collection of members. Membership is fixed at
// creation time; the creator becomes the sole initial admin.
type Group struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupMember links a handle to a group.
type GroupMember struct {
	GroupID  int    `db:"group_id" json:"group_id"`
	Username string `db:"username" json:"username"`
	Admin    bool   `db:"is_admin" json:"is_admin"`
}
