package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"schoolconnect/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, creator, name string, members []string) (models.Group, error)
	ListGroupsForUser(ctx context.Context, username string) ([]models.Group, error)
	ListMembers(ctx context.Context, groupID int) ([]string, error)
	IsMember(ctx context.Context, groupID int, username string) (bool, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group and its members atomically. The creator
// is always seeded as a member and the sole initial admin, even when
// listed among the invitees.
func (r *GroupRepo) CreateGroup(ctx context.Context, creator, name string, members []string) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.QueryRowxContext(ctx, `INSERT INTO groups (name, created_by) VALUES ($1, $2) RETURNING id, name, created_by, created_at`, name, creator).
		Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt); err != nil {
		return models.Group{}, err
	}

	memberSet := map[string]struct{}{creator: {}}
	for _, handle := range members {
		memberSet[handle] = struct{}{}
	}
	handles := make([]string, 0, len(memberSet))
	for handle := range memberSet {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	for _, handle := range handles {
		if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, username, is_admin) VALUES ($1, $2, $3)`,
			group.ID, handle, handle == creator); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// ListGroupsForUser returns groups that include the user, newest first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, username string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups, `SELECT g.id, g.name, g.created_by, g.created_at FROM groups g
        INNER JOIN group_members gm ON gm.group_id = g.id WHERE gm.username=$1 ORDER BY g.created_at DESC, g.id DESC`, username)
	return groups, err
}

// ListMembers returns the member handles of a group.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID int) ([]string, error) {
	var handles []string
	err := r.db.SelectContext(ctx, &handles, `SELECT username FROM group_members WHERE group_id=$1 ORDER BY username ASC`, groupID)
	return handles, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND username=$2)`, groupID, username)
	return exists, err
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT id, name, created_by, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}
