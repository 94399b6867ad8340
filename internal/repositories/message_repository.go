package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"schoolconnect/internal/models"
	"schoolconnect/internal/scope"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, sender, sender_id, body, status, starred, deleted_for, recipient, group_id, created_at`

// NewMessage carries the fields of a message to insert. Exactly one
// addressing mode: both Recipient and GroupID nil means global.
type NewMessage struct {
	Sender    string
	SenderID  *int
	Body      string
	Status    models.MessageStatus
	Recipient *string
	GroupID   *int
}

// MessagePatch is a partial update. The soft delete is an atomic
// add-to-set; Starred and Status are plain field replacements.
type MessagePatch struct {
	DeletedForUser string
	Starred        *bool
	Status         *models.MessageStatus
}

// MessageRepository defines interactions with stored messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg NewMessage) (models.Message, error)
	ListConversation(ctx context.Context, convo scope.Context, viewer string) ([]models.Message, error)
	ListVisibleSince(ctx context.Context, viewer string, groupIDs []int, afterID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	PatchMessage(ctx context.Context, messageID int, patch MessagePatch) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage persists a message. Status defaults to sent.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg NewMessage) (models.Message, error) {
	status := msg.Status
	if status == "" {
		status = models.StatusSent
	}

	var stored models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender, sender_id, body, status, recipient, group_id)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+messageColumns,
		msg.Sender, msg.SenderID, msg.Body, status, msg.Recipient, msg.GroupID).
		StructScan(&stored)
	return stored, err
}

// ListConversation returns the messages of one conversational context,
// oldest first with the id as tie-breaker. The viewer only matters for
// private threads, where the query selects both directions between the
// viewer and the peer.
func (r *MessageRepo) ListConversation(ctx context.Context, convo scope.Context, viewer string) ([]models.Message, error) {
	var (
		query string
		args  []interface{}
	)
	switch convo.Kind {
	case scope.KindPrivate:
		query = `SELECT ` + messageColumns + ` FROM messages
            WHERE group_id IS NULL AND recipient IS NOT NULL
            AND ((sender=$1 AND recipient=$2) OR (sender=$2 AND recipient=$1))
            ORDER BY created_at ASC, id ASC`
		args = []interface{}{viewer, convo.Peer}
	case scope.KindGroup:
		query = `SELECT ` + messageColumns + ` FROM messages
            WHERE group_id=$1
            ORDER BY created_at ASC, id ASC`
		args = []interface{}{convo.GroupID}
	default:
		query = `SELECT ` + messageColumns + ` FROM messages
            WHERE recipient IS NULL AND group_id IS NULL
            ORDER BY created_at ASC, id ASC`
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, args...)
	return msgs, err
}

// ListVisibleSince returns, ordered by id, every message after afterID
// that can reach the viewer in any context: the global channel, private
// threads involving the viewer, and the viewer's groups.
func (r *MessageRepo) ListVisibleSince(ctx context.Context, viewer string, groupIDs []int, afterID int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE id > $1 AND (
            (recipient IS NULL AND group_id IS NULL)
            OR (group_id IS NULL AND recipient IS NOT NULL AND (recipient=$2 OR sender=$2))
            OR (group_id = ANY($3))
        )
        ORDER BY id ASC`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, afterID, viewer, pq.Array(groupIDs))
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// PatchMessage applies a partial update inside one transaction, so the
// add-to-set soft delete and the field replacements cannot race each
// other. Adding an already-present handle to deleted_for is a no-op.
func (r *MessageRepo) PatchMessage(ctx context.Context, messageID int, patch MessagePatch) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if patch.DeletedForUser != "" {
		if _, err = tx.ExecContext(ctx, `UPDATE messages SET deleted_for = array_append(deleted_for, $2)
            WHERE id=$1 AND NOT ($2 = ANY(deleted_for))`, messageID, patch.DeletedForUser); err != nil {
			return models.Message{}, err
		}
	}
	if patch.Starred != nil {
		if _, err = tx.ExecContext(ctx, `UPDATE messages SET starred=$2 WHERE id=$1`, messageID, *patch.Starred); err != nil {
			return models.Message{}, err
		}
	}
	if patch.Status != nil {
		if _, err = tx.ExecContext(ctx, `UPDATE messages SET status=$2 WHERE id=$1`, messageID, *patch.Status); err != nil {
			return models.Message{}, err
		}
	}

	var msg models.Message
	err = tx.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrMessageNotFound
		return models.Message{}, err
	}
	if err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}
