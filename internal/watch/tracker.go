// Package watch detects items that became visible to a viewer since
// their last poll and turns them into categorized notifications.
package watch

import (
	"context"
	"sync"
	"unicode/utf8"

	"schoolconnect/internal/models"
	"schoolconnect/internal/observability"
	"schoolconnect/internal/repositories"
	"schoolconnect/internal/scope"
)

// previewLimit caps notification previews, in runes.
const previewLimit = 50

// Tracker keeps a monotonic id cursor per viewer, one for messages and
// one for groups. Cursors only advance, so deletions between polls can
// never corrupt the detected delta.
type Tracker struct {
	messages repositories.MessageRepository
	groups   repositories.GroupRepository

	mu      sync.Mutex
	cursors map[string]*cursor
}

type cursor struct {
	messageID int
	groupID   int
	primed    bool
}

// NewTracker constructs a Tracker.
func NewTracker(messages repositories.MessageRepository, groups repositories.GroupRepository) *Tracker {
	return &Tracker{
		messages: messages,
		groups:   groups,
		cursors:  make(map[string]*cursor),
	}
}

// Poll returns the notifications that accumulated for the viewer since
// the previous call. The first poll of a viewer only establishes the
// baseline and emits nothing, so a fresh login never triggers a burst.
func (t *Tracker) Poll(ctx context.Context, viewer string) ([]models.Notification, error) {
	observability.IncNotificationPoll()

	groups, err := t.groups.ListGroupsForUser(ctx, viewer)
	if err != nil {
		return nil, err
	}
	groupIDs := make([]int, 0, len(groups))
	groupNames := make(map[int]string, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
		groupNames[g.ID] = g.Name
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.cursors[viewer]
	if !ok {
		cur = &cursor{}
		t.cursors[viewer] = cur
	}

	if !cur.primed {
		msgs, err := t.messages.ListVisibleSince(ctx, viewer, groupIDs, 0)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			cur.messageID = msgs[len(msgs)-1].ID
		}
		for _, g := range groups {
			if g.ID > cur.groupID {
				cur.groupID = g.ID
			}
		}
		cur.primed = true
		return nil, nil
	}

	msgs, err := t.messages.ListVisibleSince(ctx, viewer, groupIDs, cur.messageID)
	if err != nil {
		return nil, err
	}

	var notifs []models.Notification
	for _, msg := range msgs {
		if msg.ID > cur.messageID {
			cur.messageID = msg.ID
		}
		if msg.Sender == viewer || msg.Status != models.StatusSent {
			continue
		}
		n := models.Notification{
			Kind:      scope.Classify(msg),
			Sender:    msg.Sender,
			Preview:   Preview(msg.Body),
			MessageID: msg.ID,
		}
		if msg.GroupID != nil {
			n.GroupID = *msg.GroupID
			n.GroupName = groupNames[*msg.GroupID]
		}
		observability.IncNotificationEmitted(n.Kind)
		notifs = append(notifs, n)
	}

	prevGroupID := cur.groupID
	for _, g := range groups {
		if g.ID > cur.groupID {
			cur.groupID = g.ID
		}
	}
	for _, g := range groups {
		if g.ID <= prevGroupID || g.CreatedBy == viewer {
			continue
		}
		observability.IncNotificationEmitted(models.NotificationGroupInvite)
		notifs = append(notifs, models.Notification{
			Kind:      models.NotificationGroupInvite,
			Sender:    g.CreatedBy,
			GroupID:   g.ID,
			GroupName: g.Name,
		})
	}

	return notifs, nil
}

// Forget drops the viewer's cursor, e.g. on logout.
func (t *Tracker) Forget(viewer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cursors, viewer)
}

// Preview truncates text to the notification preview length, appending
// an ellipsis when something was cut.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLimit]) + "..."
}
