package models

// Notification kinds emitted by the watcher and the push hub.
const (
	NotificationGlobal      = "global"
	NotificationPrivate     = "private"
	NotificationGroup       = "group"
	NotificationGroupInvite = "group_invite"
)

// Notification is a categorized "new item" event for one viewer.
type Notification struct {
	Kind      string `json:"kind"`
	Sender    string `json:"sender,omitempty"`
	Preview   string `json:"preview,omitempty"`
	MessageID int    `json:"message_id,omitempty"`
	GroupID   int    `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}
