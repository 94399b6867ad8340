// Package scope decides which stored messages belong to a requested
// conversational context and which of those a given viewer may see.
package scope

import "schoolconnect/internal/models"

// Kind is the addressing mode of a conversation.
type Kind string

const (
	KindGlobal  Kind = "global"
	KindPrivate Kind = "private"
	KindGroup   Kind = "group"
)

// Context identifies one conversation: the shared global channel, a
// private thread with a peer, or a group.
type Context struct {
	Kind    Kind
	Peer    string
	GroupID int
}

// Global returns the shared-channel context.
func Global() Context {
	return Context{Kind: KindGlobal}
}

// Private returns the context of a one-to-one thread with peer.
func Private(peer string) Context {
	return Context{Kind: KindPrivate, Peer: peer}
}

// Group returns the context of a group conversation.
func Group(id int) Context {
	return Context{Kind: KindGroup, GroupID: id}
}

// Matches reports whether msg belongs to the conversation ctx as seen
// by viewer. This is the same predicate the store queries implement in
// SQL, usable against in-memory messages.
func Matches(msg models.Message, ctx Context, viewer string) bool {
	switch ctx.Kind {
	case KindGlobal:
		return msg.Recipient == nil && msg.GroupID == nil
	case KindPrivate:
		if msg.Recipient == nil || msg.GroupID != nil {
			return false
		}
		if msg.Sender == viewer && *msg.Recipient == ctx.Peer {
			return true
		}
		return msg.Sender == ctx.Peer && *msg.Recipient == viewer
	case KindGroup:
		return msg.GroupID != nil && *msg.GroupID == ctx.GroupID
	}
	return false
}

// Classify returns the notification kind for a message's addressing.
func Classify(msg models.Message) string {
	switch {
	case msg.GroupID != nil:
		return models.NotificationGroup
	case msg.Recipient != nil:
		return models.NotificationPrivate
	}
	return models.NotificationGlobal
}
