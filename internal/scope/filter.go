package scope

import "schoolconnect/internal/models"

// Selection is the trash/category tab the viewer has active.
type Selection string

const (
	SelectionAll     Selection = "all"
	SelectionSent    Selection = "sent"
	SelectionDrafts  Selection = "drafts"
	SelectionStarred Selection = "starred"
	SelectionTrash   Selection = "trash"
)

// ParseSelection maps a raw query value to a Selection. An empty value
// means the default All tab; anything else passes through untouched so
// unknown values stay fail-closed in Visible.
func ParseSelection(raw string) Selection {
	if raw == "" {
		return SelectionAll
	}
	return Selection(raw)
}

// Visible applies the per-viewer display rules to one message.
// Precedence: the trash check wins over everything, then the viewer's
// soft delete hides the message, then the active selection decides.
// Unknown selections never match.
func Visible(msg models.Message, viewer string, sel Selection) bool {
	deleted := msg.DeletedForViewer(viewer)

	if sel == SelectionTrash {
		return deleted
	}
	if deleted {
		return false
	}

	switch sel {
	case SelectionAll:
		return msg.Status == models.StatusSent
	case SelectionSent:
		return msg.Sender == viewer && msg.Status == models.StatusSent
	case SelectionDrafts:
		return msg.Sender == viewer && msg.Status == models.StatusDraft
	case SelectionStarred:
		return msg.Starred && msg.Status != models.StatusDraft
	}
	return false
}

// Filter returns the subsequence of msgs visible to viewer under sel,
// preserving order. It never mutates its input.
func Filter(msgs []models.Message, viewer string, sel Selection) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		if Visible(msg, viewer, sel) {
			out = append(out, msg)
		}
	}
	return out
}
