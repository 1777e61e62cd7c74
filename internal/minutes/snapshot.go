package minutes

import "time"

// Snapshot is an immutable point-in-time copy of a room's fields, handed to
// the export renderer. Slices are deep-copied so later mutation of the room
// never shows through.
type Snapshot struct {
	Code          string
	Info          Info
	Leader        string
	Attendees     []string
	Discussion    []DiscussionItem
	Additional    string
	Tasks         []Task
	Confirmations []string
	ExportedAt    time.Time
}

// Snapshot produces the export copy. Admin-only.
func (r *Room) Snapshot(actor Actor) (Snapshot, error) {
	if err := requireAdmin(actor); err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		Code:          r.code,
		Info:          r.info,
		Leader:        actor.Name,
		Attendees:     append([]string(nil), r.attendees...),
		Discussion:    append([]DiscussionItem(nil), r.discussion...),
		Additional:    r.additional,
		Tasks:         append([]Task(nil), r.tasks...),
		Confirmations: append([]string(nil), r.confirmations...),
		ExportedAt:    r.clock().In(r.loc),
	}, nil
}
