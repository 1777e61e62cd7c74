package minutes

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Actor is a (name, role) binding for one interactive session. It is passed
// explicitly into every operation that cares about roles.
type Actor struct {
	Name string
	Role Role
}

// Info is the meeting header, overwritten wholesale on every admin edit.
// Date is a calendar date and Time is free-form text; neither is validated.
type Info struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Place string `json:"place"`
	Task  string `json:"task"`
}

type DiscussionItem struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

type Task struct {
	Owner          string    `json:"owner"`
	Responsibility string    `json:"responsibility"`
	Due            time.Time `json:"due"`
}

type MemberStatus struct {
	Name      string `json:"name"`
	Confirmed bool   `json:"confirmed"`
}

// Status is the admin's sign-off overview: how many roster members have
// confirmed, out of how many, and who.
type Status struct {
	Confirmed int            `json:"confirmed"`
	Total     int            `json:"total"`
	Members   []MemberStatus `json:"members"`
}

// Room holds the shared state of a single meeting. All mutation goes through
// the methods below; the mutex keeps each operation atomic when multiple
// actors hit the same room from concurrent requests.
type Room struct {
	mu sync.Mutex

	code      string
	admin     string
	members   []string
	loc       *time.Location
	clock     func() time.Time
	createdAt time.Time

	attendees     []string
	confirmations []string
	discussion    []DiscussionItem
	tasks         []Task
	info          Info
	additional    string
	finalized     bool

	memberSet    mapset.Set
	attendeeSet  mapset.Set
	confirmedSet mapset.Set

	watchers  map[int]chan Status
	watcherID int
}

func newRoom(code, adminName string, members []string, loc *time.Location, clock func() time.Time) *Room {
	r := &Room{
		code:         code,
		admin:        adminName,
		members:      append([]string(nil), members...),
		loc:          loc,
		clock:        clock,
		createdAt:    clock().In(loc),
		memberSet:    mapset.NewThreadUnsafeSet(),
		attendeeSet:  mapset.NewThreadUnsafeSet(),
		confirmedSet: mapset.NewThreadUnsafeSet(),
		watchers:     make(map[int]chan Status),
	}
	for _, m := range r.members {
		r.memberSet.Add(m)
	}
	return r
}

func (r *Room) Code() string { return r.code }

func (r *Room) Admin() string {
	return r.admin
}

// Members returns the roster fixed at creation time.
func (r *Room) Members() []string {
	return append([]string(nil), r.members...)
}

func (r *Room) isMember(name string) bool {
	return r.memberSet.Contains(name)
}

func requireAdmin(actor Actor) error {
	if actor.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (r *Room) mutable() error {
	if r.finalized {
		return ErrRoomFinalized
	}
	return nil
}

// RecordAttendance idempotently marks the named actor as present. Callable by
// any role; the HTTP layer calls it on every room view.
func (r *Room) RecordAttendance(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" || r.attendeeSet.Contains(name) {
		return
	}
	r.attendeeSet.Add(name)
	r.attendees = append(r.attendees, name)
}

func (r *Room) SetInfo(actor Actor, info Info) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.mutable(); err != nil {
		return err
	}
	r.info = info
	return nil
}

func (r *Room) AddDiscussionItem(actor Actor, risk, mitigation string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if risk == "" || mitigation == "" {
		return ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.mutable(); err != nil {
		return err
	}
	r.discussion = append(r.discussion, DiscussionItem{Risk: risk, Mitigation: mitigation})
	return nil
}

func (r *Room) SetAdditionalNotes(actor Actor, text string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.mutable(); err != nil {
		return err
	}
	r.additional = text
	return nil
}

// AddTask appends a decision/action triple. A zero due date defaults to the
// current date in the room's configured location.
func (r *Room) AddTask(actor Actor, owner, responsibility string, due time.Time) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if owner == "" || responsibility == "" {
		return ErrMissingField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.mutable(); err != nil {
		return err
	}
	if due.IsZero() {
		now := r.clock().In(r.loc)
		due = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	}
	r.tasks = append(r.tasks, Task{Owner: owner, Responsibility: responsibility, Due: due})
	return nil
}

// Confirm records the named actor's sign-off. Only roster names may confirm;
// that keeps the confirmation count bounded by the roster. The second call
// for the same name is a no-op reported through the returned flag, so callers
// can surface an "already confirmed" message.
func (r *Room) Confirm(name string) (already bool, err error) {
	r.mu.Lock()

	if !r.memberSet.Contains(name) {
		r.mu.Unlock()
		return false, ErrNotAMember
	}
	if r.confirmedSet.Contains(name) {
		r.mu.Unlock()
		return true, nil
	}
	r.confirmedSet.Add(name)
	r.confirmations = append(r.confirmations, name)
	status := r.statusLocked()
	r.mu.Unlock()

	r.broadcast(status)
	return false, nil
}

func (r *Room) statusLocked() Status {
	st := Status{
		Confirmed: len(r.confirmations),
		Total:     len(r.members),
		Members:   make([]MemberStatus, 0, len(r.members)),
	}
	for _, m := range r.members {
		st.Members = append(st.Members, MemberStatus{
			Name:      m,
			Confirmed: r.confirmedSet.Contains(m),
		})
	}
	return st
}

func (r *Room) SignOffStatus(actor Actor) (Status, error) {
	if err := requireAdmin(actor); err != nil {
		return Status{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked(), nil
}

// Finalize freezes info, discussion, notes and tasks. Attendance, sign-offs,
// status and export remain available so the roster can still acknowledge the
// minutes. Idempotent.
func (r *Room) Finalize(actor Actor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
	return nil
}

func (r *Room) Finalized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

// View is the per-request read model rendered to any actor in the room.
type View struct {
	Code       string           `json:"code"`
	Admin      string           `json:"admin"`
	Info       Info             `json:"info"`
	Attendees  []string         `json:"attendees"`
	Discussion []DiscussionItem `json:"discussion"`
	Additional string           `json:"additional"`
	Tasks      []Task           `json:"tasks"`
	Finalized  bool             `json:"finalized"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (r *Room) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	return View{
		Code:       r.code,
		Admin:      r.admin,
		CreatedAt:  r.createdAt,
		Info:       r.info,
		Attendees:  append([]string(nil), r.attendees...),
		Discussion: append([]DiscussionItem(nil), r.discussion...),
		Additional: r.additional,
		Tasks:      append([]Task(nil), r.tasks...),
		Finalized:  r.finalized,
	}
}
