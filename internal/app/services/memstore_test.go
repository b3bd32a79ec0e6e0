package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

// memDB is an in-memory stand-in for the PostgreSQL repositories
type memDB struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*models.User
	workspaces   map[uuid.UUID]*models.Workspace
	members      []*models.WorkspaceMember
	events       map[uuid.UUID]*models.Event
	participants []*models.Participant
	attendance   map[[2]uuid.UUID]*models.Attendance
	groups       []*models.TelegramGroup
	txCount      int
	rollbacks    int
	seq          time.Time

	// injected store failures
	failUpdateStatus   error
	failAddParticipant error
}

func newMemDB() *memDB {
	return &memDB{
		users:      map[uuid.UUID]*models.User{},
		workspaces: map[uuid.UUID]*models.Workspace{},
		events:     map[uuid.UUID]*models.Event{},
		attendance: map[[2]uuid.UUID]*models.Attendance{},
		seq:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick hands out increasing timestamps for created_at columns
func (db *memDB) tick() time.Time {
	db.seq = db.seq.Add(time.Second)
	return db.seq
}

// memSnapshot is a deep copy of every table, restored when a transaction fails
type memSnapshot struct {
	users        map[uuid.UUID]*models.User
	workspaces   map[uuid.UUID]*models.Workspace
	members      []*models.WorkspaceMember
	events       map[uuid.UUID]*models.Event
	participants []*models.Participant
	attendance   map[[2]uuid.UUID]*models.Attendance
	groups       []*models.TelegramGroup
}

func copyMap[K comparable, V any](in map[K]*V) map[K]*V {
	out := make(map[K]*V, len(in))
	for k, v := range in {
		cp := *v
		out[k] = &cp
	}
	return out
}

func copySlice[V any](in []*V) []*V {
	out := make([]*V, 0, len(in))
	for _, v := range in {
		cp := *v
		out = append(out, &cp)
	}
	return out
}

func (db *memDB) snapshot() memSnapshot {
	return memSnapshot{
		users:        copyMap(db.users),
		workspaces:   copyMap(db.workspaces),
		members:      copySlice(db.members),
		events:       copyMap(db.events),
		participants: copySlice(db.participants),
		attendance:   copyMap(db.attendance),
		groups:       copySlice(db.groups),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.users, db.workspaces, db.members = s.users, s.workspaces, s.members
	db.events, db.participants = s.events, s.participants
	db.attendance, db.groups = s.attendance, s.groups
}

type memTx struct{ db *memDB }

func (t memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.db.mu.Lock()
	t.db.txCount++
	snap := t.db.snapshot()
	t.db.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.db.mu.Lock()
		t.db.restore(snap)
		t.db.rollbacks++
		t.db.mu.Unlock()
		return err
	}
	return nil
}

// users

type memUsers struct{ *memDB }

func (s memUsers) UpsertByTelegramID(_ context.Context, p models.TelegramProfile) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TelegramID == p.TelegramID {
			u.Username, u.FirstName, u.LastName = strOrNil(p.Username), strOrNil(p.FirstName), strOrNil(p.LastName)
			cp := *u
			return &cp, nil
		}
	}
	u := &models.User{
		ID:         uuid.New(),
		TelegramID: p.TelegramID,
		Username:   strOrNil(p.Username),
		FirstName:  strOrNil(p.FirstName),
		LastName:   strOrNil(p.LastName),
		CreatedAt:  s.tick(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func strOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) GetByTelegramID(_ context.Context, telegramID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrResourceNotFound
}

func (s memUsers) SetActiveWorkspace(_ context.Context, userID, workspaceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperrors.ErrResourceNotFound
	}
	id := workspaceID
	u.ActiveWorkspaceID = &id
	return nil
}

// workspaces

type memWorkspaces struct{ *memDB }

func (s memWorkspaces) Create(_ context.Context, ws *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws.ID = uuid.New()
	ws.CreatedAt = s.tick()
	ws.UpdatedAt = ws.CreatedAt
	cp := *ws
	s.workspaces[ws.ID] = &cp
	return nil
}

func (s memWorkspaces) GetByID(_ context.Context, id uuid.UUID) (*models.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	cp := *ws
	return &cp, nil
}

func (s memWorkspaces) UpdateTitle(_ context.Context, id uuid.UUID, title string) (*models.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	ws.Title = title
	cp := *ws
	return &cp, nil
}

func (s memWorkspaces) AddMember(_ context.Context, workspaceID, userID uuid.UUID, role models.WorkspaceRole) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.WorkspaceID == workspaceID && m.UserID == userID {
			return false, nil
		}
	}
	s.members = append(s.members, &models.WorkspaceMember{WorkspaceID: workspaceID, UserID: userID, Role: role, JoinedAt: s.tick()})
	return true, nil
}

func (s memWorkspaces) GetMemberRole(_ context.Context, workspaceID, userID uuid.UUID) (models.WorkspaceRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.WorkspaceID == workspaceID && m.UserID == userID {
			return m.Role, nil
		}
	}
	return "", apperrors.ErrResourceNotFound
}

func (s memWorkspaces) FilterMembers(_ context.Context, workspaceID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for _, id := range userIDs {
		for _, m := range s.members {
			if m.WorkspaceID == workspaceID && m.UserID == id {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

func (s memWorkspaces) ListMembers(_ context.Context, workspaceID uuid.UUID) ([]*models.WorkspaceMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.WorkspaceMember
	for _, m := range s.members {
		if m.WorkspaceID == workspaceID {
			cp := *m
			u := *s.users[m.UserID]
			cp.User = &u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s memWorkspaces) ListForUser(_ context.Context, userID uuid.UUID) ([]*models.MemberWorkspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.MemberWorkspace
	for _, m := range s.members {
		if m.UserID == userID {
			out = append(out, &models.MemberWorkspace{Workspace: *s.workspaces[m.WorkspaceID], Role: m.Role})
		}
	}
	return out, nil
}

// events

type memEvents struct{ *memDB }

func (s memEvents) Create(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !e.EndAt.After(e.StartAt) {
		return apperrors.NewValidationError("event must end after it starts")
	}
	e.ID = uuid.New()
	e.CreatedAt = s.tick()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s memEvents) live(id uuid.UUID) (*models.Event, bool) {
	e, ok := s.events[id]
	if !ok || e.IsDeleted() {
		return nil, false
	}
	return e, true
}

func (s memEvents) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	cp := *e
	return &cp, nil
}

func (s memEvents) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.GetByID(ctx, id)
}

func (s memEvents) UpdateStatus(_ context.Context, id uuid.UUID, status models.EventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateStatus != nil {
		return s.failUpdateStatus
	}
	e, ok := s.live(id)
	if !ok {
		return apperrors.ErrResourceNotFound
	}
	e.Status = status
	return nil
}

func (s memEvents) CompleteIfScheduled(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok || e.Status != models.EventStatusScheduled {
		return false, nil
	}
	e.Status = models.EventStatusCompleted
	return true, nil
}

func (s memEvents) Update(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(e.ID); !ok {
		return apperrors.ErrResourceNotFound
	}
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s memEvents) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return apperrors.ErrResourceNotFound
	}
	e.DeletedAt = &at
	return nil
}

func (s memEvents) ListUpcomingForUser(_ context.Context, userID uuid.UUID, now time.Time, limit uint64) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for _, p := range s.participants {
		if p.UserID != userID {
			continue
		}
		e, ok := s.live(p.EventID)
		if !ok || e.Status == models.EventStatusCancelled || !e.EndAt.After(now) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memEvents) ListStarted(_ context.Context, workspaceID uuid.UUID, organizerID *uuid.UUID, now time.Time, limit uint64) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for _, e := range s.events {
		if e.IsDeleted() || e.WorkspaceID != workspaceID || e.Status == models.EventStatusCancelled || e.StartAt.After(now) {
			continue
		}
		if organizerID != nil && !s.isOrganizer(e.ID, *organizerID) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	if uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (db *memDB) isOrganizer(eventID, userID uuid.UUID) bool {
	for _, p := range db.participants {
		if p.EventID == eventID && p.UserID == userID && p.IsOrganizer() {
			return true
		}
	}
	return false
}

// participants

type memParticipants struct{ *memDB }

func (s memParticipants) Add(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAddParticipant != nil {
		return s.failAddParticipant
	}
	cp := *p
	s.participants = append(s.participants, &cp)
	return nil
}

func (s memParticipants) AddInvited(_ context.Context, eventID uuid.UUID, userIDs []uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inserted []uuid.UUID
	for _, id := range userIDs {
		exists := false
		for _, p := range s.participants {
			if p.EventID == eventID && p.UserID == id {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		s.participants = append(s.participants, &models.Participant{
			EventID:   eventID,
			UserID:    id,
			Role:      models.ParticipantRoleParticipant,
			Status:    models.ResponseInvited,
			InvitedAt: at,
		})
		inserted = append(inserted, id)
	}
	return inserted, nil
}

func (s memParticipants) Get(_ context.Context, eventID, userID uuid.UUID) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.EventID == eventID && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrResourceNotFound
}

func (s memParticipants) UpdateResponse(_ context.Context, eventID, userID uuid.UUID, status models.ResponseStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.EventID == eventID && p.UserID == userID {
			p.Status = status
			p.RespondedAt = &at
			return nil
		}
	}
	return apperrors.ErrResourceNotFound
}

func (s memParticipants) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Participant{}
	for _, p := range s.participants {
		if p.EventID != eventID {
			continue
		}
		cp := *p
		if u, ok := s.users[p.UserID]; ok {
			uc := *u
			cp.User = &uc
		} else {
			cp.User = &models.User{ID: p.UserID}
		}
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		return out[i].InvitedAt.Before(out[j].InvitedAt)
	})
	return out, nil
}

// attendance

type memAttendance struct{ *memDB }

func (s memAttendance) Upsert(_ context.Context, a *models.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.attendance[[2]uuid.UUID{a.EventID, a.UserID}] = &cp
	return nil
}

func (s memAttendance) StatusesByEvent(_ context.Context, eventID uuid.UUID) (map[uuid.UUID]models.AttendanceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uuid.UUID]models.AttendanceStatus{}
	for k, a := range s.attendance {
		if k[0] == eventID {
			out[k[1]] = a.Status
		}
	}
	return out, nil
}

// groups

type memGroups struct{ *memDB }

func (s memGroups) Upsert(_ context.Context, g *models.TelegramGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if existing.ChatID == g.ChatID {
			existing.WorkspaceID, existing.ChatType, existing.Title = g.WorkspaceID, g.ChatType, g.Title
			g.ID, g.CreatedAt = existing.ID, existing.CreatedAt
			return nil
		}
	}
	g.ID = uuid.New()
	g.CreatedAt = s.tick()
	cp := *g
	s.groups = append(s.groups, &cp)
	return nil
}

func (s memGroups) FirstForWorkspace(_ context.Context, workspaceID uuid.UUID) (*models.TelegramGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.WorkspaceID == workspaceID && models.IsGroupChatType(g.ChatType) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apperrors.ErrResourceNotFound
}
