package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/notifications"
	"github.com/yigit/huddle/internal/app/scheduler"
	"github.com/yigit/huddle/internal/pkg/delayqueue"
)

type recordingQueue struct {
	mu         sync.Mutex
	pending    map[string]time.Duration
	removed    []string
	enqueueErr error
}

func (q *recordingQueue) Enqueue(_ context.Context, key string, _ []byte, delay time.Duration, _ delayqueue.Options) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.pending[key] = delay
	return nil
}

func (q *recordingQueue) Remove(_ context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removed = append(q.removed, key)
	delete(q.pending, key)
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	msg := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, sentMessage{chatID: msg.ChatID, text: msg.Text})
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) chats() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.chatID)
	}
	return out
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

// harness wires the services to in-memory stores, the real scheduler over a recording queue
// and the real dispatcher over a fake Telegram sender
type harness struct {
	db         *memDB
	queue      *recordingQueue
	sender     *fakeSender
	dispatcher *notifications.Dispatcher
	events     EventService
	workspaces WorkspaceService
	attendance AttendanceService
	now        time.Time
}

var (
	rehearsalStart = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	rehearsalEnd   = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		db:     newMemDB(),
		queue:  &recordingQueue{pending: map[string]time.Duration{}},
		sender: &fakeSender{},
		now:    time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return h.now }
	lgr := zerolog.Nop()

	sched := scheduler.New(h.queue, time.Hour, lgr).WithClock(clock)
	h.dispatcher = notifications.NewDispatcher(h.sender, memEvents{h.db}, memParticipants{h.db}, memGroups{h.db}, time.UTC, lgr)

	h.events = NewEventService(memTx{h.db}, memEvents{h.db}, memParticipants{h.db}, memWorkspaces{h.db}, h.dispatcher, sched, lgr)
	h.events.(*eventServiceImpl).now = clock

	h.workspaces = NewWorkspaceService(memTx{h.db}, memUsers{h.db}, memWorkspaces{h.db}, memGroups{h.db}, lgr)

	h.attendance = NewAttendanceService(memEvents{h.db}, memParticipants{h.db}, memAttendance{h.db}, h.workspaces, memWorkspaces{h.db}, lgr)
	h.attendance.(*attendanceServiceImpl).now = clock
	return h
}

func (h *harness) user(t *testing.T, telegramID int64, firstName string) *models.User {
	t.Helper()
	u, err := h.workspaces.EnsureUser(context.Background(), models.TelegramProfile{TelegramID: telegramID, FirstName: firstName})
	require.NoError(t, err)
	return u
}

func (h *harness) workspace(t *testing.T, owner *models.User, title string, members ...*models.User) *models.Workspace {
	t.Helper()
	ctx := context.Background()
	ws, err := h.workspaces.CreateWorkspace(ctx, owner.ID, title)
	require.NoError(t, err)
	for _, m := range members {
		_, err := h.workspaces.JoinWorkspace(ctx, m.ID, ws.ID)
		require.NoError(t, err)
	}
	return ws
}

func (h *harness) rehearsal(t *testing.T, organizer *models.User, ws *models.Workspace) *models.Event {
	t.Helper()
	e, err := h.events.CreateEvent(context.Background(), organizer.ID, CreateEventInput{
		WorkspaceID: ws.ID,
		Title:       "Rehearsal",
		StartAt:     rehearsalStart,
		EndAt:       rehearsalEnd,
	})
	require.NoError(t, err)
	return e
}

func (h *harness) bindGroup(t *testing.T, owner *models.User, chatID int64) {
	t.Helper()
	_, err := h.workspaces.BindGroup(context.Background(), owner.ID, chatID, "supergroup", "Choir chat")
	require.NoError(t, err)
}

func (h *harness) participant(t *testing.T, eventID, userID uuid.UUID) *models.Participant {
	t.Helper()
	p, err := memParticipants{h.db}.Get(context.Background(), eventID, userID)
	require.NoError(t, err)
	return p
}

func (h *harness) storedEvent(t *testing.T, eventID uuid.UUID) *models.Event {
	t.Helper()
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	e, ok := h.db.events[eventID]
	require.True(t, ok)
	cp := *e
	return &cp
}

// choir sets up scenario 1's cast: A owns "Choir" with members B and C
func (h *harness) choir(t *testing.T) (a, b, c *models.User, ws *models.Workspace) {
	a = h.user(t, 100, "Anna")
	b = h.user(t, 200, "Boris")
	c = h.user(t, 300, "Clara")
	ws = h.workspace(t, a, "Choir", b, c)
	return a, b, c, ws
}
