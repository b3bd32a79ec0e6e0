package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

type sentMessage struct {
	chatID int64
	text   string
	markup interface{}
}

type fakeSender struct {
	sent   []sentMessage
	failOn map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	if f.failOn[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	f.sent = append(f.sent, sentMessage{chatID: msg.ChatID, text: msg.Text, markup: msg.ReplyMarkup})
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) chats() []int64 {
	out := make([]int64, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.chatID)
	}
	return out
}

type fakeStore struct {
	event        *models.Event
	participants []*models.Participant
	group        *models.TelegramGroup
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	if s.event == nil || s.event.ID != id {
		return nil, apperrors.ErrResourceNotFound
	}
	return s.event, nil
}

func (s *fakeStore) ListByEvent(context.Context, uuid.UUID) ([]*models.Participant, error) {
	return s.participants, nil
}

func (s *fakeStore) FirstForWorkspace(context.Context, uuid.UUID) (*models.TelegramGroup, error) {
	if s.group == nil {
		return nil, apperrors.ErrResourceNotFound
	}
	return s.group, nil
}

func strPtr(s string) *string { return &s }

func person(tgID int64, first string, role models.ParticipantRole, status models.ResponseStatus) *models.Participant {
	id := uuid.New()
	return &models.Participant{
		UserID: id,
		Role:   role,
		Status: status,
		User:   &models.User{ID: id, TelegramID: tgID, FirstName: strPtr(first)},
	}
}

type fixture struct {
	store     *fakeStore
	sender    *fakeSender
	d         *Dispatcher
	organizer *models.Participant
	bob       *models.Participant
	carol     *models.Participant
	dave      *models.Participant
}

func newFixture() *fixture {
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	event := &models.Event{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Title:       "Rehearsal",
		Description: strPtr("Bring sheet music"),
		StartAt:     start,
		EndAt:       start.Add(2 * time.Hour),
		Status:      models.EventStatusScheduled,
	}
	f := &fixture{
		organizer: person(100, "Alice", models.ParticipantRoleOrganizer, models.ResponseConfirmed),
		bob:       person(200, "Bob", models.ParticipantRoleParticipant, models.ResponseInvited),
		carol:     person(300, "Carol", models.ParticipantRoleParticipant, models.ResponseInvited),
		dave:      person(0, "Dave", models.ParticipantRoleParticipant, models.ResponseInvited),
	}
	for _, p := range []*models.Participant{f.organizer, f.bob, f.carol, f.dave} {
		p.EventID = event.ID
	}
	f.store = &fakeStore{event: event, participants: []*models.Participant{f.organizer, f.bob, f.carol, f.dave}}
	f.sender = &fakeSender{failOn: map[int64]bool{}}
	f.d = NewDispatcher(f.sender, f.store, f.store, f.store, time.UTC, zerolog.Nop())
	return f
}

func (f *fixture) bindGroup(chatType string) {
	f.store.group = &models.TelegramGroup{ChatID: -1001, WorkspaceID: f.store.event.WorkspaceID, ChatType: chatType}
}

func TestInvitationsGoToBoundGroupOnly(t *testing.T) {
	for _, chatType := range []string{"group", "supergroup"} {
		t.Run(chatType, func(t *testing.T) {
			f := newFixture()
			f.bindGroup(chatType)

			err := f.d.SendEventInvitations(context.Background(), f.store.event.ID, []uuid.UUID{f.bob.UserID, f.carol.UserID})
			require.NoError(t, err)

			require.Len(t, f.sender.sent, 1)
			assert.Equal(t, int64(-1001), f.sender.sent[0].chatID)
			assert.Equal(t, RSVPKeyboard(f.store.event.ID), f.sender.sent[0].markup)
		})
	}
}

func TestInvitationsWithoutGroupGoDirect(t *testing.T) {
	f := newFixture()

	err := f.d.SendEventInvitations(context.Background(), f.store.event.ID, []uuid.UUID{f.bob.UserID, f.carol.UserID, f.dave.UserID})
	require.NoError(t, err)

	assert.Equal(t, []int64{200, 300, 100}, f.sender.chats())
	assert.Equal(t, RSVPKeyboard(f.store.event.ID), f.sender.sent[0].markup)
	assert.Equal(t, RSVPKeyboard(f.store.event.ID), f.sender.sent[1].markup)
	assert.Equal(t, OrganizerKeyboard(f.store.event.ID), f.sender.sent[2].markup)
	assert.Contains(t, f.sender.sent[0].text, "Rehearsal")
	assert.Contains(t, f.sender.sent[0].text, "Bring sheet music")
	assert.Contains(t, f.sender.sent[0].text, "👑 ✅ Alice")
}

func TestInvitationsOnlyReachNewParticipants(t *testing.T) {
	f := newFixture()

	err := f.d.SendEventInvitations(context.Background(), f.store.event.ID, []uuid.UUID{f.carol.UserID})
	require.NoError(t, err)

	assert.Equal(t, []int64{300, 100}, f.sender.chats())
}

func TestNonGroupChatTypeFallsBackToDirect(t *testing.T) {
	f := newFixture()
	f.bindGroup("channel")

	require.NoError(t, f.d.SendEventInvitations(context.Background(), f.store.event.ID, []uuid.UUID{f.bob.UserID}))

	assert.Equal(t, []int64{200, 100}, f.sender.chats())
}

func TestFailedDeliveryDoesNotStopOthers(t *testing.T) {
	f := newFixture()
	f.sender.failOn[200] = true

	err := f.d.SendEventInvitations(context.Background(), f.store.event.ID, []uuid.UUID{f.bob.UserID, f.carol.UserID})
	require.NoError(t, err)

	assert.Equal(t, []int64{300, 100}, f.sender.chats())
}

func TestCancellationNotice(t *testing.T) {
	t.Run("group", func(t *testing.T) {
		f := newFixture()
		f.bindGroup("supergroup")

		require.NoError(t, f.d.SendEventCancelled(context.Background(), f.store.event.ID))

		require.Len(t, f.sender.sent, 1)
		assert.Equal(t, int64(-1001), f.sender.sent[0].chatID)
		assert.Nil(t, f.sender.sent[0].markup)
		assert.Contains(t, f.sender.sent[0].text, "cancelled")
	})

	t.Run("direct", func(t *testing.T) {
		f := newFixture()

		require.NoError(t, f.d.SendEventCancelled(context.Background(), f.store.event.ID))

		assert.Equal(t, []int64{200, 300}, f.sender.chats())
	})
}

func TestReminderTargetsAttendingOnly(t *testing.T) {
	f := newFixture()
	f.bob.Status = models.ResponseDeclined
	f.carol.Status = models.ResponseTentative

	sent, err := f.d.SendReminder(context.Background(), f.store.event.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{100, 300}, f.sender.chats())
	assert.NotContains(t, f.sender.sent[0].text, "Bob")
}

func TestReminderWithoutRecipientsSendsNothing(t *testing.T) {
	f := newFixture()
	f.organizer.Status = models.ResponseDeclined
	f.bindGroup("group")

	sent, err := f.d.SendReminder(context.Background(), f.store.event.ID)
	require.NoError(t, err)

	assert.Zero(t, sent)
	assert.Empty(t, f.sender.sent)
}

func TestReminderToGroup(t *testing.T) {
	f := newFixture()
	f.bindGroup("group")

	sent, err := f.d.SendReminder(context.Background(), f.store.event.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{-1001}, f.sender.chats())
}

func TestCompletionNotice(t *testing.T) {
	f := newFixture()
	f.bob.Status = models.ResponseConfirmed

	sent, err := f.d.SendCompleted(context.Background(), f.store.event.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{100, 200}, f.sender.chats())
	assert.Contains(t, f.sender.sent[0].text, "/attendance")
}

func TestStatusChangeGoesToOrganizerOnly(t *testing.T) {
	f := newFixture()
	f.bindGroup("group")
	f.bob.Status = models.ResponseTentative

	require.NoError(t, f.d.SendParticipationStatusChanged(context.Background(), f.store.event.ID, f.bob.UserID))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, int64(100), f.sender.sent[0].chatID)
	assert.Contains(t, f.sender.sent[0].text, "🤔 Bob")
}

func TestStatusChangeByOrganizerIsSilent(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.d.SendParticipationStatusChanged(context.Background(), f.store.event.ID, f.organizer.UserID))

	assert.Empty(t, f.sender.sent)
}

func TestMissingEventIsReported(t *testing.T) {
	f := newFixture()

	err := f.d.SendEventInvitations(context.Background(), uuid.New(), nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFormatRange(t *testing.T) {
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "01.03.2025 18:00 – 20:00", FormatRange(start, start.Add(2*time.Hour), time.UTC))
	assert.Equal(t, "01.03.2025 18:00 – 02.03.2025 01:00", FormatRange(start, start.Add(7*time.Hour), time.UTC))

	moscow := time.FixedZone("MSK", 3*3600)
	assert.Equal(t, "01.03.2025 21:00 – 23:00", FormatRange(start, start.Add(2*time.Hour), moscow))
}
