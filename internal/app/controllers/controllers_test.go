package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/huddle/internal/app/controllers"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/app/models/dto"
	"github.com/yigit/huddle/internal/app/routes"
	"github.com/yigit/huddle/internal/app/services"
	"github.com/yigit/huddle/internal/middleware"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/auth"
)

const webhookSecret = "s3cret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeWorkspaceService struct {
	services.WorkspaceService
	users      map[uuid.UUID]*models.User
	workspaces []*models.MemberWorkspace
	err        error
}

func (f *fakeWorkspaceService) GetMe(_ context.Context, userID uuid.UUID) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("user not found")
	}
	return u, nil
}

func (f *fakeWorkspaceService) ListWorkspaces(context.Context, uuid.UUID) ([]*models.MemberWorkspace, error) {
	return f.workspaces, f.err
}

func (f *fakeWorkspaceService) CreateWorkspace(_ context.Context, userID uuid.UUID, title string) (*models.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Workspace{ID: uuid.New(), Title: title, OwnerID: userID}, nil
}

func (f *fakeWorkspaceService) SelectWorkspace(_ context.Context, _ uuid.UUID, workspaceID uuid.UUID) (*models.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Workspace{ID: workspaceID, Title: "Choir"}, nil
}

type fakeEventService struct {
	services.EventService
	created   *services.CreateEventInput
	updated   *services.UpdateEventInput
	invited   []uuid.UUID
	inviteAll bool
	responded string
	err       error
}

func (f *fakeEventService) CreateEvent(_ context.Context, userID uuid.UUID, in services.CreateEventInput) (*models.Event, error) {
	f.created = &in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Event{
		ID:          uuid.New(),
		WorkspaceID: in.WorkspaceID,
		Type:        models.EventTypeMaster,
		Title:       in.Title,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		Status:      models.EventStatusDraft,
		CreatedBy:   userID,
	}, nil
}

func (f *fakeEventService) GetEventDetails(_ context.Context, userID, eventID uuid.UUID) (*models.EventDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	first := "Anna"
	return &models.EventDetails{
		Event: &models.Event{ID: eventID, Title: "Rehearsal", Status: models.EventStatusScheduled},
		Participants: []*models.Participant{
			{EventID: eventID, UserID: userID, Role: models.ParticipantRoleOrganizer, Status: models.ResponseConfirmed, User: &models.User{FirstName: &first}},
			{EventID: eventID, UserID: uuid.New(), Role: models.ParticipantRoleParticipant, Status: models.ResponseInvited},
		},
	}, nil
}

func (f *fakeEventService) UpdateEvent(_ context.Context, _ uuid.UUID, eventID uuid.UUID, in services.UpdateEventInput) (*models.Event, error) {
	f.updated = &in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Event{ID: eventID, Title: "Rehearsal"}, nil
}

func (f *fakeEventService) InviteParticipants(_ context.Context, _ uuid.UUID, eventID uuid.UUID, ids []uuid.UUID) (*models.InviteResult, error) {
	f.invited = ids
	if f.err != nil {
		return nil, f.err
	}
	return &models.InviteResult{EventID: eventID, InvitedCount: len(ids), Status: models.EventStatusScheduled}, nil
}

func (f *fakeEventService) InviteWorkspace(_ context.Context, _ uuid.UUID, eventID uuid.UUID) (*models.InviteResult, error) {
	f.inviteAll = true
	if f.err != nil {
		return nil, f.err
	}
	return &models.InviteResult{EventID: eventID, InvitedCount: 3, Status: models.EventStatusScheduled}, nil
}

func (f *fakeEventService) RespondToEvent(_ context.Context, userID, eventID uuid.UUID, status string) (*models.Participant, error) {
	f.responded = status
	if f.err != nil {
		return nil, f.err
	}
	return &models.Participant{EventID: eventID, UserID: userID, Role: models.ParticipantRoleParticipant, Status: models.ResponseStatus(status)}, nil
}

func (f *fakeEventService) CancelEvent(_ context.Context, _ uuid.UUID, eventID uuid.UUID) (*models.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Event{ID: eventID, Status: models.EventStatusCancelled}, nil
}

func (f *fakeEventService) DeleteEvent(context.Context, uuid.UUID, uuid.UUID) error {
	return f.err
}

func (f *fakeEventService) ListUpcoming(context.Context, uuid.UUID) ([]*models.Event, error) {
	return []*models.Event{{ID: uuid.New(), Title: "Rehearsal"}}, f.err
}

type fakeUpdates struct {
	got []tgbotapi.Update
}

func (f *fakeUpdates) HandleUpdate(_ context.Context, u tgbotapi.Update) {
	f.got = append(f.got, u)
}

type apiFixture struct {
	router     *gin.Engine
	events     *fakeEventService
	workspaces *fakeWorkspaceService
	updates    *fakeUpdates
	jwt        *auth.JWTService
	userID     uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	userID := uuid.New()
	f := &apiFixture{
		events:     &fakeEventService{},
		workspaces: &fakeWorkspaceService{users: map[uuid.UUID]*models.User{userID: {ID: userID, TelegramID: 100}}},
		updates:    &fakeUpdates{},
		jwt: auth.NewJWTService(auth.JWTConfig{
			SecretKey:    "test-secret",
			FormTokenExp: time.Minute,
			TokenIssuer:  "huddle.test",
		}),
		userID: userID,
	}

	f.router = gin.New()
	routes.SetupRouter(f.router,
		controllers.NewEventController(f.events),
		controllers.NewWorkspaceController(f.workspaces),
		controllers.NewTelegramController(f.updates, webhookSecret, zerolog.Nop()),
		middleware.NewAuthMiddleware(f.jwt, f.workspaces),
	)
	return f
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (f *apiFixture) asUser() map[string]string {
	return map[string]string{middleware.UserIDHeader: f.userID.String()}
}

func TestCallerIdentification(t *testing.T) {
	f := newAPIFixture(t)

	token, err := f.jwt.GenerateFormToken(f.userID)
	require.NoError(t, err)
	foreign, err := auth.NewJWTService(auth.JWTConfig{SecretKey: "other", FormTokenExp: time.Minute, TokenIssuer: "huddle.test"}).GenerateFormToken(f.userID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		headers  map[string]string
		wantCode int
		wantErr  dto.ErrorCode
	}{
		{"no identity", nil, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"malformed user id", map[string]string{"x-user-id": "42"}, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"unknown user", map[string]string{"x-user-id": uuid.NewString()}, http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"known user id", f.asUser(), http.StatusOK, ""},
		{"bearer token", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK, ""},
		{"token from another issuer key", map[string]string{"Authorization": "Bearer " + foreign}, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, http.MethodGet, "/api/v1/me", nil, tt.headers)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantErr, env.Error.Code)
				return
			}
			var me dto.UserResponse
			require.NoError(t, json.Unmarshal(env.Data, &me))
			assert.Equal(t, f.userID, me.ID)
		})
	}
}

func TestCreateEvent(t *testing.T) {
	f := newAPIFixture(t)
	wsID := uuid.New()

	code, env := f.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"workspaceId": wsID.String(),
		"title":       "Rehearsal",
		"startAt":     "2025-03-01T18:00:00Z",
		"endAt":       "2025-03-01T20:00:00Z",
	}, f.asUser())

	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	require.NotNil(t, f.events.created)
	assert.Equal(t, wsID, f.events.created.WorkspaceID)
	assert.Equal(t, time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC), f.events.created.StartAt)
	assert.Equal(t, time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC), f.events.created.EndAt)

	var got dto.EventResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "draft", got.Status)
	assert.Equal(t, f.userID, got.CreatedBy)
}

func TestCreateEventUnparseableTimeReachesService(t *testing.T) {
	f := newAPIFixture(t)
	f.events.err = apperrors.NewValidationError("startAt must be a valid timestamp")

	code, env := f.do(t, http.MethodPost, "/api/v1/events", map[string]interface{}{
		"workspaceId": uuid.NewString(),
		"title":       "Rehearsal",
		"startAt":     "tomorrow",
		"endAt":       "2025-03-01T20:00:00Z",
	}, f.asUser())

	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, f.events.created)
	assert.True(t, f.events.created.StartAt.IsZero())
	require.NotNil(t, env.Error)
	assert.Equal(t, "startAt must be a valid timestamp", env.Error.Message)
}

func TestCreateEventBindingErrors(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed json", "{"},
		{"missing workspace", map[string]string{"title": "x", "startAt": "2025-03-01T18:00:00Z", "endAt": "2025-03-01T20:00:00Z"}},
		{"workspace not a uuid", map[string]string{"workspaceId": "7", "title": "x", "startAt": "a", "endAt": "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.events.created = nil
			code, env := f.do(t, http.MethodPost, "/api/v1/events", tt.body, f.asUser())
			assert.Equal(t, http.StatusBadRequest, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
			assert.Nil(t, f.events.created)
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  dto.ErrorCode
		wantMsg  string
	}{
		{"validation", apperrors.NewValidationError("event is not a draft"), http.StatusBadRequest, dto.ErrorCodeValidationFailed, "event is not a draft"},
		{"not found", apperrors.NewResourceNotFoundError("event not found"), http.StatusNotFound, dto.ErrorCodeResourceNotFound, "event not found"},
		{"forbidden", apperrors.NewForbiddenError("only the organizer can do this"), http.StatusForbidden, dto.ErrorCodeForbidden, "only the organizer can do this"},
		{"conflict", apperrors.NewConflictError("already exists"), http.StatusConflict, dto.ErrorCodeConflict, "already exists"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			f.events.err = tt.err

			code, env := f.do(t, http.MethodPost, "/api/v1/events/"+uuid.NewString()+"/cancel", nil, f.asUser())
			assert.Equal(t, tt.wantCode, code)
			require.NotNil(t, env.Error)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantErr, env.Error.Code)
			assert.Equal(t, tt.wantMsg, env.Error.Message)
		})
	}
}

func TestEventIDMustBeUUID(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/api/v1/events/123", nil, f.asUser())
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "id", env.Error.Field)
}

func TestGetEventListsOrganizerFirst(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/api/v1/events/"+uuid.NewString(), nil, f.asUser())
	require.Equal(t, http.StatusOK, code)

	var got dto.EventDetailsResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Participants, 2)
	assert.Equal(t, "organizer", got.Participants[0].Role)
	assert.Equal(t, "Anna", got.Participants[0].DisplayName)
	assert.Equal(t, models.NoNamePlaceholder, got.Participants[1].DisplayName)
}

func TestInvite(t *testing.T) {
	eventPath := "/api/v1/events/" + uuid.NewString() + "/invite"

	t.Run("listed participants", func(t *testing.T) {
		f := newAPIFixture(t)
		b, c := uuid.New(), uuid.New()

		code, env := f.do(t, http.MethodPost, eventPath, map[string][]string{"participantIds": {b.String(), c.String()}}, f.asUser())
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, []uuid.UUID{b, c}, f.events.invited)
		assert.False(t, f.events.inviteAll)

		var got dto.InviteResponse
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, 2, got.InvitedCount)
		assert.Equal(t, "scheduled", got.Status)
	})

	t.Run("all invites the workspace", func(t *testing.T) {
		f := newAPIFixture(t)

		code, _ := f.do(t, http.MethodPost, eventPath, map[string]bool{"all": true}, f.asUser())
		require.Equal(t, http.StatusOK, code)
		assert.True(t, f.events.inviteAll)
		assert.Nil(t, f.events.invited)
	})

	rejected := []struct {
		name string
		body interface{}
	}{
		{"missing body", nil},
		{"empty list", map[string][]string{"participantIds": {}}},
		{"empty object", map[string]string{}},
		{"list together with all", map[string]interface{}{"participantIds": []string{uuid.NewString()}, "all": true}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)

			code, env := f.do(t, http.MethodPost, eventPath, tt.body, f.asUser())
			assert.Equal(t, http.StatusBadRequest, code)
			require.NotNil(t, env.Error)
			assert.Nil(t, f.events.invited)
			assert.False(t, f.events.inviteAll)
		})
	}

	t.Run("bad id in list", func(t *testing.T) {
		f := newAPIFixture(t)

		code, _ := f.do(t, http.MethodPost, eventPath, map[string][]string{"participantIds": {"nope"}}, f.asUser())
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Nil(t, f.events.invited)
		assert.False(t, f.events.inviteAll)
	})
}

func TestRespond(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/v1/events/" + uuid.NewString() + "/respond"

	code, _ := f.do(t, http.MethodPost, path, map[string]string{"status": "maybe"}, f.asUser())
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, f.events.responded)

	code, env := f.do(t, http.MethodPost, path, map[string]string{"status": "declined"}, f.asUser())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "declined", f.events.responded)

	var got dto.ParticipantResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "declined", got.ResponseStatus)
}

func TestUpdateEvent(t *testing.T) {
	f := newAPIFixture(t)
	path := "/api/v1/events/" + uuid.NewString()

	code, env := f.do(t, http.MethodPatch, path, map[string]string{"startAt": "soon"}, f.asUser())
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "startAt", env.Error.Field)
	assert.Nil(t, f.events.updated)

	code, _ = f.do(t, http.MethodPatch, path, map[string]string{"title": "Dress rehearsal", "endAt": "2025-03-02T20:00:00+03:00"}, f.asUser())
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, f.events.updated)
	assert.Equal(t, "Dress rehearsal", *f.events.updated.Title)
	assert.Nil(t, f.events.updated.StartAt)
	require.NotNil(t, f.events.updated.EndAt)
	assert.Equal(t, time.Date(2025, 3, 2, 17, 0, 0, 0, time.UTC), *f.events.updated.EndAt)
}

func TestDeleteEvent(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodDelete, "/api/v1/events/"+uuid.NewString(), nil, f.asUser())
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestWorkspaces(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodPost, "/api/v1/workspaces", map[string]string{"title": "Choir"}, f.asUser())
	require.Equal(t, http.StatusCreated, code)
	var created dto.WorkspaceResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Choir", created.Title)
	assert.Equal(t, "OWNER", created.Role)
	assert.True(t, created.Active)

	code, _ = f.do(t, http.MethodPost, "/api/v1/workspaces", map[string]string{"title": ""}, f.asUser())
	assert.Equal(t, http.StatusBadRequest, code)

	f.workspaces.workspaces = []*models.MemberWorkspace{
		{Workspace: models.Workspace{ID: created.ID, Title: "Choir"}, Role: models.WorkspaceRoleOwner, Active: true},
		{Workspace: models.Workspace{ID: uuid.New(), Title: "Band"}, Role: models.WorkspaceRoleMember},
	}
	code, env = f.do(t, http.MethodGet, "/api/v1/workspaces", nil, f.asUser())
	require.Equal(t, http.StatusOK, code)
	var list []dto.WorkspaceResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.True(t, list[0].Active)
	assert.Equal(t, "MEMBER", list[1].Role)

	f.workspaces.err = apperrors.NewForbiddenError("you are not a member of this workspace")
	code, _ = f.do(t, http.MethodPost, "/api/v1/workspaces/"+uuid.NewString()+"/select", nil, f.asUser())
	assert.Equal(t, http.StatusForbidden, code)
}

func TestTelegramWebhook(t *testing.T) {
	update := map[string]interface{}{
		"update_id": 7,
		"message": map[string]interface{}{
			"message_id": 1,
			"date":       1700000000,
			"text":       "/start",
			"chat":       map[string]interface{}{"id": 100, "type": "private"},
			"from":       map[string]interface{}{"id": 100, "first_name": "Anna"},
		},
	}

	t.Run("wrong secret", func(t *testing.T) {
		f := newAPIFixture(t)
		code, _ := f.do(t, http.MethodPost, "/api/v1/telegram/webhook", update, map[string]string{controllers.WebhookSecretHeader: "guess"})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Empty(t, f.updates.got)
	})

	t.Run("accepted", func(t *testing.T) {
		f := newAPIFixture(t)
		code, _ := f.do(t, http.MethodPost, "/api/v1/telegram/webhook", update, map[string]string{controllers.WebhookSecretHeader: webhookSecret})
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, f.updates.got, 1)
		assert.Equal(t, 7, f.updates.got[0].UpdateID)
		require.NotNil(t, f.updates.got[0].Message)
		assert.Equal(t, "/start", f.updates.got[0].Message.Text)
	})

	t.Run("malformed", func(t *testing.T) {
		f := newAPIFixture(t)
		code, _ := f.do(t, http.MethodPost, "/api/v1/telegram/webhook", "not json", map[string]string{controllers.WebhookSecretHeader: webhookSecret})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Empty(t, f.updates.got)
	})
}
