package notifications

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/huddle/internal/app/models"
	"github.com/yigit/huddle/internal/pkg/apperrors"
	"github.com/yigit/huddle/internal/pkg/sideeffect"
)

// Sender is the Telegram transport. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// EventReader loads live events
type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// ParticipantLister loads participants with their users
type ParticipantLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Participant, error)
}

// GroupFinder resolves the group chat bound to a workspace
type GroupFinder interface {
	FirstForWorkspace(ctx context.Context, workspaceID uuid.UUID) (*models.TelegramGroup, error)
}

// Dispatcher renders event messages and delivers them either to the workspace's bound group or,
// when there is none, to each participant directly. A failed send never stops the others.
type Dispatcher struct {
	sender       Sender
	events       EventReader
	participants ParticipantLister
	groups       GroupFinder
	loc          *time.Location
	logger       zerolog.Logger
}

// NewDispatcher creates a dispatcher rendering times in loc
func NewDispatcher(sender Sender, events EventReader, participants ParticipantLister, groups GroupFinder, loc *time.Location, logger zerolog.Logger) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		sender:       sender,
		events:       events,
		participants: participants,
		groups:       groups,
		loc:          loc,
		logger:       logger,
	}
}

// boundGroup returns the notification group of the workspace, nil when there is none
func (d *Dispatcher) boundGroup(ctx context.Context, workspaceID uuid.UUID) (*models.TelegramGroup, error) {
	g, err := d.groups.FirstForWorkspace(ctx, workspaceID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve bound group: %w", err)
	}
	if !g.IsNotificationTarget() {
		return nil, nil
	}
	return g, nil
}

func (d *Dispatcher) load(ctx context.Context, eventID uuid.UUID) (*models.Event, []*models.Participant, error) {
	e, err := d.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	ps, err := d.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return e, ps, nil
}

// deliver sends one message. Failures are logged with the recipient and event.
func (d *Dispatcher) deliver(ctx context.Context, chatID int64, eventID uuid.UUID, text string, markup *tgbotapi.InlineKeyboardMarkup) bool {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	return sideeffect.Run(ctx, d.logger, "notify.deliver", sideeffect.Fields{
		"recipient": chatID,
		"eventID":   eventID.String(),
	}, func(context.Context) error {
		_, err := d.sender.Send(msg)
		return err
	})
}

// broadcast applies the channel precedence: the bound group alone, or every reachable recipient
func (d *Dispatcher) broadcast(ctx context.Context, e *models.Event, recipients []*models.Participant, text string, groupMarkup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	group, err := d.boundGroup(ctx, e.WorkspaceID)
	if err != nil {
		return 0, err
	}
	if group != nil {
		if d.deliver(ctx, group.ChatID, e.ID, text, groupMarkup) {
			return 1, nil
		}
		return 0, nil
	}

	sent := 0
	for _, p := range recipients {
		if !p.User.Reachable() {
			continue
		}
		if d.deliver(ctx, p.User.TelegramID, e.ID, text, nil) {
			sent++
		}
	}
	return sent, nil
}

// SendEventInvitations announces an event to the newly invited participants. Individually
// delivered cards carry the RSVP control and the organizer gets a separate card with the
// cancel control.
func (d *Dispatcher) SendEventInvitations(ctx context.Context, eventID uuid.UUID, newParticipantIDs []uuid.UUID) error {
	e, ps, err := d.load(ctx, eventID)
	if err != nil {
		return err
	}
	card := EventCard(e, ps, d.loc)
	rsvp := RSVPKeyboard(e.ID)

	group, err := d.boundGroup(ctx, e.WorkspaceID)
	if err != nil {
		return err
	}
	if group != nil {
		d.deliver(ctx, group.ChatID, e.ID, card, &rsvp)
		return nil
	}

	invited := make(map[uuid.UUID]struct{}, len(newParticipantIDs))
	for _, id := range newParticipantIDs {
		invited[id] = struct{}{}
	}

	var organizer *models.Participant
	for _, p := range ps {
		if p.IsOrganizer() {
			organizer = p
			continue
		}
		if _, ok := invited[p.UserID]; !ok || !p.User.Reachable() {
			continue
		}
		d.deliver(ctx, p.User.TelegramID, e.ID, card, &rsvp)
	}

	if organizer != nil && organizer.User.Reachable() {
		manage := OrganizerKeyboard(e.ID)
		d.deliver(ctx, organizer.User.TelegramID, e.ID, "Invitations sent.\n\n"+card, &manage)
	}
	return nil
}

// SendEventCancelled tells everyone but the organizer that the event is off
func (d *Dispatcher) SendEventCancelled(ctx context.Context, eventID uuid.UUID) error {
	e, ps, err := d.load(ctx, eventID)
	if err != nil {
		return err
	}

	recipients := make([]*models.Participant, 0, len(ps))
	for _, p := range ps {
		if !p.IsOrganizer() {
			recipients = append(recipients, p)
		}
	}
	_, err = d.broadcast(ctx, e, recipients, cancelledText(e, d.loc), nil)
	return err
}

// SendParticipationStatusChanged tells the organizer, and only the organizer, about a new answer
func (d *Dispatcher) SendParticipationStatusChanged(ctx context.Context, eventID, userID uuid.UUID) error {
	e, ps, err := d.load(ctx, eventID)
	if err != nil {
		return err
	}

	var organizer, responder *models.Participant
	for _, p := range ps {
		if p.IsOrganizer() {
			organizer = p
		}
		if p.UserID == userID {
			responder = p
		}
	}
	if organizer == nil || responder == nil || organizer.UserID == responder.UserID {
		return nil
	}
	if !organizer.User.Reachable() {
		return nil
	}
	d.deliver(ctx, organizer.User.TelegramID, e.ID, statusChangedText(e, responder), nil)
	return nil
}

// attending keeps confirmed and tentative participants
func attending(ps []*models.Participant) []*models.Participant {
	out := make([]*models.Participant, 0, len(ps))
	for _, p := range ps {
		if p.Status.Attending() {
			out = append(out, p)
		}
	}
	return out
}

// SendReminder reminds confirmed and tentative participants. It reports how many messages went
// out; zero recipients is not an error.
func (d *Dispatcher) SendReminder(ctx context.Context, eventID uuid.UUID) (int, error) {
	e, ps, err := d.load(ctx, eventID)
	if err != nil {
		return 0, err
	}
	recipients := attending(ps)
	if len(recipients) == 0 {
		d.logger.Info().Str("eventID", eventID.String()).Msg("No confirmed participants, skipping reminder")
		return 0, nil
	}
	rsvp := RSVPKeyboard(e.ID)
	return d.broadcast(ctx, e, recipients, reminderText(e, recipients, d.loc), &rsvp)
}

// SendCompleted announces the end of an event to confirmed and tentative participants
func (d *Dispatcher) SendCompleted(ctx context.Context, eventID uuid.UUID) (int, error) {
	e, ps, err := d.load(ctx, eventID)
	if err != nil {
		return 0, err
	}
	recipients := attending(ps)
	if len(recipients) == 0 {
		d.logger.Info().Str("eventID", eventID.String()).Msg("Nobody attended, skipping completion notice")
		return 0, nil
	}
	return d.broadcast(ctx, e, recipients, completedText(e), nil)
}
