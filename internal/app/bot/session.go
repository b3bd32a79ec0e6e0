package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Flow is the conversation a chat is in the middle of
type Flow string

const (
	FlowNone              Flow = ""
	FlowAwaitingWorkspace Flow = "awaiting_workspace_title"
	FlowEventDraft        Flow = "event_draft"
)

// Session is the per (user, chat) conversation state. Draft is set only in FlowEventDraft.
type Session struct {
	Flow  Flow   `json:"flow"`
	Draft *Draft `json:"draft,omitempty"`
}

// SessionStore keeps sessions in Redis as JSON
type SessionStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewSessionStore creates a store. A zero ttl keeps sessions until they are cleared.
func NewSessionStore(rdb redis.UniversalClient, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID, chatID int64) string {
	return "session:" + strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(chatID, 10)
}

// Get returns the session, or an empty one when none is stored
func (s *SessionStore) Get(ctx context.Context, userID, chatID int64) (*Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(userID, chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Session{}, nil
		}
		return nil, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save stores the session. Saving a session without a flow clears it.
func (s *SessionStore) Save(ctx context.Context, userID, chatID int64, sess *Session) error {
	if sess == nil || sess.Flow == FlowNone {
		return s.Clear(ctx, userID, chatID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(userID, chatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	return nil
}

// Clear drops the session
func (s *SessionStore) Clear(ctx context.Context, userID, chatID int64) error {
	if err := s.rdb.Del(ctx, sessionKey(userID, chatID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
