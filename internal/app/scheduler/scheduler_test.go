package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/huddle/internal/pkg/delayqueue"
)

type enqueueCall struct {
	key   string
	delay time.Duration
	opts  delayqueue.Options
}

type recordingQueue struct {
	enqueued  []enqueueCall
	removed   []string
	removeErr error
}

func (q *recordingQueue) Enqueue(_ context.Context, key string, _ []byte, delay time.Duration, opts delayqueue.Options) error {
	q.enqueued = append(q.enqueued, enqueueCall{key: key, delay: delay, opts: opts})
	return nil
}

func (q *recordingQueue) Remove(_ context.Context, key string) error {
	q.removed = append(q.removed, key)
	return q.removeErr
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(q Queue) *JobScheduler {
	return New(q, time.Hour, zerolog.Nop()).WithClock(func() time.Time { return fixedNow })
}

func TestScheduleReminder(t *testing.T) {
	eventID := uuid.New()

	tests := []struct {
		name      string
		startAt   time.Time
		wantDelay time.Duration
		wantJob   bool
	}{
		{"six hours ahead", fixedNow.Add(6 * time.Hour), 5 * time.Hour, true},
		{"one hour and a second ahead", fixedNow.Add(time.Hour + time.Second), time.Second, true},
		{"exactly one hour ahead", fixedNow.Add(time.Hour), 0, false},
		{"thirty minutes ahead", fixedNow.Add(30 * time.Minute), 0, false},
		{"in the past", fixedNow.Add(-time.Hour), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &recordingQueue{}
			s := newTestScheduler(q)

			require.NoError(t, s.ScheduleReminder(context.Background(), eventID, tt.startAt))

			if !tt.wantJob {
				assert.Empty(t, q.enqueued)
				return
			}
			require.Len(t, q.enqueued, 1)
			assert.Equal(t, "remind:"+eventID.String(), q.enqueued[0].key)
			assert.Equal(t, tt.wantDelay, q.enqueued[0].delay)
			assert.Equal(t, delayqueue.OneShot, q.enqueued[0].opts)
		})
	}
}

func TestScheduleCompletion(t *testing.T) {
	eventID := uuid.New()
	q := &recordingQueue{}
	s := newTestScheduler(q)

	require.NoError(t, s.ScheduleCompletion(context.Background(), eventID, fixedNow.Add(2*time.Hour)))
	require.NoError(t, s.ScheduleCompletion(context.Background(), eventID, fixedNow))

	require.Len(t, q.enqueued, 1)
	assert.Equal(t, "complete:"+eventID.String(), q.enqueued[0].key)
	assert.Equal(t, 2*time.Hour, q.enqueued[0].delay)
}

func TestCancelRemovesBothKeysAndSwallowsErrors(t *testing.T) {
	eventID := uuid.New()
	q := &recordingQueue{removeErr: errors.New("redis down")}
	s := newTestScheduler(q)

	s.Cancel(context.Background(), eventID)

	assert.Equal(t, []string{ReminderKey(eventID), CompletionKey(eventID)}, q.removed)
}

func TestSchedulingTwiceKeepsOneJob(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	queue := delayqueue.New(rdb, "test").WithClock(func() time.Time { return fixedNow })
	s := newTestScheduler(queue)
	ctx := context.Background()
	eventID := uuid.New()

	require.NoError(t, s.ScheduleReminder(ctx, eventID, fixedNow.Add(3*time.Hour)))
	require.NoError(t, s.ScheduleReminder(ctx, eventID, fixedNow.Add(5*time.Hour)))
	require.NoError(t, s.ScheduleCompletion(ctx, eventID, fixedNow.Add(6*time.Hour)))

	pending, err := queue.Pending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending)

	runAt, ok, err := queue.Scheduled(ctx, ReminderKey(eventID))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, runAt.Equal(fixedNow.Add(4*time.Hour)), "reminder should follow the latest start")

	s.Cancel(ctx, eventID)
	pending, err = queue.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestParsePayload(t *testing.T) {
	eventID := uuid.New()
	p, err := ParsePayload([]byte(`{"eventId":"` + eventID.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, eventID, p.EventID)

	_, err = ParsePayload([]byte("nope"))
	assert.Error(t, err)
}
