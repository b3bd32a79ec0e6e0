// Package delayqueue is a durable delayed-job queue on top of Redis.
//
// Jobs live in a sorted set scored by their due time (unix milliseconds) and a hash holding
// their envelope, both indexed by the job key. Enqueueing an existing key replaces it, which
// makes scheduling by deterministic key idempotent. Due jobs are claimed by a Lua script
// that removes them in the same step, so a job is handed to at most one worker.
package delayqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options control delivery of a single job
type Options struct {
	// Attempts is the total number of executions allowed. Values below 1 mean 1.
	Attempts int
	// DiscardOnSettle drops every trace of the job once it succeeded or ran out of attempts.
	// Otherwise the outcome is kept in the settled hash for inspection.
	DiscardOnSettle bool
}

// OneShot is the policy used for reminders and completions: run once, leave nothing behind
var OneShot = Options{Attempts: 1, DiscardOnSettle: true}

// Job is a claimed unit of work
type Job struct {
	Key      string
	Payload  []byte
	RunAt    time.Time
	Attempts int
	Options  Options
}

// Kind returns the key part before the first colon ("remind" for "remind:<id>").
func (j Job) Kind() string {
	kind, _, _ := strings.Cut(j.Key, ":")
	return kind
}

type envelope struct {
	Payload  []byte  `json:"payload"`
	RunAt    int64   `json:"run_at"`
	Attempts int     `json:"attempts"`
	Options  Options `json:"options"`
}

var claimScript = redis.NewScript(`
local keys = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
local out = {}
for _, k in ipairs(keys) do
	redis.call('ZREM', KEYS[1], k)
	local body = redis.call('HGET', KEYS[2], k)
	redis.call('HDEL', KEYS[2], k)
	if body then
		table.insert(out, k)
		table.insert(out, body)
	end
end
return out
`)

// Queue is safe for concurrent use
type Queue struct {
	rdb     redis.UniversalClient
	dueKey  string
	bodyKey string
	doneKey string
	now     func() time.Time
}

// New creates a queue whose Redis keys start with prefix
func New(rdb redis.UniversalClient, prefix string) *Queue {
	if prefix == "" {
		prefix = "delayqueue"
	}
	return &Queue{
		rdb:     rdb,
		dueKey:  prefix + ":due",
		bodyKey: prefix + ":body",
		doneKey: prefix + ":settled",
		now:     time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.now = now
	return q
}

// Enqueue stores the job under key to run after delay, replacing any job with the same key.
func (q *Queue) Enqueue(ctx context.Context, key string, payload []byte, delay time.Duration, opts Options) error {
	if key == "" {
		return errors.New("delayqueue: empty job key")
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	runAt := q.now().Add(delay)
	body, err := json.Marshal(envelope{
		Payload:  payload,
		RunAt:    runAt.UnixMilli(),
		Attempts: opts.Attempts,
		Options:  opts,
	})
	if err != nil {
		return fmt.Errorf("delayqueue: marshal job %s: %w", key, err)
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.bodyKey, key, body)
		pipe.ZAdd(ctx, q.dueKey, redis.Z{Score: float64(runAt.UnixMilli()), Member: key})
		pipe.HDel(ctx, q.doneKey, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delayqueue: enqueue %s: %w", key, err)
	}
	return nil
}

// Remove deletes a pending job. Removing an unknown key is not an error.
func (q *Queue) Remove(ctx context.Context, key string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, q.dueKey, key)
		pipe.HDel(ctx, q.bodyKey, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delayqueue: remove %s: %w", key, err)
	}
	return nil
}

// Scheduled returns the due time of a pending job.
func (q *Queue) Scheduled(ctx context.Context, key string) (time.Time, bool, error) {
	score, err := q.rdb.ZScore(ctx, q.dueKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("delayqueue: score %s: %w", key, err)
	}
	return time.UnixMilli(int64(score)), true, nil
}

// Pending returns the number of jobs waiting in the queue
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, q.dueKey).Result()
}

// ClaimDue atomically takes up to limit jobs whose due time has passed.
func (q *Queue) ClaimDue(ctx context.Context, limit int) ([]Job, error) {
	if limit < 1 {
		limit = 1
	}
	res, err := claimScript.Run(ctx, q.rdb, []string{q.dueKey, q.bodyKey}, q.now().UnixMilli(), limit).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("delayqueue: claim: %w", err)
	}

	jobs := make([]Job, 0, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		var env envelope
		if err := json.Unmarshal([]byte(res[i+1]), &env); err != nil {
			// A corrupt envelope cannot be retried; drop it.
			continue
		}
		jobs = append(jobs, Job{
			Key:      res[i],
			Payload:  env.Payload,
			RunAt:    time.UnixMilli(env.RunAt),
			Attempts: env.Attempts,
			Options:  env.Options,
		})
	}
	return jobs, nil
}

// settle records the outcome of a job that will not run again.
func (q *Queue) settle(ctx context.Context, job Job, outcome string) error {
	if job.Options.DiscardOnSettle {
		return nil
	}
	return q.rdb.HSet(ctx, q.doneKey, job.Key, outcome).Err()
}

// release returns claimed jobs that never ran, keeping their due time and attempts.
// A job enqueued again under the same key in the meantime is left untouched.
func (q *Queue) release(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, job := range jobs {
			body, err := json.Marshal(envelope{
				Payload:  job.Payload,
				RunAt:    job.RunAt.UnixMilli(),
				Attempts: job.Attempts,
				Options:  job.Options,
			})
			if err != nil {
				return fmt.Errorf("delayqueue: marshal job %s: %w", job.Key, err)
			}
			pipe.HSetNX(ctx, q.bodyKey, job.Key, body)
			pipe.ZAddNX(ctx, q.dueKey, redis.Z{Score: float64(job.RunAt.UnixMilli()), Member: job.Key})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delayqueue: release: %w", err)
	}
	return nil
}

// retry puts a failed job back with one attempt fewer.
func (q *Queue) retry(ctx context.Context, job Job, backoff time.Duration) error {
	opts := job.Options
	opts.Attempts = job.Attempts - 1
	return q.Enqueue(ctx, job.Key, job.Payload, backoff, opts)
}
