package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by RedisStorage.
const DefaultRedisPrefix = "fitqueue"

// priorityStride separates priority bands in the waiting sorted sets.
// Scores are (100-priority)*stride + scheduled unix millis, well below 2^53.
const priorityStride = 1e13

// RedisStorage implements Storage on Redis. All keys of a queue share a hash tag
// so the Lua scripts stay on a single cluster slot:
//
//	{prefix}:{queue}:job:{id}      JSON job body
//	{prefix}:{queue}:wait:{type}   sorted set, priority then schedule time
//	{prefix}:{queue}:delayed:{type} sorted set, retry time
//	{prefix}:{queue}:active        sorted set, lock expiry
//	{prefix}:{queue}:completed     list, newest first
//	{prefix}:{queue}:failed        list, newest first
//	{prefix}:{queue}:prio          hash id -> priority
//	{prefix}:{queue}:types         set of job types seen
//	{prefix}:{queue}:paused        pause flag
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// RedisStorageOption configures a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithRedisPrefix overrides DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisStorageOption {
	return func(rs *RedisStorage) {
		if prefix != "" {
			rs.prefix = prefix
		}
	}
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(client redis.UniversalClient, opts ...RedisStorageOption) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrStorageNil
	}
	rs := &RedisStorage{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(rs)
	}
	return rs, nil
}

func (rs *RedisStorage) key(queue string, parts ...string) string {
	k := rs.prefix + ":{" + queue + "}"
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (rs *RedisStorage) jobKey(queue string, id uuid.UUID) string {
	return rs.key(queue, "job", id.String())
}

func waitScore(p Priority, at time.Time) float64 {
	return float64(PriorityMax-p)*priorityStride + float64(at.UnixMilli())
}

// trimLua evicts list entries beyond keep and deletes their bodies.
// Expects list key, prio key, keep and job key prefix as locals.
const trimLua = `
local function trim(list, prio, keep, jobPrefix)
	if keep < 0 then return 0 end
	local evicted = redis.call('LRANGE', list, keep, -1)
	for _, id in ipairs(evicted) do
		redis.call('DEL', jobPrefix .. id)
		redis.call('HDEL', prio, id)
	end
	if keep == 0 then
		redis.call('DEL', list)
	elseif #evicted > 0 then
		redis.call('LTRIM', list, 0, keep - 1)
	end
	return #evicted
end
`

var (
	// KEYS: job, target zset, types, prio. ARGV: body, score, id, type, priority.
	createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
redis.call('SADD', KEYS[3], ARGV[4])
redis.call('HSET', KEYS[4], ARGV[3], ARGV[5])
return 1
`)

	// KEYS: paused, delayed, wait, active, prio. ARGV: now ms, lock-until ms, stride.
	claimScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return false end
local due = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1], 'WITHSCORES', 'LIMIT', 0, 100)
for i = 1, #due, 2 do
	local id = due[i]
	local prio = tonumber(redis.call('HGET', KEYS[5], id) or '50')
	redis.call('ZREM', KEYS[2], id)
	redis.call('ZADD', KEYS[3], (100 - prio) * tonumber(ARGV[3]) + tonumber(due[i + 1]), id)
end
local popped = redis.call('ZPOPMIN', KEYS[3], 1)
if #popped == 0 then return false end
redis.call('ZADD', KEYS[4], ARGV[2], popped[1])
return popped[1]
`)

	// KEYS: active, job, target list, prio. ARGV: id, body, keep, job key prefix.
	finishScript = redis.NewScript(trimLua + `
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then return -1 end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('LPUSH', KEYS[3], ARGV[1])
return trim(KEYS[3], KEYS[4], tonumber(ARGV[3]), ARGV[4])
`)

	// KEYS: active, job, target zset. ARGV: id, body, score.
	moveScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then return 0 end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return 1
`)

	// KEYS: failed, job, wait. ARGV: id, body, score.
	requeueScript = redis.NewScript(`
if redis.call('LREM', KEYS[1], 1, ARGV[1]) == 0 then return 0 end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[3], ARGV[1])
return 1
`)

	// KEYS: completed, failed, prio. ARGV: job key prefix.
	cleanScript = redis.NewScript(trimLua + `
return trim(KEYS[1], KEYS[3], 0, ARGV[1]) + trim(KEYS[2], KEYS[3], 0, ARGV[1])
`)

	// KEYS: active, job. ARGV: id, lock-until ms, body.
	extendScript = redis.NewScript(`
if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then return 0 end
redis.call('ZADD', KEYS[1], 'XX', ARGV[2], ARGV[1])
redis.call('SET', KEYS[2], ARGV[3])
return 1
`)
)

// CreateJob stores the job body and indexes it as waiting or delayed.
func (rs *RedisStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return ErrPayloadNil
	}

	j := job.clone()
	target, score := rs.key(j.Queue, "wait", j.Type), waitScore(j.Priority, j.ScheduledAt)
	j.Status = JobStatusWaiting
	if j.ScheduledAt.After(time.Now()) {
		target, score = rs.key(j.Queue, "delayed", j.Type), float64(j.ScheduledAt.UnixMilli())
		j.Status = JobStatusDelayed
	}

	body, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	created, err := createScript.Run(ctx, rs.client,
		[]string{rs.jobKey(j.Queue, j.ID), target, rs.key(j.Queue, "types"), rs.key(j.Queue, "prio")},
		body, score, j.ID.String(), j.Type, int(j.Priority),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("%w: %s", ErrJobExists, j.ID)
	}
	return nil
}

// ClaimJob promotes due delayed jobs and pops the best waiting job atomically.
func (rs *RedisStorage) ClaimJob(ctx context.Context, queue, jobType string, workerID uuid.UUID, lock time.Duration) (*Job, error) {
	now := time.Now()
	lockUntil := now.Add(lock)

	raw, err := claimScript.Run(ctx, rs.client,
		[]string{
			rs.key(queue, "paused"),
			rs.key(queue, "delayed", jobType),
			rs.key(queue, "wait", jobType),
			rs.key(queue, "active"),
			rs.key(queue, "prio"),
		},
		now.UnixMilli(), lockUntil.UnixMilli(), int64(priorityStride),
	).Text()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoJobToClaim
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse claimed job id %q: %w", raw, err)
	}

	job, err := rs.GetJob(ctx, queue, id)
	if err != nil {
		return nil, err
	}
	job.Status = JobStatusActive
	job.LockedUntil = &lockUntil
	job.LockedBy = &workerID
	job.ProcessedAt = &now

	if err := rs.saveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// ExtendLock renews the lock of an active job.
func (rs *RedisStorage) ExtendLock(ctx context.Context, queue string, jobID uuid.UUID, lock time.Duration) error {
	job, err := rs.GetJob(ctx, queue, jobID)
	if err != nil {
		return err
	}
	lockUntil := time.Now().Add(lock)
	job.LockedUntil = &lockUntil

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	ok, err := extendScript.Run(ctx, rs.client,
		[]string{rs.key(queue, "active"), rs.jobKey(queue, jobID)},
		jobID.String(), lockUntil.UnixMilli(), body,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to extend lock: %w", err)
	}
	if ok == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotActive, jobID)
	}
	return nil
}

// CompleteJob stores the result and trims the completed list to keep entries.
func (rs *RedisStorage) CompleteJob(ctx context.Context, queue string, jobID uuid.UUID, result json.RawMessage, keep int) (*Job, error) {
	job, err := rs.GetJob(ctx, queue, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job.Status = JobStatusCompleted
	job.AttemptsMade++
	job.Result = append(json.RawMessage(nil), result...)
	job.FinishedAt = &now
	job.LockedUntil = nil
	job.LockedBy = nil

	if err := rs.finish(ctx, job, "completed", keep); err != nil {
		return nil, err
	}
	return job, nil
}

// RetryJob records a failed attempt and moves the job to delayed until retryAt.
func (rs *RedisStorage) RetryJob(ctx context.Context, queue string, jobID uuid.UUID, errMsg string, retryAt time.Time) (*Job, error) {
	job, err := rs.GetJob(ctx, queue, jobID)
	if err != nil {
		return nil, err
	}

	job.Status = JobStatusDelayed
	job.AttemptsMade++
	job.Error = errMsg
	job.ScheduledAt = retryAt
	job.LockedUntil = nil
	job.LockedBy = nil

	if err := rs.moveActive(ctx, job, rs.key(queue, "delayed", job.Type), float64(retryAt.UnixMilli())); err != nil {
		return nil, err
	}
	return job, nil
}

// FailJob records the final attempt and trims the failed list to keep entries.
func (rs *RedisStorage) FailJob(ctx context.Context, queue string, jobID uuid.UUID, errMsg string, keep int) (*Job, error) {
	job, err := rs.GetJob(ctx, queue, jobID)
	if err != nil {
		return nil, err
	}

	job.AttemptsMade++
	markFailed(job, errMsg, time.Now())

	if err := rs.finish(ctx, job, "failed", keep); err != nil {
		return nil, err
	}
	return job, nil
}

// RecoverStalled scans active jobs with an expired lock. The ZREM in each move
// script guards against a worker that finishes the job concurrently.
func (rs *RedisStorage) RecoverStalled(ctx context.Context, queue string, now time.Time, maxStalled, keepFailed int) (StalledJobs, error) {
	var res StalledJobs

	ids, err := rs.client.ZRangeByScore(ctx, rs.key(queue, "active"), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return res, fmt.Errorf("failed to list expired locks: %w", err)
	}

	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		job, err := rs.GetJob(ctx, queue, id)
		if err != nil {
			continue
		}

		job.StalledCount++
		job.LockedUntil = nil
		job.LockedBy = nil

		if job.StalledCount > maxStalled {
			markFailed(job, ErrJobStalled.Error(), now)
			if err := rs.finish(ctx, job, "failed", keepFailed); err != nil {
				if errors.Is(err, ErrJobNotActive) {
					continue
				}
				return res, err
			}
			res.Failed = append(res.Failed, job)
			continue
		}

		job.Status = JobStatusWaiting
		if err := rs.moveActive(ctx, job, rs.key(queue, "wait", job.Type), waitScore(job.Priority, job.ScheduledAt)); err != nil {
			if errors.Is(err, ErrJobNotActive) {
				continue
			}
			return res, err
		}
		res.Requeued = append(res.Requeued, job)
	}

	return res, nil
}

// RequeueFailed moves a failed job back to waiting with a fresh attempt budget.
func (rs *RedisStorage) RequeueFailed(ctx context.Context, queue string, jobID uuid.UUID) (*Job, error) {
	job, err := rs.GetJob(ctx, queue, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != JobStatusFailed {
		return nil, ErrJobNotFailed
	}

	job.Status = JobStatusWaiting
	job.AttemptsMade = 0
	job.StalledCount = 0
	job.Error = ""
	job.ScheduledAt = time.Now()
	job.FinishedAt = nil

	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}

	ok, err := requeueScript.Run(ctx, rs.client,
		[]string{rs.key(queue, "failed"), rs.jobKey(queue, jobID), rs.key(queue, "wait", job.Type)},
		jobID.String(), body, waitScore(job.Priority, job.ScheduledAt),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to requeue job: %w", err)
	}
	if ok == 0 {
		return nil, ErrJobNotFailed
	}
	return job, nil
}

// GetJob loads a job body.
func (rs *RedisStorage) GetJob(ctx context.Context, queue string, jobID uuid.UUID) (*Job, error) {
	body, err := rs.client.Get(ctx, rs.jobKey(queue, jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", jobID, err)
	}
	return &job, nil
}

// ListJobs returns up to limit jobs in status.
func (rs *RedisStorage) ListJobs(ctx context.Context, queue string, status JobStatus, limit int) ([]*Job, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	var ids []string
	switch status {
	case JobStatusWaiting, JobStatusDelayed:
		types, err := rs.client.SMembers(ctx, rs.key(queue, "types")).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list job types: %w", err)
		}
		set := "wait"
		if status == JobStatusDelayed {
			set = "delayed"
		}
		for _, t := range types {
			part, err := rs.client.ZRange(ctx, rs.key(queue, set, t), 0, stop).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to list %s jobs: %w", status, err)
			}
			ids = append(ids, part...)
		}
	case JobStatusActive:
		part, err := rs.client.ZRange(ctx, rs.key(queue, "active"), 0, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list active jobs: %w", err)
		}
		ids = part
	case JobStatusCompleted, JobStatusFailed:
		part, err := rs.client.LRange(ctx, rs.key(queue, string(status)), 0, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s jobs: %w", status, err)
		}
		ids = part
	default:
		return nil, ErrInvalidStatusFilter
	}

	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = rs.key(queue, "job", id)
	}
	bodies, err := rs.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	jobs := make([]*Job, 0, len(bodies))
	for _, b := range bodies {
		s, ok := b.(string)
		if !ok {
			continue
		}
		var job Job
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			continue
		}
		// Promoted delayed jobs keep their stored status until claimed.
		job.Status = status
		jobs = append(jobs, &job)
	}

	switch status {
	case JobStatusWaiting:
		slices.SortFunc(jobs, compareWaiting)
	case JobStatusDelayed:
		slices.SortFunc(jobs, func(a, b *Job) int { return a.ScheduledAt.Compare(b.ScheduledAt) })
	}
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Counts returns job counts per state in one round trip after resolving job types.
func (rs *RedisStorage) Counts(ctx context.Context, queue string) (JobCounts, error) {
	types, err := rs.client.SMembers(ctx, rs.key(queue, "types")).Result()
	if err != nil {
		return JobCounts{}, fmt.Errorf("failed to list job types: %w", err)
	}

	var (
		waiting   = make([]*redis.IntCmd, len(types))
		delayed   = make([]*redis.IntCmd, len(types))
		active    *redis.IntCmd
		completed *redis.IntCmd
		failed    *redis.IntCmd
		paused    *redis.IntCmd
	)
	_, err = rs.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, t := range types {
			waiting[i] = p.ZCard(ctx, rs.key(queue, "wait", t))
			delayed[i] = p.ZCard(ctx, rs.key(queue, "delayed", t))
		}
		active = p.ZCard(ctx, rs.key(queue, "active"))
		completed = p.LLen(ctx, rs.key(queue, "completed"))
		failed = p.LLen(ctx, rs.key(queue, "failed"))
		paused = p.Exists(ctx, rs.key(queue, "paused"))
		return nil
	})
	if err != nil {
		return JobCounts{}, fmt.Errorf("failed to count jobs: %w", err)
	}

	var c JobCounts
	for i := range types {
		c.Waiting += waiting[i].Val()
		c.Delayed += delayed[i].Val()
	}
	c.Active = active.Val()
	c.Completed = completed.Val()
	c.Failed = failed.Val()
	c.Paused = paused.Val() == 1
	return c, nil
}

// Clean removes completed and failed jobs.
func (rs *RedisStorage) Clean(ctx context.Context, queue string) (int, error) {
	n, err := cleanScript.Run(ctx, rs.client,
		[]string{rs.key(queue, "completed"), rs.key(queue, "failed"), rs.key(queue, "prio")},
		rs.key(queue, "job")+":",
	).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to clean queue: %w", err)
	}
	return n, nil
}

// SetPaused sets or clears the pause flag.
func (rs *RedisStorage) SetPaused(ctx context.Context, queue string, paused bool) error {
	var err error
	if paused {
		err = rs.client.Set(ctx, rs.key(queue, "paused"), 1, 0).Err()
	} else {
		err = rs.client.Del(ctx, rs.key(queue, "paused")).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to set pause flag: %w", err)
	}
	return nil
}

// IsPaused reports the pause flag.
func (rs *RedisStorage) IsPaused(ctx context.Context, queue string) (bool, error) {
	n, err := rs.client.Exists(ctx, rs.key(queue, "paused")).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read pause flag: %w", err)
	}
	return n == 1, nil
}

func (rs *RedisStorage) saveJob(ctx context.Context, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := rs.client.Set(ctx, rs.jobKey(job.Queue, job.ID), body, 0).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (rs *RedisStorage) finish(ctx context.Context, job *Job, list string, keep int) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	n, err := finishScript.Run(ctx, rs.client,
		[]string{
			rs.key(job.Queue, "active"),
			rs.jobKey(job.Queue, job.ID),
			rs.key(job.Queue, list),
			rs.key(job.Queue, "prio"),
		},
		job.ID.String(), body, keep, rs.key(job.Queue, "job")+":",
	).Int()
	if err != nil {
		return fmt.Errorf("failed to move job to %s: %w", list, err)
	}
	if n < 0 {
		return fmt.Errorf("%w: %s", ErrJobNotActive, job.ID)
	}
	return nil
}

func (rs *RedisStorage) moveActive(ctx context.Context, job *Job, target string, score float64) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	ok, err := moveScript.Run(ctx, rs.client,
		[]string{rs.key(job.Queue, "active"), rs.jobKey(job.Queue, job.ID), target},
		job.ID.String(), body, score,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to move job: %w", err)
	}
	if ok == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotActive, job.ID)
	}
	return nil
}
