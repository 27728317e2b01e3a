package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const recordKeyPrefix = "tasks:record:"

// RedisStore implements Store on a Redis list (queue) plus per-task JSON
// records with a TTL (result cache). Both the API and worker processes connect
// to the same instance, which is what lets task state span the process
// boundary.
type RedisStore struct {
	client   *redis.Client
	queueKey string
	ttl      time.Duration
}

// NewRedisStore builds a store around an existing client.
func NewRedisStore(client *redis.Client, queueKey string, ttl time.Duration) *RedisStore {
	if queueKey == "" {
		queueKey = "tasks:queue"
	}
	return &RedisStore{
		client:   client,
		queueKey: queueKey,
		ttl:      ttl,
	}
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}

// Enqueue writes the PENDING record and pushes the task id in one transaction
// so an executor can never pop an id without a readable record.
func (s *RedisStore) Enqueue(ctx context.Context, spec TaskSpec) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	rec := record{
		TaskID:    id,
		Spec:      spec,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(id), payload, s.ttl)
	pipe.RPush(ctx, s.queueKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}
	return id, nil
}

// Status reads the stored record. A missing record reads as PENDING: the
// broker keeps no registry of issued ids, so an unknown id and a queued one
// look identical to callers.
func (s *RedisStore) Status(ctx context.Context, id string) (Snapshot, error) {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if rec == nil {
		return Snapshot{TaskID: id, State: StatePending}, nil
	}
	return Snapshot{
		TaskID: rec.TaskID,
		State:  rec.State,
		Result: rec.Result,
		Error:  rec.Error,
	}, nil
}

// Dequeue pops the next task id and loads its spec. Returns nil when the
// queue is empty or the record has already expired.
func (s *RedisStore) Dequeue(ctx context.Context) (*Task, error) {
	id, err := s.client.LPop(ctx, s.queueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop queue: %w", err)
	}
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &Task{ID: id, Spec: rec.Spec}, nil
}

func (s *RedisStore) MarkStarted(ctx context.Context, id string) error {
	return s.update(ctx, id, func(rec *record) {
		rec.State = StateStarted
	})
}

// MarkSuccess stores the executor's summary and flips the record to SUCCESS.
func (s *RedisStore) MarkSuccess(ctx context.Context, id string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.update(ctx, id, func(rec *record) {
		rec.State = StateSuccess
		rec.Result = payload
		rec.Error = ""
	})
}

// MarkFailure records the stringified failure detail in place of a result.
func (s *RedisStore) MarkFailure(ctx context.Context, id string, detail string) error {
	return s.update(ctx, id, func(rec *record) {
		rec.State = StateFailure
		rec.Result = nil
		rec.Error = detail
	})
}

// QueueDepth returns the ready-queue length.
func (s *RedisStore) QueueDepth(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, s.queueKey).Result()
}

func (s *RedisStore) getRecord(ctx context.Context, id string) (*record, error) {
	data, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) update(ctx context.Context, id string, mutate func(*record)) error {
	rec, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("task not found: %s", id)
	}
	mutate(rec)
	rec.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, recordKey(id), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}
