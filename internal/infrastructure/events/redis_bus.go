// Package events carries job changes between service instances over Redis
// pub/sub so each instance can drop its local cache entries and resync its
// location index.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"nearby-jobs/internal/domain/geo"
	"nearby-jobs/internal/domain/job"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNoClient = errors.New("events: redis client unavailable")

// RemoteHandler receives changes published by other instances.
type RemoteHandler interface {
	OnRemoteChange(ctx context.Context, change job.Change)
}

type envelope struct {
	Origin   string         `json:"origin"`
	JobID    uuid.UUID      `json:"job_id"`
	Kind     job.ChangeKind `json:"kind"`
	OldPoint *geo.Point     `json:"old_point,omitempty"`
	NewPoint *geo.Point     `json:"new_point,omitempty"`
	At       time.Time      `json:"at"`
}

type RedisBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *log.Logger
}

func NewRedisBus(client *redis.Client, channel string, logger *log.Logger) *RedisBus {
	return &RedisBus{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (b *RedisBus) InstanceID() string { return b.instanceID }

// Publish sends change to every subscribed instance. A nil client is a no-op.
func (b *RedisBus) Publish(ctx context.Context, change job.Change) error {
	if b == nil || b.client == nil {
		return nil
	}
	payload, err := json.Marshal(envelope{
		Origin:   b.instanceID,
		JobID:    change.JobID,
		Kind:     change.Kind,
		OldPoint: change.OldPoint,
		NewPoint: change.NewPoint,
		At:       change.At,
	})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Listener is an established subscription on the bus channel.
type Listener struct {
	bus *RedisBus
	sub *redis.PubSub
}

// Subscribe opens the subscription and waits for the server to confirm it,
// so changes published after it returns are delivered.
func (b *RedisBus) Subscribe(ctx context.Context) (*Listener, error) {
	if b == nil || b.client == nil {
		return nil, ErrNoClient
	}
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	if b.logger != nil {
		b.logger.Printf("[Events] Subscribed channel=%s instance=%s", b.channel, b.instanceID)
	}
	return &Listener{bus: b, sub: sub}, nil
}

// Run delivers remote changes to h until ctx is done or the subscription is
// closed. Changes published by this instance are skipped.
func (l *Listener) Run(ctx context.Context, h RemoteHandler) {
	ch := l.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				l.logf("[Events] Bad payload err=%v", err)
				continue
			}
			if env.Origin == l.bus.instanceID || env.JobID == uuid.Nil {
				continue
			}
			h.OnRemoteChange(ctx, job.Change{
				JobID:    env.JobID,
				Kind:     env.Kind,
				OldPoint: env.OldPoint,
				NewPoint: env.NewPoint,
				At:       env.At,
			})
		}
	}
}

func (l *Listener) Close() error {
	return l.sub.Close()
}

func (l *Listener) logf(format string, args ...any) {
	if l.bus.logger != nil {
		l.bus.logger.Printf(format, args...)
	}
}
