// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/serverpilot/internal/logging"
)

// TopicJobFinished carries one Event per job that reached a terminal outcome.
const TopicJobFinished = "jobs.finished"

// Origins of job events.
const (
	OriginCycle       = "cycle"
	OriginUpdateCheck = "update-check"
)

// ErrBusClosed is returned by Publish and Subscribe after Close.
var ErrBusClosed = errors.New("job event bus closed")

// Event describes a finished job.
type Event struct {
	Origin   string    `json:"origin"`
	CycleID  string    `json:"cycle_id,omitempty"`
	Name     string    `json:"name"`
	Outcome  string    `json:"outcome"`
	Status   string    `json:"status,omitempty"`
	Error    string    `json:"error,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// NewEvent builds the event of a terminal job snapshot.
func NewEvent(origin, cycleID string, s Snapshot) Event {
	ev := Event{
		Origin:   origin,
		CycleID:  cycleID,
		Name:     s.Name,
		Outcome:  s.Outcome.String(),
		Status:   s.Status,
		Warnings: s.Warnings,
		Started:  s.Started,
		Finished: s.Finished,
	}
	if s.Err != nil {
		ev.Error = s.Err.Error()
	}
	return ev
}

// EventBus is an in-process pub/sub for job events. Publishing never blocks
// the job that finished; events published while nobody subscribes are
// dropped.
type EventBus struct {
	pubsub *gochannel.GoChannel

	closeOnce sync.Once
	closed    chan struct{}
}

// NewEventBus creates a bus logging through the global logger.
func NewEventBus() *EventBus {
	return &EventBus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logging.NewSlogLogger()),
		),
		closed: make(chan struct{}),
	}
}

// Publish sends ev to every current subscriber.
func (b *EventBus) Publish(ev Event) error {
	select {
	case <-b.closed:
		return ErrBusClosed
	default:
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode job event: %w", err)
	}
	if err := b.pubsub.Publish(TopicJobFinished, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		return fmt.Errorf("publish job event: %w", err)
	}
	return nil
}

// Subscribe returns the events published from now on. The channel closes
// when ctx is done or the bus is closed.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	select {
	case <-b.closed:
		return nil, ErrBusClosed
	default:
	}
	msgs, err := b.pubsub.Subscribe(ctx, TopicJobFinished)
	if err != nil {
		return nil, fmt.Errorf("subscribe to job events: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ev Event
			err := json.Unmarshal(msg.Payload, &ev)
			msg.Ack()
			if err != nil {
				logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed job event")
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			case <-b.closed:
				return
			}
		}
	}()
	return out, nil
}

// Close ends every subscription. It is safe to call more than once.
func (b *EventBus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		err = b.pubsub.Close()
	})
	return err
}
