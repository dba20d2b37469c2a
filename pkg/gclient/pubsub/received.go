/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pubsub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
)

// DeliveryState is the local view of one delivery attempt of a message.
type DeliveryState int

const (
	// Delivered messages are leased to this puller until their deadline.
	Delivered DeliveryState = iota
	// Acknowledged messages will not be redelivered.
	Acknowledged
	// Expired messages passed their deadline or were nacked; the service may
	// redeliver them to any puller with an incremented delivery attempt.
	Expired
)

func (s DeliveryState) String() string {
	switch s {
	case Delivered:
		return "Delivered"
	case Acknowledged:
		return "Acknowledged"
	case Expired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// ErrLeaseExpired is returned when extending the lease of a message that was
// nacked or whose deadline passed. The delivery attempt is over; the service
// redelivers the message with a new ack ID.
var ErrLeaseExpired = errors.New("pubsub: message lease expired")

// ReceivedMessage is a message returned by a pull, together with the ack ID
// needed to settle it.
type ReceivedMessage struct {
	Message
	// AckID identifies this delivery attempt.
	AckID string
	// DeliveryAttempt counts deliveries of the message. The service only
	// reports it for subscriptions with a dead letter policy, otherwise 0.
	DeliveryAttempt int
	// ReceivedAt is when the pull that returned the message completed.
	ReceivedAt time.Time

	acker Acker
	now   func() time.Time

	// settle serializes Ack and ModifyAckDeadline so their remote calls and
	// local transitions happen in the same order.
	settle sync.Mutex

	mu       sync.Mutex
	state    DeliveryState
	deadline time.Time
}

// NewReceivedMessage creates a delivered message leased until
// receivedAt+ackDeadline. acker settles it.
func NewReceivedMessage(acker Acker, ackID string, msg Message, deliveryAttempt int, receivedAt time.Time, ackDeadline time.Duration) *ReceivedMessage {
	return &ReceivedMessage{
		Message:         msg,
		AckID:           ackID,
		DeliveryAttempt: deliveryAttempt,
		ReceivedAt:      receivedAt,
		acker:           acker,
		now:             time.Now,
		state:           Delivered,
		deadline:        receivedAt.Add(ackDeadline),
	}
}

// Deadline returns the time after which the service may redeliver the message.
func (m *ReceivedMessage) Deadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deadline
}

// State returns the delivery state. A delivered message whose deadline has
// passed is reported as Expired.
func (m *ReceivedMessage) State() DeliveryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *ReceivedMessage) stateLocked() DeliveryState {
	if m.state != Delivered {
		return m.state
	}
	if m.clock().After(m.deadline) {
		return Expired
	}
	return Delivered
}

func (m *ReceivedMessage) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// Ack acknowledges the message. Acking a message that was already
// acknowledged, locally or by a previous puller, succeeds. A failed ack leaves
// the message delivered: the service may or may not have applied it.
func (m *ReceivedMessage) Ack(ctx context.Context) error {
	m.settle.Lock()
	defer m.settle.Unlock()
	if m.settledAs(Acknowledged) {
		return nil
	}
	if m.acker == nil {
		return rest.ErrNotBound
	}
	if err := m.acker.Acknowledge(ctx, m.AckID); err != nil {
		return err
	}
	m.mu.Lock()
	m.state = Acknowledged
	m.mu.Unlock()
	return nil
}

// Nack releases the message for immediate redelivery. Nacking a message
// that is already expired is a no-op.
func (m *ReceivedMessage) Nack(ctx context.Context) error {
	return m.ModifyAckDeadline(ctx, 0)
}

// ModifyAckDeadline extends (or, with 0, ends) the lease on the message. d is
// applied as the service does: clamped to [0, MaxAckDeadline] and rounded up
// to whole seconds. It is a no-op on an acknowledged message. Expired is
// terminal: extending an expired message returns ErrLeaseExpired without any
// request, and releasing it again does nothing.
func (m *ReceivedMessage) ModifyAckDeadline(ctx context.Context, d time.Duration) error {
	m.settle.Lock()
	defer m.settle.Unlock()

	d = leaseDuration(d)
	m.mu.Lock()
	state := m.stateLocked()
	m.mu.Unlock()
	switch state {
	case Acknowledged:
		return nil
	case Expired:
		if d == 0 {
			return nil
		}
		return ErrLeaseExpired
	}
	if m.acker == nil {
		return rest.ErrNotBound
	}
	if err := m.acker.ModifyAckDeadline(ctx, d, m.AckID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if d == 0 {
		m.state = Expired
		return nil
	}
	m.deadline = m.clock().Add(d)
	return nil
}

// Decode builds a caller-defined payload from the message.
func (m *ReceivedMessage) Decode(v FromPubSubMessage) error {
	if err := v.FromPubSubMessage(&m.Message); err != nil {
		return &rest.SerializationError{Op: "convert message payload", Err: err}
	}
	return nil
}

func (m *ReceivedMessage) settledAs(s DeliveryState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == s
}

// settled reports whether the message was explicitly acked or nacked.
func (m *ReceivedMessage) settled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != Delivered
}
