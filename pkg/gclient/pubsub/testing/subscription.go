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

// Package testing provides an in-memory Pub/Sub subscription that follows the
// service's lease and redelivery rules.
package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gcp-rest-client/pkg/gclient/pubsub"
	"github.com/google/gcp-rest-client/pkg/gclient/rest"
)

type entry struct {
	msg      pubsub.Message
	attempts int
	ackID    string
	deadline time.Time
}

// FakeSubscription is an in-memory pubsub.Puller. Messages not acknowledged
// before their deadline are redelivered on a later pull with an incremented
// delivery attempt.
type FakeSubscription struct {
	id          string
	ackDeadline time.Duration

	mu          sync.Mutex
	now         func() time.Time
	queue       []*entry
	outstanding map[string]*entry
	acked       []string
	nextID      int
	pullErrs    []error
	pulls       int
}

// Verify that it satisfies the pubsub.Puller interface.
var _ pubsub.Puller = &FakeSubscription{}

// NewFakeSubscription creates an empty subscription.
func NewFakeSubscription(id string, ackDeadline time.Duration) *FakeSubscription {
	return &FakeSubscription{
		id:          id,
		ackDeadline: ackDeadline,
		now:         time.Now,
		outstanding: make(map[string]*entry),
	}
}

// SetNow replaces the clock used for deadlines.
func (f *FakeSubscription) SetNow(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Publish enqueues messages. Messages without an ID are assigned one.
func (f *FakeSubscription) Publish(msgs ...pubsub.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.nextID++
		if m.ID == "" {
			m.ID = fmt.Sprintf("msg-%d", f.nextID)
		}
		if m.PublishTime.IsZero() {
			m.PublishTime = f.now()
		}
		f.queue = append(f.queue, &entry{msg: m})
	}
}

// FailPulls makes the next len(errs) pulls return the given errors in order.
func (f *FakeSubscription) FailPulls(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pullErrs = append(f.pullErrs, errs...)
}

// ID implements pubsub.Puller.
func (f *FakeSubscription) ID() string {
	return f.id
}

// AckDeadline implements pubsub.Puller.
func (f *FakeSubscription) AckDeadline() time.Duration {
	return f.ackDeadline
}

// Pull implements pubsub.Puller. With nothing to deliver it waits briefly, or
// until ctx is done, and returns no messages.
func (f *FakeSubscription) Pull(ctx context.Context, opts pubsub.PullOptions) ([]*pubsub.ReceivedMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, &rest.TransportError{Method: "POST", URL: f.id + ":pull", Err: err}
	}
	msgs, err := f.pull(opts)
	if err != nil || len(msgs) > 0 || opts.ReturnImmediately {
		return msgs, err
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Millisecond):
	}
	return msgs, nil
}

func (f *FakeSubscription) pull(opts pubsub.PullOptions) ([]*pubsub.ReceivedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	if len(f.pullErrs) > 0 {
		err := f.pullErrs[0]
		f.pullErrs = f.pullErrs[1:]
		return nil, err
	}

	now := f.now()
	for ackID, e := range f.outstanding {
		if now.After(e.deadline) {
			delete(f.outstanding, ackID)
			f.queue = append(f.queue, e)
		}
	}

	limit := opts.MaxMessages
	if limit <= 0 {
		limit = pubsub.DefaultMaxMessages
	}
	msgs := []*pubsub.ReceivedMessage{}
	for len(f.queue) > 0 && len(msgs) < limit {
		e := f.queue[0]
		f.queue = f.queue[1:]
		f.nextID++
		e.attempts++
		e.ackID = fmt.Sprintf("ack-%d", f.nextID)
		e.deadline = now.Add(f.ackDeadline)
		f.outstanding[e.ackID] = e
		msgs = append(msgs, pubsub.NewReceivedMessage(f, e.ackID, e.msg, e.attempts, now, f.ackDeadline))
	}
	return msgs, nil
}

// Acknowledge implements pubsub.Acker. Unknown ack IDs are ignored, as the
// real subscription handle ignores not-found.
func (f *FakeSubscription) Acknowledge(ctx context.Context, ackIDs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ackIDs {
		if e, ok := f.outstanding[id]; ok {
			delete(f.outstanding, id)
			f.acked = append(f.acked, e.msg.ID)
		}
	}
	return nil
}

// ModifyAckDeadline implements pubsub.Acker.
func (f *FakeSubscription) ModifyAckDeadline(ctx context.Context, d time.Duration, ackIDs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ackIDs {
		e, ok := f.outstanding[id]
		if !ok {
			return &rest.NotFoundError{Resource: id}
		}
		if d <= 0 {
			delete(f.outstanding, id)
			f.queue = append(f.queue, e)
			continue
		}
		e.deadline = f.now().Add(d)
	}
	return nil
}

// Acked returns the IDs of acknowledged messages in acknowledgement order.
func (f *FakeSubscription) Acked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

// Pending returns how many messages await delivery.
func (f *FakeSubscription) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Outstanding returns how many messages are leased to pullers.
func (f *FakeSubscription) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outstanding)
}

// Pulls returns how many pulls were served, failed ones included.
func (f *FakeSubscription) Pulls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}
