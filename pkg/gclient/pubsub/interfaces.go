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
	"time"
)

// Acker settles delivered messages.
type Acker interface {
	// Acknowledge permanently removes the messages from redelivery.
	Acknowledge(ctx context.Context, ackIDs ...string) error
	// ModifyAckDeadline sets the deadline of the messages to d from now. A
	// zero d makes them eligible for redelivery immediately.
	ModifyAckDeadline(ctx context.Context, d time.Duration, ackIDs ...string) error
}

// Puller is the part of a subscription the receive loop depends on.
type Puller interface {
	Acker
	// ID returns the subscription ID.
	ID() string
	// AckDeadline returns the deadline granted to each pulled message.
	AckDeadline() time.Duration
	// Pull retrieves up to opts.MaxMessages undelivered messages.
	Pull(ctx context.Context, opts PullOptions) ([]*ReceivedMessage, error)
}

// Verify that Subscription satisfies the Puller interface.
var _ Puller = &Subscription{}
