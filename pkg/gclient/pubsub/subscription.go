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
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
	"github.com/google/gcp-rest-client/pkg/logging"
)

const (
	// DefaultAckDeadline is the service default when a subscription is
	// created without one.
	DefaultAckDeadline = 10 * time.Second
	// MaxAckDeadline is the longest deadline the service accepts.
	MaxAckDeadline = 600 * time.Second
	// DefaultMaxMessages bounds a pull when PullOptions.MaxMessages is unset.
	DefaultMaxMessages = 100

	// maxAckIDsPerRequest keeps acknowledge and modifyAckDeadline requests
	// well under the service's request size limit.
	maxAckIDsPerRequest = 1000
)

// Subscription is a handle for a Pub/Sub subscription. The zero value is not
// bound to a client; every operation on it returns rest.ErrNotBound.
type Subscription struct {
	client      *rest.Client
	project     string
	id          string
	ackDeadline time.Duration
}

// SubscriptionConfig is the subscription resource as returned by the service.
type SubscriptionConfig struct {
	Name                     string            `json:"name"`
	Topic                    string            `json:"topic"`
	AckDeadlineSeconds       int               `json:"ackDeadlineSeconds,omitempty"`
	RetainAckedMessages      bool              `json:"retainAckedMessages,omitempty"`
	MessageRetentionDuration string            `json:"messageRetentionDuration,omitempty"`
	Labels                   map[string]string `json:"labels,omitempty"`
	EnableMessageOrdering    bool              `json:"enableMessageOrdering,omitempty"`
	Filter                   string            `json:"filter,omitempty"`
}

// AckDeadline returns the configured deadline, or the service default.
func (c *SubscriptionConfig) AckDeadline() time.Duration {
	if c.AckDeadlineSeconds <= 0 {
		return DefaultAckDeadline
	}
	return time.Duration(c.AckDeadlineSeconds) * time.Second
}

// PullOptions bounds a single pull.
type PullOptions struct {
	// MaxMessages caps the number of returned messages. Defaults to
	// DefaultMaxMessages.
	MaxMessages int
	// ReturnImmediately asks the service not to wait for messages.
	ReturnImmediately bool
	// Timeout bounds how long the pull may wait. When it elapses the pull
	// returns no messages and no error. Zero means no bound beyond ctx.
	Timeout time.Duration
}

type pullRequest struct {
	ReturnImmediately bool `json:"returnImmediately,omitempty"`
	MaxMessages       int  `json:"maxMessages"`
}

type receivedMessage struct {
	AckID           string         `json:"ackId"`
	Message         EncodedMessage `json:"message"`
	DeliveryAttempt int            `json:"deliveryAttempt,omitempty"`
}

type pullResponse struct {
	ReceivedMessages []receivedMessage `json:"receivedMessages,omitempty"`
}

type acknowledgeRequest struct {
	AckIDs []string `json:"ackIds"`
}

type modifyAckDeadlineRequest struct {
	AckIDs             []string `json:"ackIds"`
	AckDeadlineSeconds int      `json:"ackDeadlineSeconds"`
}

// ID returns the subscription ID.
func (s *Subscription) ID() string {
	return s.id
}

// String returns the fully qualified subscription name.
func (s *Subscription) String() string {
	return SubscriptionName(s.project, s.id)
}

// AckDeadline returns the deadline assumed for pulled messages.
func (s *Subscription) AckDeadline() time.Duration {
	return s.ackDeadline
}

// WithAckDeadline returns a copy of the handle that assumes d as the ack
// deadline of pulled messages. It should match the subscription's configured
// deadline (see Config). d is rounded up to whole seconds, and to at least
// one second.
func (s *Subscription) WithAckDeadline(d time.Duration) *Subscription {
	c := *s
	c.ackDeadline = leaseDuration(d)
	if c.ackDeadline < time.Second {
		c.ackDeadline = time.Second
	}
	return &c
}

func (s *Subscription) uri() string {
	return SubscriptionURI(s.client.PubSubEndpoint(), s.project, s.id)
}

// Pull retrieves undelivered messages. An empty subscription yields an empty
// slice. Every returned message is leased to the caller until its deadline.
func (s *Subscription) Pull(ctx context.Context, opts PullOptions) ([]*ReceivedMessage, error) {
	if s.client == nil {
		return nil, rest.ErrNotBound
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = DefaultMaxMessages
	}

	pullCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var resp pullResponse
	req := pullRequest{ReturnImmediately: opts.ReturnImmediately, MaxMessages: opts.MaxMessages}
	err := s.client.Call(pullCtx, http.MethodPost, s.uri()+":pull", s.String(), req, &resp)
	if err != nil {
		if rest.IsTransport(err) && ctx.Err() == nil && errors.Is(pullCtx.Err(), context.DeadlineExceeded) {
			return []*ReceivedMessage{}, nil
		}
		return nil, err
	}

	receivedAt := time.Now()
	msgs := make([]*ReceivedMessage, 0, len(resp.ReceivedMessages))
	for _, rm := range resp.ReceivedMessages {
		m, err := rm.Message.Decode()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, NewReceivedMessage(s, rm.AckID, *m, rm.DeliveryAttempt, receivedAt, s.ackDeadline))
	}
	logging.FromContext(ctx).Debug("Pulled messages",
		zap.String("subscription", s.String()), zap.Int("count", len(msgs)))
	return msgs, nil
}

// Acknowledge acknowledges the given ack IDs. A not-found response is treated
// as success: the ID was already acknowledged or has expired, which is
// expected when several pullers race on redelivered messages.
func (s *Subscription) Acknowledge(ctx context.Context, ackIDs ...string) error {
	if s.client == nil {
		return rest.ErrNotBound
	}
	var errs error
	for _, batch := range batches(ackIDs) {
		err := s.client.Call(ctx, http.MethodPost, s.uri()+":acknowledge", s.String(), acknowledgeRequest{AckIDs: batch}, nil)
		if rest.IsNotFound(err) {
			logging.FromContext(ctx).Debug("Ignoring not found on acknowledge",
				zap.String("subscription", s.String()), zap.Int("count", len(batch)))
			continue
		}
		errs = multierr.Append(errs, err)
	}
	return errs
}

// ModifyAckDeadline sets the deadline of the given ack IDs to d from now.
// d is clamped to [0, MaxAckDeadline] and rounded up to whole seconds; zero
// releases the messages.
func (s *Subscription) ModifyAckDeadline(ctx context.Context, d time.Duration, ackIDs ...string) error {
	if s.client == nil {
		return rest.ErrNotBound
	}
	seconds := int(leaseDuration(d) / time.Second)
	var errs error
	for _, batch := range batches(ackIDs) {
		req := modifyAckDeadlineRequest{AckIDs: batch, AckDeadlineSeconds: seconds}
		errs = multierr.Append(errs, s.client.Call(ctx, http.MethodPost, s.uri()+":modifyAckDeadline", s.String(), req, nil))
	}
	return errs
}

// Config fetches the subscription resource.
func (s *Subscription) Config(ctx context.Context) (*SubscriptionConfig, error) {
	if s.client == nil {
		return nil, rest.ErrNotBound
	}
	cfg := &SubscriptionConfig{}
	if err := s.client.Call(ctx, http.MethodGet, s.uri(), s.String(), nil, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exists reports whether the subscription exists.
func (s *Subscription) Exists(ctx context.Context) (bool, error) {
	_, err := s.Config(ctx)
	if rest.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Delete deletes the subscription. Outstanding ack IDs become invalid.
func (s *Subscription) Delete(ctx context.Context) error {
	if s.client == nil {
		return rest.ErrNotBound
	}
	return s.client.Call(ctx, http.MethodDelete, s.uri(), s.String(), nil, nil)
}

func clampDeadline(d time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d > MaxAckDeadline:
		return MaxAckDeadline
	}
	return d
}

// leaseDuration is d as the service applies it: clamped, then rounded up to
// whole seconds so a positive d never becomes a release.
func leaseDuration(d time.Duration) time.Duration {
	d = clampDeadline(d)
	return (d + time.Second - 1) / time.Second * time.Second
}

func batches(ids []string) [][]string {
	var out [][]string
	for len(ids) > maxAckIDsPerRequest {
		out = append(out, ids[:maxAckIDsPerRequest])
		ids = ids[maxAckIDsPerRequest:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
