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
	"time"

	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
	"github.com/google/gcp-rest-client/pkg/logging"
	"github.com/google/gcp-rest-client/pkg/tracing"
)

// ReceiveSettings configures Receive.
type ReceiveSettings struct {
	// MaxOutstandingMessages bounds how many handlers run at once.
	MaxOutstandingMessages int
	// MaxExtension bounds how long a message's lease is kept alive while its
	// handler runs.
	MaxExtension time.Duration
	// PullTimeout bounds each long-poll pull.
	PullTimeout time.Duration
	// Backoff paces pulls after transient failures.
	Backoff gax.Backoff
	// SettleTimeout bounds the nack sent for messages whose handler returned
	// without settling them.
	SettleTimeout time.Duration
}

// DefaultReceiveSettings are used for any zero field of ReceiveSettings.
var DefaultReceiveSettings = ReceiveSettings{
	MaxOutstandingMessages: 100,
	MaxExtension:           10 * time.Minute,
	PullTimeout:            30 * time.Second,
	Backoff: gax.Backoff{
		Initial:    100 * time.Millisecond,
		Max:        time.Minute,
		Multiplier: 1.3,
	},
	SettleTimeout: 10 * time.Second,
}

func (s ReceiveSettings) withDefaults() ReceiveSettings {
	d := DefaultReceiveSettings
	if s.MaxOutstandingMessages <= 0 {
		s.MaxOutstandingMessages = d.MaxOutstandingMessages
	}
	if s.MaxExtension <= 0 {
		s.MaxExtension = d.MaxExtension
	}
	if s.PullTimeout <= 0 {
		s.PullTimeout = d.PullTimeout
	}
	if s.Backoff.Initial <= 0 {
		s.Backoff = d.Backoff
	}
	if s.SettleTimeout <= 0 {
		s.SettleTimeout = d.SettleTimeout
	}
	return s
}

// Receive pulls messages from s and calls handler for each one until ctx is
// done. See the package level Receive.
func (s *Subscription) Receive(ctx context.Context, settings ReceiveSettings, handler func(context.Context, *ReceivedMessage)) error {
	if s.client == nil {
		return rest.ErrNotBound
	}
	return Receive(ctx, s, settings, handler)
}

// Receive pulls messages from p and calls handler concurrently for each one.
// The handler should Ack or Nack the message; while it runs the message's
// lease is extended, and a message left unsettled when the handler returns is
// nacked.
//
// Transport failures and retryable service errors on pull are retried with
// backoff. Any other pull error stops Receive and is returned once running
// handlers finish. Cancelling ctx stops Receive with a nil error.
func Receive(ctx context.Context, p Puller, settings ReceiveSettings, handler func(context.Context, *ReceivedMessage)) error {
	settings = settings.withDefaults()
	ctx = logging.With(ctx, zap.String("subscription", p.ID()))
	logger := logging.FromContext(ctx)

	limit := int64(settings.MaxOutstandingMessages)
	sem := semaphore.NewWeighted(limit)
	var handlers errgroup.Group
	defer handlers.Wait()

	bo := settings.Backoff
	for {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil
		}
		n := int64(1)
		for n < limit && sem.TryAcquire(1) {
			n++
		}

		msgs, err := p.Pull(ctx, PullOptions{MaxMessages: int(n), Timeout: settings.PullTimeout})
		if err != nil {
			sem.Release(n)
			if ctx.Err() != nil {
				return nil
			}
			if !retryable(err) {
				return err
			}
			pause := bo.Pause()
			logger.Debug("Pull failed, backing off", zap.Duration("pause", pause), zap.Error(err))
			if err := gax.Sleep(ctx, pause); err != nil {
				return nil
			}
			continue
		}
		bo = settings.Backoff

		if unused := n - int64(len(msgs)); unused > 0 {
			sem.Release(unused)
		}
		for _, m := range msgs {
			m := m
			handlers.Go(func() error {
				defer sem.Release(1)
				process(ctx, p, m, settings, handler)
				return nil
			})
		}
	}
}

func process(ctx context.Context, p Puller, m *ReceivedMessage, settings ReceiveSettings, handler func(context.Context, *ReceivedMessage)) {
	ctx, span := tracing.StartReceiveSpan(ctx, p.ID(), m.ID)
	defer span.End()
	ctx = logging.With(ctx, zap.String("messageId", m.ID))
	logger := logging.FromContext(ctx)

	leaseCtx, stopLease := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(leaseCtx, logger, p.AckDeadline(), m, settings.MaxExtension)
	}()

	handler(ctx, m)
	stopLease()
	<-done

	if m.settled() {
		return
	}
	nackCtx, cancel := context.WithTimeout(context.Background(), settings.SettleTimeout)
	defer cancel()
	if err := m.Nack(nackCtx); err != nil {
		logger.Warn("Failed to nack unsettled message", zap.Error(err))
	}
}

// keepAlive extends the lease on m at 80% of each deadline until ctx is done,
// m is settled, or maxExtension has elapsed since m was received.
func keepAlive(ctx context.Context, logger *zap.Logger, ackDeadline time.Duration, m *ReceivedMessage, maxExtension time.Duration) {
	if ackDeadline <= 0 {
		return
	}
	period := ackDeadline * 4 / 5
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if m.settled() || time.Since(m.ReceivedAt) >= maxExtension {
			return
		}
		err := m.ModifyAckDeadline(ctx, ackDeadline)
		switch {
		case errors.Is(err, ErrLeaseExpired):
			return
		case err != nil && !errors.Is(err, context.Canceled):
			logger.Debug("Failed to extend message lease", zap.Error(err))
		}
	}
}

func retryable(err error) bool {
	if rest.IsTransport(err) {
		return true
	}
	var re *rest.RemoteError
	return errors.As(err, &re) && re.Temporary()
}
