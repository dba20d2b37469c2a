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

// Package tracing starts OpenCensus spans for message handling and ties them
// to the context logger.
package tracing

import (
	"context"

	"go.opencensus.io/trace"
	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/logging"
)

const (
	LoggingTraceKey        = "logging.googleapis.com/trace"
	LoggingSpanIDKey       = "logging.googleapis.com/spanId"
	LoggingTraceSampledKey = "logging.googleapis.com/trace_sampled"
)

const (
	PubSubProtocol = "Pub/Sub"

	messagingProtocolKey    = "messaging.protocol"
	messagingDestinationKey = "messaging.destination"
	messagingMessageIDKey   = "messaging.message_id"
)

// ReceiveSpanName returns the span name for messages from subscription.
func ReceiveSpanName(subscription string) string {
	return "pubsub.receive/" + subscription
}

// StartReceiveSpan starts a consumer span for a message pulled from
// subscription. The returned context carries both the span and a logger
// annotated with its trace fields.
func StartReceiveSpan(ctx context.Context, subscription, messageID string) (context.Context, *trace.Span) {
	ctx, span := trace.StartSpan(ctx, ReceiveSpanName(subscription), trace.WithSpanKind(trace.SpanKindServer))
	if span.IsRecordingEvents() {
		span.AddAttributes(
			trace.StringAttribute(messagingProtocolKey, PubSubProtocol),
			trace.StringAttribute(messagingDestinationKey, subscription),
			trace.StringAttribute(messagingMessageIDKey, messageID))
	}
	return WithLogging(ctx, span), span
}

// WithLogging adds the span's trace fields to the context logger, in the
// keys Cloud Logging correlates with traces.
func WithLogging(ctx context.Context, span *trace.Span) context.Context {
	if span == nil {
		return ctx
	}
	sc := span.SpanContext()
	return logging.With(ctx,
		zap.Stringer(LoggingTraceKey, sc.TraceID),
		zap.Stringer(LoggingSpanIDKey, sc.SpanID),
		zap.Bool(LoggingTraceSampledKey, sc.IsSampled()),
	)
}
