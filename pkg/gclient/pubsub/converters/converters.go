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

// Package converters turns received Pub/Sub messages into CloudEvents.
package converters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/gclient/pubsub"
	"github.com/google/gcp-rest-client/pkg/logging"
)

const (
	// MessagePublishedType is the CloudEvent type of a Pub/Sub message.
	MessagePublishedType = "google.cloud.pubsub.topic.v1.messagePublished"
	// OrderingKeyExtension carries the message ordering key, when set.
	OrderingKeyExtension = "orderingkey"
)

// EventSource returns the CloudEvent source of messages pulled from a
// subscription.
func EventSource(project, subscription string) string {
	return fmt.Sprintf("//pubsub.googleapis.com/%s", pubsub.SubscriptionName(project, subscription))
}

// ToCloudEvent converts a received message into a binary-mode CloudEvent.
// Attributes that are valid extension names are promoted to extensions.
func ToCloudEvent(ctx context.Context, msg *pubsub.ReceivedMessage, project, subscription string) (*cloudevents.Event, error) {
	if msg == nil {
		return nil, errors.New("nil pubsub message")
	}
	event := cloudevents.NewEvent(cloudevents.VersionV1)
	id := msg.ID
	if id == "" {
		id = uuid.New().String()
	}
	event.SetID(id)
	event.SetSource(EventSource(project, subscription))
	event.SetType(MessagePublishedType)
	if !msg.PublishTime.IsZero() {
		event.SetTime(msg.PublishTime)
	}
	// The payload is opaque, so no content type more specific than this one
	// can be claimed.
	if err := event.SetData("application/octet-stream", msg.Data); err != nil {
		return nil, fmt.Errorf("setting event data: %w", err)
	}
	if msg.OrderingKey != "" {
		event.SetExtension(OrderingKeyExtension, msg.OrderingKey)
	}

	logger := logging.FromContext(ctx).With(zap.String("event.id", id))
	for k, v := range msg.Attributes {
		name := strings.ToLower(k)
		if !isAlphaNumeric(name) || isReserved(name) {
			logger.Debug("Skipping attribute that is not a valid extension", zap.String(k, v))
			continue
		}
		event.SetExtension(name, v)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

func isAlphaNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// isReserved reports whether name is a CloudEvents context attribute that
// cannot be set as an extension.
func isReserved(name string) bool {
	switch name {
	case "id", "source", "type", "time", "specversion", "datacontenttype", "dataschema", "subject", "data", "data_base64":
		return true
	}
	return false
}
