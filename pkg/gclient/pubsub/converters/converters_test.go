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

package converters

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/google/gcp-rest-client/pkg/gclient/pubsub"
)

func TestToCloudEvent(t *testing.T) {
	published := time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)
	msg := pubsub.NewReceivedMessage(nil, "ack", pubsub.Message{
		ID:          "m-1",
		Data:        []byte("payload"),
		PublishTime: published,
		OrderingKey: "key",
		Attributes: map[string]string{
			"Color":     "red",
			"not-valid": "x",
			"type":      "reserved",
		},
	}, 0, time.Now(), time.Minute)

	event, err := ToCloudEvent(context.Background(), msg, "proj", "sub")
	if err != nil {
		t.Fatalf("ToCloudEvent() = %v", err)
	}

	got := map[string]interface{}{
		"id":     event.ID(),
		"source": event.Source(),
		"type":   event.Type(),
		"time":   event.Time(),
		"data":   string(event.Data()),
	}
	want := map[string]interface{}{
		"id":     "m-1",
		"source": "//pubsub.googleapis.com/projects/proj/subscriptions/sub",
		"type":   MessagePublishedType,
		"time":   published,
		"data":   "payload",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Error("unexpected event (-want, +got) = ", diff)
	}
	wantExt := map[string]interface{}{"color": "red", OrderingKeyExtension: "key"}
	if diff := cmp.Diff(wantExt, event.Extensions()); diff != "" {
		t.Error("unexpected extensions (-want, +got) = ", diff)
	}
}

func TestToCloudEventGeneratesID(t *testing.T) {
	msg := pubsub.NewReceivedMessage(nil, "ack", pubsub.Message{Data: []byte("x")}, 0, time.Now(), time.Minute)
	event, err := ToCloudEvent(context.Background(), msg, "proj", "sub")
	if err != nil {
		t.Fatalf("ToCloudEvent() = %v", err)
	}
	if _, err := uuid.Parse(event.ID()); err != nil {
		t.Errorf("event ID %q is not a UUID: %v", event.ID(), err)
	}
}

func TestToCloudEventNil(t *testing.T) {
	if _, err := ToCloudEvent(context.Background(), nil, "proj", "sub"); err == nil {
		t.Error("ToCloudEvent(nil) succeeded, want error")
	}
}
